package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/chat"
	"github.com/xavierca1/lead-crm/internal/config"
	"github.com/xavierca1/lead-crm/internal/entity"
	"github.com/xavierca1/lead-crm/internal/infra/database"
	"github.com/xavierca1/lead-crm/internal/infra/http/handlers"
	"github.com/xavierca1/lead-crm/internal/infra/http/middleware"
	"github.com/xavierca1/lead-crm/internal/infra/integration/kommo"
	"github.com/xavierca1/lead-crm/internal/infra/queue"
	"github.com/xavierca1/lead-crm/internal/tools"
	"github.com/xavierca1/lead-crm/internal/usecase"
)

func runMigrate(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}
	logger.Info("schema up to date")
	return nil
}

func runServe(cmd *cobra.Command) error {
	cfg, err := setup(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Infra
	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var (
		events queue.LeadEventPublisher
		broker handlers.BrokerStatus
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()

		events = leadEvents(cfg, rabbitMQ.Ch)
		broker = rabbitMQ

		if cfg.Kommo.Enabled() {
			workerCh, err := rabbitMQ.Conn.Channel()
			if err != nil {
				return fmt.Errorf("open worker channel: %w", err)
			}
			defer workerCh.Close()

			crm := kommo.NewClient(cfg.Kommo.BaseURL, cfg.Kommo.APIToken, cfg.Kommo.StatusID, logger.Named("kommo"))
			worker := queue.NewWorker(workerCh, crm, logger.Named("worker"))
			go func() {
				if err := worker.Start(ctx, queue.QueueName); err != nil {
					logger.Error("lead sync worker exited", zap.Error(err))
				}
			}()
		} else {
			logger.Warn("Kommo not configured; lead events disabled")
		}
	} else {
		logger.Warn("RABBITMQ_URL not set; lead events disabled")
	}

	// 2. Repositories
	leadRepo := database.NewLeadRepository(db)
	sessionRepo := database.NewSessionRepository(db)

	// 3. Use cases
	leadUC := usecase.NewLeadUseCase(leadRepo, events, logger.Named("leads"))
	analyticsUC := usecase.NewAnalyticsUseCase(leadRepo, leadRepo)
	exportUC := usecase.NewExportUseCase(leadRepo)

	// 4. Assistant
	openaiCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		openaiCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	orchestrator := chat.NewOrchestrator(
		openai.NewClientWithConfig(openaiCfg),
		tools.NewExecutor(leadUC, logger.Named("tools")),
		assistantSettings(cfg.Assistant),
		logger.Named("chat"),
	)

	// 5. HTTP
	router := newRouter(routerDeps{
		Config:    cfg,
		Sessions:  sessionRepo,
		Limiter:   middleware.NewRateLimiter(ctx, cfg.ChatRatePerMinute, cfg.ChatRateBurst),
		Chat:      handlers.NewChatHandler(orchestrator, logger.Named("http")),
		Leads:     handlers.NewLeadHandler(leadUC, logger.Named("http")),
		Analytics: handlers.NewAnalyticsHandler(analyticsUC, logger.Named("http")),
		Export:    handlers.NewExportHandler(exportUC, logger.Named("http")),
		Health:    handlers.NewHealthHandler(db, broker, cfg.Version),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// chat turns may take two model round-trips
		WriteTimeout: 2*assistantSettings(cfg.Assistant).Timeout + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// leadEvents returns a publisher only when the Kommo sync worker consumes the queue.
func leadEvents(cfg *config.Config, ch *amqp.Channel) queue.LeadEventPublisher {
	if !cfg.Kommo.Enabled() {
		return nil
	}
	return queue.NewProducer(ch)
}

func assistantSettings(p config.AssistantProfile) chat.Settings {
	s := chat.DefaultSettings()
	if p.Model != "" {
		s.Model = p.Model
	}
	if p.Temperature != nil {
		s.Temperature = *p.Temperature
	}
	if p.MaxTokens > 0 {
		s.MaxTokens = p.MaxTokens
	}
	if p.Timeout > 0 {
		s.Timeout = p.Timeout
	}
	if p.ToolConcurrency > 0 {
		s.ToolConcurrency = p.ToolConcurrency
	}
	if p.SystemPrompt != "" {
		s.SystemPrompt = p.SystemPrompt
	}
	return s
}

type routerDeps struct {
	Config    *config.Config
	Sessions  entity.SessionRepositoryInterface
	Limiter   *middleware.RateLimiter
	Chat      *handlers.ChatHandler
	Leads     *handlers.LeadHandler
	Analytics *handlers.AnalyticsHandler
	Export    *handlers.ExportHandler
	Health    *handlers.HealthHandler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", d.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.Sessions, logger.Named("auth")))

		r.With(middleware.RateLimit(d.Limiter)).Post("/chat", d.Chat.Handle)

		r.Get("/leads", d.Leads.List)
		r.Post("/leads", d.Leads.Create)
		r.Get("/leads/{id}", d.Leads.Get)
		r.Put("/leads/{id}", d.Leads.Update)
		r.Delete("/leads/{id}", d.Leads.Delete)

		r.Get("/analytics", d.Analytics.Handle)
		r.Get("/export", d.Export.Handle)
	})

	return r
}
