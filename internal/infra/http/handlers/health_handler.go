package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BrokerStatus is satisfied by *queue.RabbitMQ.
type BrokerStatus interface {
	IsClosed() bool
}

type HealthHandler struct {
	DB        Pinger
	Broker    BrokerStatus
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler builds the health check. broker may be nil when no broker is configured.
func NewHealthHandler(db Pinger, broker BrokerStatus, version string) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		Broker:    broker,
		Version:   version,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		deps["database"] = "unhealthy"
		status = "degraded"
	} else {
		deps["database"] = "healthy"
	}

	switch {
	case h.Broker == nil:
		deps["rabbitmq"] = "not configured"
	case h.Broker.IsClosed():
		deps["rabbitmq"] = "unhealthy: connection closed"
		status = "degraded"
	default:
		deps["rabbitmq"] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
