package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type OpenAI struct {
	APIKey  string
	BaseURL string
}

// AssistantProfile tunes the chat assistant. Zero values fall back to the built-in defaults.
type AssistantProfile struct {
	Model           string        `yaml:"model"`
	Temperature     *float32      `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	ToolConcurrency int           `yaml:"tool_concurrency"`
	SystemPrompt    string        `yaml:"system_prompt"`
}

type Kommo struct {
	BaseURL  string
	APIToken string
	StatusID int
}

func (k Kommo) Enabled() bool {
	return k.APIToken != "" && k.BaseURL != ""
}

type Config struct {
	Env            string
	Port           string
	Version        string
	DatabaseURL    string
	RabbitMQURL    string
	AllowedOrigins []string

	OpenAI    OpenAI
	Assistant AssistantProfile

	ChatRatePerMinute int
	ChatRateBurst     int

	Kommo Kommo
}

func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads .env (if present) and the environment. requireModel is false for
// commands that never call the model, such as migrate.
func Load(requireModel bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "production"),
		Port:           getEnv("PORT", "8080"),
		Version:        getEnv("APP_VERSION", "dev"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		OpenAI: OpenAI{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Kommo: Kommo{
			BaseURL:  os.Getenv("KOMMO_BASE_URL"),
			APIToken: os.Getenv("KOMMO_API_TOKEN"),
		},
	}

	var errs []error
	var err error

	if cfg.ChatRatePerMinute, err = getInt("CHAT_RATE_LIMIT_PER_MINUTE", 20); err != nil {
		errs = append(errs, err)
	}
	if cfg.ChatRateBurst, err = getInt("CHAT_RATE_LIMIT_BURST", 5); err != nil {
		errs = append(errs, err)
	}
	if cfg.Kommo.StatusID, err = getInt("KOMMO_STATUS_ID", 0); err != nil {
		errs = append(errs, err)
	}

	if path := os.Getenv("ASSISTANT_PROFILE"); path != "" {
		profile, err := LoadProfile(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Assistant = *profile
		}
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Assistant.Model = model
	}
	if raw := os.Getenv("MODEL_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("MODEL_TIMEOUT: %w", err))
		}
		cfg.Assistant.Timeout = d
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if requireModel && cfg.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// LoadProfile reads an assistant profile from a YAML file.
func LoadProfile(path string) (*AssistantProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assistant profile: %w", err)
	}

	var p AssistantProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse assistant profile %s: %w", path, err)
	}
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		return nil, fmt.Errorf("assistant profile %s: temperature must be between 0 and 2", path)
	}
	return &p, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
