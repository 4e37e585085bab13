package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"meal-plan-generator/internal/shared"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultGroqAPIURL  = "https://api.groq.com/openai/v1/chat/completions"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM provider selection
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
	GroqAPIURL   string

	// Pipeline
	ValidationPolicy shared.ValidationPolicy
	LLMTimeout       time.Duration

	// HTTP
	Port               string
	CORSAllowedOrigins []string

	// Storage and logging
	MetricsDBPath string
	LogLevel      string
	LogFormat     string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))

	cfg := &Config{
		LLMProvider:        provider,
		GeminiModel:        getEnv("GEMINI_MODEL", DefaultGeminiModel),
		GroqModel:          getEnv("GROQ_MODEL", DefaultGroqModel),
		GroqAPIURL:         getEnv("GROQ_API_URL", DefaultGroqAPIURL),
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MetricsDBPath:      getEnv("METRICS_DB_PATH", "data/metrics.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	switch provider {
	case ProviderGemini:
		// GOOGLE_API_KEY is accepted as an alias for older deployments.
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.GeminiAPIKey == "" {
			cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
		}
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	policy, err := shared.ParseValidationPolicy(os.Getenv("PLAN_VALIDATION"))
	if err != nil {
		return nil, fmt.Errorf("unsupported PLAN_VALIDATION: %w", err)
	}
	cfg.ValidationPolicy = policy

	if raw := os.Getenv("LLM_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout < 0 {
			return nil, fmt.Errorf("invalid LLM_TIMEOUT %q", raw)
		}
		cfg.LLMTimeout = timeout
	}

	for _, raw := range splitList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", raw, err)
		}
		cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
