package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-plan-generator/internal/shared"
)

// clearEnv blanks every variable the loader reads so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_MODEL",
		"GROQ_API_KEY", "GROQ_MODEL", "GROQ_API_URL", "PLAN_VALIDATION",
		"LLM_TIMEOUT", "PORT", "CORS_ALLOWED_ORIGINS", "METRICS_DB_PATH",
		"LOG_LEVEL", "LOG_FORMAT", "TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL",
		"TELEGRAM_ALLOWED_USER_IDS",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
		assert.Equal(t, shared.PolicyLenient, cfg.ValidationPolicy)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
		assert.Equal(t, "data/metrics.db", cfg.MetricsDBPath)
		assert.Zero(t, cfg.LLMTimeout)
	})

	t.Run("GoogleAPIKeyFallback", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GOOGLE_API_KEY", "google_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "google_key", cfg.GeminiAPIKey)
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		clearEnv(t)

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "GEMINI_API_KEY environment variable not set", err.Error())
	})

	t.Run("Groq", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "Groq")
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("PLAN_VALIDATION", " Strict ")
		t.Setenv("LLM_TIMEOUT", "45s")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, "groq_key", cfg.GroqAPIKey)
		assert.Equal(t, DefaultGroqModel, cfg.GroqModel)
		assert.Equal(t, shared.PolicyStrict, cfg.ValidationPolicy)
		assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "groq")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "GROQ_API_KEY environment variable not set", err.Error())
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "llamafile")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("UnknownValidationPolicy", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("PLAN_VALIDATION", "paranoid")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PLAN_VALIDATION")
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("LLM_TIMEOUT", "soon")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("TelegramAllowList", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "42, 7")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://plans.example")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []int64{42, 7}, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, []string{"http://localhost:3000", "https://plans.example"}, cfg.CORSAllowedOrigins)
	})

	t.Run("InvalidTelegramAllowList", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "admin")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})
}
