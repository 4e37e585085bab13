package llm

import (
	"context"
	"fmt"

	"meal-plan-generator/internal/config"
)

const defaultTemperature = 0.7

// NewClient returns the client for the configured provider.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case config.ProviderGroq:
		return NewGroqClient(cfg, defaultTemperature), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
