// Package llm provides the language model clients used to turn OCR text into
// event listings, and the prompt that asks for them.
package llm

import (
	"fmt"

	"github.com/spherical/calendar-extractor/internal/config"
	"github.com/spherical/calendar-extractor/internal/domain"
)

var (
	_ domain.LMClient = (*OllamaClient)(nil)
	_ domain.LMClient = (*OpenRouterClient)(nil)
)

// New builds the client for the configured provider.
func New(cfg config.LLMConfig) (domain.LMClient, error) {
	retry := &RetryConfig{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = initialBackoff
	}
	if retry.MaxBackoff <= 0 {
		retry.MaxBackoff = maxBackoff
	}

	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaClient(cfg.OllamaHost, retry), nil
	case config.ProviderOpenRouter:
		if cfg.APIKey == "" {
			return nil, domain.ConfigError("OPENROUTER_API_KEY environment variable not set", nil)
		}
		return NewOpenRouterClient(cfg.APIKey, cfg.OpenRouterURL, retry), nil
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown llm provider %q", cfg.Provider), nil)
	}
}
