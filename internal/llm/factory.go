package llm

import (
	"context"
	"fmt"

	"mailtriage/pkg/config"
)

const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Providers lists the supported backend names.
var Providers = []string{ProviderOllama, ProviderAnthropic, ProviderGemini}

// New builds the backend generator selected by cfg.Provider from that
// provider's section, without any decorators.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		b := cfg.Ollama
		return NewOllamaGenerator(b.BaseURL, b.Model, cfg.Timeout), nil
	case ProviderAnthropic:
		b := cfg.Anthropic
		return NewAnthropicGenerator(b.APIKey, b.BaseURL, b.Model, b.MaxTokens, cfg.Timeout), nil
	case ProviderGemini:
		b := cfg.Gemini
		return NewGeminiGenerator(ctx, b.APIKey, b.BaseURL, b.Model, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// ModelName is the model New will call for cfg, with backend defaults
// applied. It returns "" for an unknown provider.
func ModelName(cfg config.LLMConfig) string {
	active := cfg.Active()
	if active == nil {
		return ""
	}
	if active.Model != "" {
		return active.Model
	}
	switch cfg.Provider {
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return DefaultOllamaModel
	}
}
