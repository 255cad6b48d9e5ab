package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// FactoryConfig holds the parameters needed to create a Generator.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("gemini" or "none").
	Provider string
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
}

// NewGenerator creates a Generator based on the configuration.
//
// A nil Generator with a nil error means generation is disabled, either
// explicitly (provider "none") or because no API key is configured. Callers
// then use their deterministic fallbacks.
func NewGenerator(ctx context.Context, cfg FactoryConfig, recorder RequestRecorder, logger zerolog.Logger) (Generator, error) {
	switch cfg.Provider {
	case "", "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, nil
		}
		g, err := NewGeminiGenerator(ctx, cfg.Gemini, recorder, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
