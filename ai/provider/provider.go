// Package provider builds the ai.Embedder selected by configuration.
package provider

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/mailroom/ai"
	"github.com/poiesic/mailroom/ai/gemini"
	"github.com/poiesic/mailroom/ai/openai"
)

// NewEmbedder returns the embedder named by config.Provider.
// Switch providers by changing the configuration; callers only see ai.Embedder.
func NewEmbedder(config *ai.Config, logger *slog.Logger) (ai.Embedder, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger.Info("embedding provider selected",
		"provider", config.Provider,
		"model", config.EmbeddingModel,
		"dimensions", config.Dimensions)

	switch config.Provider {
	case ai.ProviderGemini:
		return gemini.NewEmbedder(config, gemini.WithLogger(logger))
	case ai.ProviderOpenAI:
		return openai.NewEmbedder(config, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, config.Provider)
	}
}
