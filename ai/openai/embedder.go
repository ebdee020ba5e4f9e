package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/mailroom/ai"
	"github.com/poiesic/mailroom/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder   embeddings.Embedder
	model      string
	dimensions int
	config     *ai.Config
	logger     *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config, logger *slog.Logger) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderOpenAI {
		return nil, fmt.Errorf("%w: openai embedder given %q", ai.ErrUnknownProvider, config.Provider)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Local OpenAI-compatible services don't require authentication
	token := config.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:   embedder,
		model:      config.EmbeddingModel,
		dimensions: config.Dimensions,
		config:     config,
		logger:     logger.With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
// A nil logger uses slog.Default.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, logger *slog.Logger) (ai.Embedder, error) {
	return newEmbedder(config, logger)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &ai.EmbeddingError{Model: e.model, Err: ai.ErrEmptyText}
	}
	e.logger.Debug("generating embedding", "length", len(text), "fingerprint", core.Fingerprint(text))

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, &ai.EmbeddingError{Model: e.model, Err: err}
	}

	if len(vectors) == 0 || vectors[0] == nil {
		e.logger.Warn("embedder returned empty result")
		return nil, &ai.EmbeddingError{Model: e.model, Err: ai.ErrMalformedResponse}
	}

	return ai.FitDimensions(vectors[0], e.dimensions), nil
}
