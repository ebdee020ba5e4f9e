package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Each call is one synchronous request; nothing is cached or retried.
	// Failures are reported as *EmbeddingError.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
