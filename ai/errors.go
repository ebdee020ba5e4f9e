package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse indicates the provider answered without a vector.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrUnknownProvider indicates an unsupported Config.Provider.
	ErrUnknownProvider = errors.New("ai config: unknown provider")

	// ErrEmptyText indicates an embedding was requested for empty text.
	ErrEmptyText = errors.New("text is empty")
)

// EmbeddingError reports a failed embedding request.
type EmbeddingError struct {
	Model  string
	Status int
	Body   string
	Err    error
}

func (e *EmbeddingError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("embedding %s: %d %s", e.Model, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("embedding %s: %v", e.Model, e.Err)
	default:
		return fmt.Sprintf("embedding %s: failed", e.Model)
	}
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
