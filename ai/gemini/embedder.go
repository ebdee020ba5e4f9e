// Package gemini implements ai.Embedder against the Gemini embedContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/mailroom/ai"
	"github.com/poiesic/mailroom/core"
)

const maxErrorBodySize = 4096

// Embedder implements ai.Embedder using the Gemini REST API.
type Embedder struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	config     *ai.Config
	logger     *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Embedder) {
		if hc != nil {
			e.httpClient = hc
		}
	}
}

// WithLogger sets the logger for the embedder.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

type embedRequest struct {
	Content content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding *struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// NewEmbedder creates a Gemini embedder bound to config.EmbeddingModel.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, opts ...Option) (ai.Embedder, error) {
	return newEmbedder(config, opts...)
}

func newEmbedder(config *ai.Config, opts ...Option) (*Embedder, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderGemini {
		return nil, fmt.Errorf("%w: gemini embedder given %q", ai.ErrUnknownProvider, config.Provider)
	}

	model := strings.TrimPrefix(config.EmbeddingModel, "models/")
	e := &Embedder{
		endpoint:   config.BaseURL + "/models/" + model + ":embedContent",
		apiKey:     config.APIKey,
		model:      model,
		dimensions: config.Dimensions,
		httpClient: &http.Client{},
		config:     config,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "gemini-embedder", "model", model)
	return e, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &ai.EmbeddingError{Model: e.model, Err: ai.ErrEmptyText}
	}
	e.logger.Debug("generating embedding", "length", len(text), "fingerprint", core.Fingerprint(text))

	payload, err := json.Marshal(embedRequest{Content: content{Parts: []part{{Text: text}}}})
	if err != nil {
		return nil, &ai.EmbeddingError{Model: e.model, Err: err}
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ai.EmbeddingError{Model: e.model, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Error("embedding request failed", "err", err)
		return nil, &ai.EmbeddingError{Model: e.model, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ai.EmbeddingError{Model: e.model, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Error("embedding request rejected", "status", resp.StatusCode)
		return nil, &ai.EmbeddingError{
			Model:  e.model,
			Status: resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(body))),
		}
	}

	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ai.EmbeddingError{Model: e.model, Err: fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)}
	}
	if out.Embedding == nil || out.Embedding.Values == nil {
		return nil, &ai.EmbeddingError{Model: e.model, Err: fmt.Errorf("%w: missing embedding.values", ai.ErrMalformedResponse)}
	}

	return ai.FitDimensions(out.Embedding.Values, e.dimensions), nil
}

func truncate(s string) string {
	if len(s) <= maxErrorBodySize {
		return s
	}
	return s[:maxErrorBodySize]
}
