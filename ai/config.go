// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"strings"
	"time"
)

// Provider names an embedding backend.
type Provider string

const (
	// ProviderGemini uses the Gemini embedContent REST API.
	ProviderGemini Provider = "gemini"

	// ProviderOpenAI uses an OpenAI-compatible embeddings API (OpenAI, Ollama, vLLM).
	ProviderOpenAI Provider = "openai"
)

const (
	// DefaultGeminiBaseURL is the Gemini REST API root.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel is the embedding model used when none is configured.
	DefaultGeminiModel = "text-embedding-004"

	// DefaultDimensions is the stored embedding length.
	DefaultDimensions = 768

	// DefaultTimeout bounds a single embedding request.
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the embedding provider.
type Config struct {
	// Provider selects the embedding backend.
	// Default: gemini
	Provider Provider

	// APIKey authenticates against the provider.
	// Required for gemini. Local OpenAI-compatible servers accept any value.
	APIKey string

	// BaseURL is the root of the provider API.
	// Example: "https://generativelanguage.googleapis.com/v1beta", "http://localhost:11434/v1"
	BaseURL string

	// EmbeddingModel is the model identifier bound at construction.
	// Example: "text-embedding-004", "nomic-embed-text"
	EmbeddingModel string

	// Dimensions is the length every returned vector is fitted to.
	// Zero leaves vectors as the provider returned them.
	Dimensions int

	// Timeout bounds each embedding request.
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the embedding backend.
func WithProvider(p Provider) ConfigOption {
	return func(c *Config) {
		c.Provider = p
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets the provider API root.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDimensions sets the fitted vector length.
func WithDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dim
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config for the Gemini embedding API.
// The API key must still be supplied.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGemini,
		BaseURL:        DefaultGeminiBaseURL,
		EmbeddingModel: DefaultGeminiModel,
		Dimensions:     DefaultDimensions,
		Timeout:        DefaultTimeout,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithBaseURL("http://localhost:11434"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Trailing slashes are dropped. OpenAI-compatible hosts get the /v1 suffix
// most servers (Ollama, LocalAI, vLLM) require.
func (c *Config) Normalize() {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" && c.Provider == ProviderGemini {
		c.BaseURL = DefaultGeminiBaseURL
	}
	if c.Provider == ProviderOpenAI && c.BaseURL != "" && !strings.HasSuffix(c.BaseURL, "/v1") {
		c.BaseURL = c.BaseURL + "/v1"
	}
	if c.EmbeddingModel == "" && c.Provider == ProviderGemini {
		c.EmbeddingModel = DefaultGeminiModel
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderGemini:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for gemini")
		}
	case ProviderOpenAI:
	default:
		return ErrUnknownProvider
	}
	if c.BaseURL == "" {
		return errors.New("ai config: BaseURL is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimensions < 0 {
		return errors.New("ai config: Dimensions must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New("ai config: Timeout must not be negative")
	}
	return nil
}
