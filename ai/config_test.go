package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.BaseURL)
	assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.Dimensions)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderOpenAI),
			WithAPIKey("sk-test"),
			WithBaseURL("http://localhost:11434"),
			WithEmbeddingModel("nomic-embed-text"),
			WithDimensions(384),
			WithTimeout(time.Second),
		)

		assert.Equal(t, ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "http://localhost:11434", cfg.BaseURL)
		assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
		assert.Equal(t, 384, cfg.Dimensions)
		assert.Equal(t, time.Second, cfg.Timeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name      string
		provider  Provider
		baseURL   string
		wantURL   string
		wantModel string
	}{
		{"gemini trailing slash", ProviderGemini, "https://example.test/v1beta/", "https://example.test/v1beta", "text-embedding-004"},
		{"gemini empty gets default", ProviderGemini, "", DefaultGeminiBaseURL, "text-embedding-004"},
		{"openai adds v1", ProviderOpenAI, "http://localhost:11434", "http://localhost:11434/v1", ""},
		{"openai trailing slash", ProviderOpenAI, "http://localhost:11434/", "http://localhost:11434/v1", ""},
		{"openai keeps v1", ProviderOpenAI, "http://localhost:11434/v1", "http://localhost:11434/v1", ""},
		{"empty provider is gemini", "", "", DefaultGeminiBaseURL, "text-embedding-004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, BaseURL: tt.baseURL}
			cfg.Normalize()
			assert.Equal(t, tt.wantURL, cfg.BaseURL)
			assert.Equal(t, tt.wantModel, cfg.EmbeddingModel)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name: "valid gemini",
			cfg:  NewConfig(WithAPIKey("key")),
		},
		{
			name:    "gemini without key",
			cfg:     NewConfig(),
			wantErr: "APIKey is required",
		},
		{
			name: "openai without key is allowed",
			cfg:  NewConfig(WithProvider(ProviderOpenAI), WithBaseURL("http://localhost:11434"), WithEmbeddingModel("m")),
		},
		{
			name:    "openai without host",
			cfg:     NewConfig(WithProvider(ProviderOpenAI), WithBaseURL(""), WithEmbeddingModel("m")),
			wantErr: "BaseURL is required",
		},
		{
			name:    "openai without model",
			cfg:     NewConfig(WithProvider(ProviderOpenAI), WithBaseURL("http://h"), WithEmbeddingModel("")),
			wantErr: "EmbeddingModel is required",
		},
		{
			name:    "unknown provider",
			cfg:     NewConfig(WithProvider("cohere")),
			wantErr: "unknown provider",
		},
		{
			name:    "negative dimensions",
			cfg:     NewConfig(WithAPIKey("k"), WithDimensions(-1)),
			wantErr: "Dimensions",
		},
		{
			name:    "negative timeout",
			cfg:     NewConfig(WithAPIKey("k"), WithTimeout(-time.Second)),
			wantErr: "Timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_Normalizes(t *testing.T) {
	cfg := NewConfig(WithProvider(ProviderOpenAI), WithBaseURL("http://localhost:9100/"), WithEmbeddingModel("m"))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:9100/v1", cfg.BaseURL)
}
