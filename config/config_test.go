package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/mailroom/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_KEY", "GEMINI_API_KEY",
	"TIMEOUT_SECONDS", "EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_HOST",
	"STORE", "BADGER_PATH", "INTAKE_ADDR", "OPENAI_API_KEY",
}

// clearEnv empties every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, ai.ProviderGemini, cfg.EmbeddingProvider)
	assert.Equal(t, 768, cfg.EmbeddingDimensions)
	assert.Equal(t, StoreREST, cfg.Store)
	assert.Equal(t, ":8080", cfg.IntakeAddr)
	assert.NotEmpty(t, cfg.BadgerPath)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co/")
	t.Setenv("SUPABASE_KEY", "anon-fallback")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("TIMEOUT_SECONDS", "3")
	t.Setenv("STORE", "BADGER")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://proj.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "anon-fallback", cfg.ServiceKey)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, StoreBadger, cfg.Store)

	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "service", cfg.ServiceKey)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even empty ones
	for _, k := range []string{"SUPABASE_URL", "GEMINI_API_KEY"} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("GEMINI_API_KEY")
	})

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SUPABASE_URL=https://file.example\nGEMINI_API_KEY=from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example", cfg.SupabaseURL)
	assert.Equal(t, "from-file", cfg.GeminiAPIKey)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func TestLoad_BadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEOUT_SECONDS", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEOUT_SECONDS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"rest complete", Config{Store: StoreREST, SupabaseURL: "u", ServiceKey: "k", EmbeddingProvider: ai.ProviderGemini, GeminiAPIKey: "g"}, ""},
		{"rest without url", Config{Store: StoreREST, ServiceKey: "k", EmbeddingProvider: ai.ProviderGemini, GeminiAPIKey: "g"}, "SUPABASE_URL"},
		{"rest without key", Config{Store: StoreREST, SupabaseURL: "u", EmbeddingProvider: ai.ProviderGemini, GeminiAPIKey: "g"}, "SUPABASE_SERVICE_ROLE_KEY"},
		{"badger", Config{Store: StoreBadger, BadgerPath: "/tmp/x", EmbeddingProvider: ai.ProviderGemini, GeminiAPIKey: "g"}, ""},
		{"unknown store", Config{Store: "mongo"}, "STORE"},
		{"gemini without key", Config{Store: StoreBadger, BadgerPath: "p", EmbeddingProvider: ai.ProviderGemini}, "GEMINI_API_KEY"},
		{"openai without host", Config{Store: StoreBadger, BadgerPath: "p", EmbeddingProvider: ai.ProviderOpenAI, EmbeddingModel: "m"}, "EMBEDDING_HOST"},
		{"openai without model", Config{Store: StoreBadger, BadgerPath: "p", EmbeddingProvider: ai.ProviderOpenAI, EmbeddingHost: "h"}, "EMBEDDING_MODEL"},
		{"unknown provider", Config{Store: StoreBadger, BadgerPath: "p", EmbeddingProvider: "cohere"}, "EMBEDDING_PROVIDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAI(t *testing.T) {
	cfg := &Config{
		EmbeddingProvider:   ai.ProviderGemini,
		GeminiAPIKey:        "g",
		EmbeddingDimensions: 768,
		Timeout:             5 * time.Second,
	}
	aiCfg := cfg.AI()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "g", aiCfg.APIKey)
	assert.Equal(t, ai.DefaultGeminiBaseURL, aiCfg.BaseURL)
	assert.Equal(t, "text-embedding-004", aiCfg.EmbeddingModel)
	assert.Equal(t, 5*time.Second, aiCfg.Timeout)

	cfg = &Config{
		EmbeddingProvider: ai.ProviderOpenAI,
		EmbeddingHost:     "http://localhost:11434",
		EmbeddingModel:    "nomic-embed-text",
	}
	aiCfg = cfg.AI()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", aiCfg.BaseURL)
	assert.Equal(t, "nomic-embed-text", aiCfg.EmbeddingModel)
}
