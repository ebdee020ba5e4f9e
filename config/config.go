// Package config loads mailroom settings from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/mailroom/ai"
)

// ErrMissingEnv indicates a required environment variable is unset.
var ErrMissingEnv = errors.New("missing env var")

// Store backends.
const (
	StoreREST   = "rest"
	StoreBadger = "badger"
)

const (
	defaultTimeoutSeconds = 15
	defaultBadgerPath     = "./mailroom-data"
	defaultIntakeAddr     = ":8080"
)

// Config holds process-wide settings.
type Config struct {
	SupabaseURL string
	ServiceKey  string

	GeminiAPIKey        string
	EmbeddingProvider   ai.Provider
	EmbeddingModel      string
	EmbeddingHost       string
	EmbeddingDimensions int

	Timeout time.Duration

	Store      string
	BadgerPath string
	IntakeAddr string
}

// Load reads envFiles (or .env when none are given, if present) into the
// process environment and builds a Config from it.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("loading env files: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	timeoutSeconds := defaultTimeoutSeconds
	if raw := os.Getenv("TIMEOUT_SECONDS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("TIMEOUT_SECONDS: invalid value %q", raw)
		}
		timeoutSeconds = n
	}

	serviceKey := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	if serviceKey == "" {
		serviceKey = os.Getenv("SUPABASE_KEY")
	}

	return &Config{
		SupabaseURL:         strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		ServiceKey:          serviceKey,
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		EmbeddingProvider:   ai.Provider(strings.ToLower(getEnv("EMBEDDING_PROVIDER", string(ai.ProviderGemini)))),
		EmbeddingModel:      os.Getenv("EMBEDDING_MODEL"),
		EmbeddingHost:       os.Getenv("EMBEDDING_HOST"),
		EmbeddingDimensions: ai.DefaultDimensions,
		Timeout:             time.Duration(timeoutSeconds) * time.Second,
		Store:               strings.ToLower(getEnv("STORE", StoreREST)),
		BadgerPath:          getEnv("BADGER_PATH", defaultBadgerPath),
		IntakeAddr:          getEnv("INTAKE_ADDR", defaultIntakeAddr),
	}, nil
}

// Validate reports the first setting missing for storage or embeddings.
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	return c.ValidateEmbedding()
}

// ValidateStore checks the settings of the selected store backend.
func (c *Config) ValidateStore() error {
	switch c.Store {
	case StoreREST:
		if c.SupabaseURL == "" {
			return fmt.Errorf("%w: SUPABASE_URL", ErrMissingEnv)
		}
		if c.ServiceKey == "" {
			return fmt.Errorf("%w: SUPABASE_SERVICE_ROLE_KEY", ErrMissingEnv)
		}
	case StoreBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("%w: BADGER_PATH", ErrMissingEnv)
		}
	default:
		return fmt.Errorf("STORE: unknown backend %q", c.Store)
	}
	return nil
}

// ValidateEmbedding checks the settings of the selected embedding provider.
func (c *Config) ValidateEmbedding() error {
	switch c.EmbeddingProvider {
	case ai.ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingEnv)
		}
	case ai.ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return fmt.Errorf("%w: EMBEDDING_HOST", ErrMissingEnv)
		}
		if c.EmbeddingModel == "" {
			return fmt.Errorf("%w: EMBEDDING_MODEL", ErrMissingEnv)
		}
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER: %w %q", ai.ErrUnknownProvider, c.EmbeddingProvider)
	}
	return nil
}

// AI returns the embedding provider configuration.
func (c *Config) AI() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithProvider(c.EmbeddingProvider),
		ai.WithDimensions(c.EmbeddingDimensions),
		ai.WithTimeout(c.Timeout),
	}
	switch c.EmbeddingProvider {
	case ai.ProviderOpenAI:
		opts = append(opts, ai.WithBaseURL(c.EmbeddingHost), ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
	default:
		opts = append(opts, ai.WithAPIKey(c.GeminiAPIKey))
		if c.EmbeddingHost != "" {
			opts = append(opts, ai.WithBaseURL(c.EmbeddingHost))
		}
	}
	if c.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(c.EmbeddingModel))
	}
	return ai.NewConfig(opts...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
