package mailroom

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/mailroom/ai/mock"
	"github.com/poiesic/mailroom/config"
	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/ingestion"
	"github.com/poiesic/mailroom/reembed"
	"github.com/poiesic/mailroom/storage"
	"github.com/poiesic/mailroom/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badgerConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store:      config.StoreBadger,
		BadgerPath: filepath.Join(t.TempDir(), "db"),
	}
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		svc, err := New(nil)
		assert.ErrorIs(t, err, ErrConfigRequired)
		assert.Nil(t, svc)
	})

	t.Run("badger store with injected embedder", func(t *testing.T) {
		svc, err := New(badgerConfig(t), WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		defer svc.Close()

		assert.NotNil(t, svc.Store())
		assert.NotNil(t, svc.Embedder())
		assert.NotNil(t, svc.Pipeline())
	})

	t.Run("rest store requires url", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreREST}
		_, err := New(cfg, WithEmbedder(mock.NewMockEmbedder()))
		assert.ErrorIs(t, err, config.ErrMissingEnv)
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := New(&config.Config{Store: "sqlite"}, WithEmbedder(mock.NewMockEmbedder()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("missing embedding key", func(t *testing.T) {
		cfg := badgerConfig(t)
		cfg.EmbeddingProvider = "gemini"
		_, err := New(cfg)
		assert.ErrorIs(t, err, config.ErrMissingEnv)
	})

	t.Run("badger path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(path, []byte("test"), 0644))

		cfg := &config.Config{Store: config.StoreBadger, BadgerPath: path}
		svc, err := New(cfg, WithEmbedder(mock.NewMockEmbedder()))
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
}

func TestService_InjectedStoreNotClosed(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	svc, err := New(&config.Config{}, WithStore(store), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	_, err = store.Select(context.Background(), core.TableMessages, storage.Query{})
	assert.NoError(t, err, "caller-owned store stays open")
}

func TestService_EndToEnd(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	embedder := mock.NewMockEmbedder()
	svc, err := New(&config.Config{}, WithStore(store), WithEmbedder(embedder))
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	userID := core.NewID()
	require.NoError(t, svc.Pipeline().IngestEmail(ctx, userID, "hello there", "ext-1"))

	batch, err := svc.NewBatch(ingestion.WithPoolSize(2))
	require.NoError(t, err)
	defer batch.Release()

	input := `{"user_id":"` + userID + `","text":"second","external_id":"ext-2"}` + "\n" +
		`{"user_id":"` + userID + `","text":"hello there","external_id":"ext-1"}` + "\n"
	result, err := batch.Run(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)

	msgs, err := store.Select(ctx, core.TableMessages, storage.Query{})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	r, err := svc.NewReembedder(&reembed.Config{BatchSize: 10}, nil)
	require.NoError(t, err)
	report, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Zero(t, report.Missing)
}
