package reembed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/storage"
	"github.com/poiesic/mailroom/storage/badger"
	"github.com/poiesic/mailroom/storage/storagetest"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *storagetest.Store {
	t.Helper()
	inner, err := badger.NewMemoryStore()
	require.NoError(t, err)
	st := storagetest.Wrap(inner)
	t.Cleanup(func() { st.Close() })
	return st
}

// seedMessages stores n inbound messages for userID, one minute apart.
func seedMessages(t *testing.T, st storage.Store, userID string, n int) []core.Message {
	t.Helper()
	msgs := make([]core.Message, n)
	for i := range msgs {
		msgs[i] = core.Message{
			ID:        core.NewID(),
			UserID:    userID,
			ThreadID:  "thread-" + userID,
			Direction: core.DirectionInbound,
			RawText:   fmt.Sprintf("%s message %d", userID, i),
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
		}
		row, err := storage.ToRow(msgs[i])
		require.NoError(t, err)
		_, err = st.Insert(context.Background(), core.TableMessages, row, false)
		require.NoError(t, err)
	}
	return msgs
}

func seedEmbedding(t *testing.T, st storage.Store, messageID string, vector []float32) {
	t.Helper()
	row, err := storage.ToRow(core.MessageEmbedding{MessageID: messageID, Embedding: vector})
	require.NoError(t, err)
	_, err = st.Upsert(context.Background(), core.TableEmbeddings, row, "message_id")
	require.NoError(t, err)
}
