package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/mailroom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageIterator_ForEachBatches(t *testing.T) {
	st := newTestStore(t)
	seeded := seedMessages(t, st, "alice", 7)

	it := NewMessageIterator(st, 3, "")
	var sizes []int
	var seen []string
	err := it.ForEach(context.Background(), func(batch []core.Message) error {
		sizes = append(sizes, len(batch))
		for _, m := range batch {
			seen = append(seen, m.ID)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 1}, sizes)
	require.Len(t, seen, len(seeded))
	for i, m := range seeded {
		assert.Equal(t, m.ID, seen[i], "messages visited in timestamp order")
	}
}

func TestMessageIterator_ExactMultipleStops(t *testing.T) {
	st := newTestStore(t)
	seedMessages(t, st, "alice", 4)

	batches := 0
	err := NewMessageIterator(st, 2, "").ForEach(context.Background(), func(batch []core.Message) error {
		batches++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
}

func TestMessageIterator_FiltersByUser(t *testing.T) {
	st := newTestStore(t)
	seedMessages(t, st, "alice", 3)
	seedMessages(t, st, "bob", 2)

	it := NewMessageIterator(st, 10, "bob")
	count, err := it.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	err = it.ForEach(context.Background(), func(batch []core.Message) error {
		for _, m := range batch {
			assert.Equal(t, "bob", m.UserID)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestMessageIterator_Empty(t *testing.T) {
	st := newTestStore(t)

	called := false
	err := NewMessageIterator(st, 0, "").ForEach(context.Background(), func([]core.Message) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestMessageIterator_StopsOnCallbackError(t *testing.T) {
	st := newTestStore(t)
	seedMessages(t, st, "alice", 5)

	boom := errors.New("boom")
	batches := 0
	err := NewMessageIterator(st, 2, "").ForEach(context.Background(), func([]core.Message) error {
		batches++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, batches)
}

func TestMessageIterator_Cancelled(t *testing.T) {
	st := newTestStore(t)
	seedMessages(t, st, "alice", 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMessageIterator(st, 2, "").ForEach(ctx, func([]core.Message) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
