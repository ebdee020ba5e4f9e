package ingestion

import (
	"context"

	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/storage"
)

// threadRef is the part of a thread ingestion reads and writes back.
type threadRef struct {
	id    string
	count int
}

// resolveThread returns the user's most recently created email thread,
// creating an empty open one when none exists.
func (p *Pipeline) resolveThread(ctx context.Context, userID string) (threadRef, error) {
	rows, err := p.store.Select(ctx, core.TableThreads, storage.Query{
		Columns: []string{"id", "message_count"},
		Filters: []storage.Filter{
			storage.Eq("user_id", userID),
			storage.Eq("topic", core.DefaultTopic),
		},
		Order: []storage.Order{storage.Desc("created_at")},
		Limit: 1,
	})
	if err != nil {
		return threadRef{}, err
	}
	if len(rows) > 0 {
		return threadRef{id: rows[0].String("id"), count: rows[0].Int("message_count")}, nil
	}

	now := p.clock.Now().UTC()
	thread := core.ConversationThread{
		ID:           core.NewID(),
		UserID:       userID,
		Topic:        core.DefaultTopic,
		State:        core.ThreadStateOpen,
		MessageCount: 0,
		CreatedAt:    now,
		LastUpdated:  now,
	}
	if err := core.ValidateThread(&thread); err != nil {
		return threadRef{}, err
	}
	row, err := storage.ToRow(thread)
	if err != nil {
		return threadRef{}, err
	}
	if _, err := p.store.Insert(ctx, core.TableThreads, row, false); err != nil {
		return threadRef{}, err
	}
	p.logger.Debug("created thread", "thread_id", thread.ID, "user_id", userID)
	return threadRef{id: thread.ID}, nil
}

// touchThread writes back the incremented counter read by resolveThread.
// The read and this write are not atomic.
func (p *Pipeline) touchThread(ctx context.Context, thread threadRef) error {
	return p.store.Patch(ctx, core.TableThreads,
		[]storage.Filter{storage.Eq("id", thread.id)},
		storage.Row{
			"message_count": thread.count + 1,
			"last_updated":  p.clock.Now().UTC(),
		})
}

// storeEmbedding upserts the message's vector keyed by message id.
func (p *Pipeline) storeEmbedding(ctx context.Context, messageID string, vector []float32) error {
	row, err := storage.ToRow(core.MessageEmbedding{MessageID: messageID, Embedding: vector})
	if err != nil {
		return err
	}
	_, err = p.store.Upsert(ctx, core.TableEmbeddings, row, "message_id")
	return err
}
