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

package reembed

import (
	"context"

	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/storage"
)

const (
	// DefaultBatchSize is the default number of messages to fetch in each batch
	DefaultBatchSize = 100
)

// MessageIterator pages over stored messages in timestamp order.
type MessageIterator struct {
	store     storage.Store
	batchSize int
	filters   []storage.Filter
}

// NewMessageIterator creates a new message iterator.
// batchSize: number of messages to fetch in each batch (must be > 0)
// userID: restricts iteration to one user when non-empty
func NewMessageIterator(store storage.Store, batchSize int, userID string) *MessageIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var filters []storage.Filter
	if userID != "" {
		filters = append(filters, storage.Eq("user_id", userID))
	}

	return &MessageIterator{
		store:     store,
		batchSize: batchSize,
		filters:   filters,
	}
}

// Count returns the number of messages the iterator will visit.
func (it *MessageIterator) Count(ctx context.Context) (int, error) {
	rows, err := it.store.Select(ctx, core.TableMessages, storage.Query{
		Columns: []string{"id"},
		Filters: it.filters,
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ForEach iterates over all messages, calling fn for each batch.
// Iteration stops on first error from fn or when all messages are processed.
// Context cancellation is checked between batches.
func (it *MessageIterator) ForEach(ctx context.Context, fn func([]core.Message) error) error {
	for offset := 0; ; offset += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows, err := it.store.Select(ctx, core.TableMessages, storage.Query{
			Filters: it.filters,
			Order:   []storage.Order{storage.Asc("timestamp"), storage.Asc("id")},
			Limit:   it.batchSize,
			Offset:  offset,
		})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		batch := make([]core.Message, len(rows))
		for i, row := range rows {
			if err := storage.FromRow(row, &batch[i]); err != nil {
				return err
			}
		}
		if err := fn(batch); err != nil {
			return err
		}

		if len(rows) < it.batchSize {
			return nil
		}
	}
}
