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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/mailroom/ai"
	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/storage"
)

// Config holds configuration for a repair run.
type Config struct {
	// BatchSize is the number of messages to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of messages)
	ReportInterval int

	// UserID restricts the run to one user's messages when non-empty
	UserID string

	// Force re-embeds every message, not only those missing a vector
	Force bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
	}
}

// Reembedder fills in missing message embeddings.
type Reembedder struct {
	store    storage.Store
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	iterator *MessageIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(store storage.Store, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		store:    store,
		embedder: embedder,
		config:   config,
		progress: progress,
		iterator: NewMessageIterator(store, config.BatchSize, config.UserID),
	}, nil
}

// Run scans stored messages and embeds those without a vector.
// The first failure aborts the run; the partial report is returned with it.
func (r *Reembedder) Run(ctx context.Context) (*Report, error) {
	total, err := r.iterator.Count(ctx)
	if err != nil {
		return &Report{}, fmt.Errorf("count messages: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No messages found (0 messages)\n")
		return &Report{}, nil
	}

	fmt.Fprintf(r.progress, "Scanning %d messages (batch size: %d)\n", total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(batch []core.Message) error {
		pending, err := r.pending(ctx, batch)
		if err != nil {
			return fmt.Errorf("load embeddings: %w", err)
		}
		tracker.Record(Report{Missing: len(pending)})

		for _, msg := range pending {
			if err := r.repair(ctx, msg); err != nil {
				return fmt.Errorf("message %s: %w", msg.ID, err)
			}
			tracker.Record(Report{Repaired: 1})
		}

		tracker.Record(Report{Scanned: len(batch)})
		return nil
	})
	elapsed := tracker.Elapsed()
	report := tracker.Finish()
	if err != nil {
		return &report, err
	}

	fmt.Fprintf(r.progress, "Repair complete. Scanned %d messages, embedded %d in %v\n",
		report.Scanned, report.Repaired, elapsed.Round(time.Millisecond))

	return &report, nil
}

// pending returns the messages in batch that need a vector.
func (r *Reembedder) pending(ctx context.Context, batch []core.Message) ([]core.Message, error) {
	if r.config.Force {
		return batch, nil
	}

	ids := make([]string, len(batch))
	for i, msg := range batch {
		ids[i] = msg.ID
	}
	rows, err := r.store.Select(ctx, core.TableEmbeddings, storage.Query{
		Columns: []string{"message_id"},
		Filters: []storage.Filter{storage.In("message_id", ids...)},
	})
	if err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		have[row.String("message_id")] = struct{}{}
	}

	var missing []core.Message
	for _, msg := range batch {
		if _, ok := have[msg.ID]; !ok {
			missing = append(missing, msg)
		}
	}
	return missing, nil
}

func (r *Reembedder) repair(ctx context.Context, msg core.Message) error {
	vector, err := r.embedder.EmbedText(ctx, msg.RawText)
	if err != nil {
		return fmt.Errorf("embed message: %w", err)
	}
	row, err := storage.ToRow(core.MessageEmbedding{MessageID: msg.ID, Embedding: vector})
	if err != nil {
		return err
	}
	if _, err := r.store.Upsert(ctx, core.TableEmbeddings, row, "message_id"); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}
