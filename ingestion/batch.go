package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// ErrMalformedLine marks a batch line that is not a valid item.
var ErrMalformedLine = errors.New("malformed batch line")

const maxLineSize = 4 * 1024 * 1024

// BatchItem is one line of a batch stream.
type BatchItem struct {
	UserID     string `json:"user_id"`
	Text       string `json:"text"`
	ExternalID string `json:"external_id,omitempty"`
}

// ItemError reports a failed batch line.
type ItemError struct {
	Line   int
	UserID string
	Err    error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Errors    []ItemError
}

// Batch runs many ingestions over a worker pool.
// Messages of one user run in input order on a single worker; different
// users run concurrently. Failed items are collected, never retried.
type Batch struct {
	pipeline *Pipeline
	pool     *ants.Pool
	logger   *slog.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*Batch) error

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) BatchOption {
	return func(b *Batch) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if b.pool != nil {
			b.pool.Release()
		}
		b.pool = pool
		return nil
	}
}

// WithBatchLogger sets a custom logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *Batch) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBatch creates a batch runner around pipeline.
func NewBatch(pipeline *Pipeline, opts ...BatchOption) (*Batch, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		pipeline: pipeline,
		pool:     pool,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			b.Release()
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "ingestion-batch")
	return b, nil
}

// Release releases the worker pool.
// The batch should not be used after calling Release.
func (b *Batch) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

type lineItem struct {
	line int
	item BatchItem
}

// Run reads a JSONL stream of BatchItems from r and ingests every item.
// Blank lines are ignored. Malformed lines are reported in the result.
// The returned error is set only when r cannot be read.
func (b *Batch) Run(ctx context.Context, r io.Reader) (*BatchResult, error) {
	result := &BatchResult{}
	var order []string
	byUser := make(map[string][]lineItem)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		result.Total++

		var item BatchItem
		if err := json.Unmarshal(raw, &item); err != nil {
			result.addError(ItemError{Line: line, Err: fmt.Errorf("%w: %w", ErrMalformedLine, err)})
			continue
		}
		if _, seen := byUser[item.UserID]; !seen {
			order = append(order, item.UserID)
		}
		byUser[item.UserID] = append(byUser[item.UserID], lineItem{line: line, item: item})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}

	b.logger.Info("starting batch", "items", result.Total, "users", len(order))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, userID := range order {
		items := byUser[userID]
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			for _, li := range items {
				err := ctx.Err()
				if err == nil {
					err = b.pipeline.IngestMessage(ctx, li.item.UserID, li.item.Text, li.item.ExternalID)
				}
				mu.Lock()
				if err != nil {
					result.addError(ItemError{Line: li.line, UserID: userID, Err: err})
				} else {
					result.Succeeded++
				}
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			for _, li := range items {
				result.addError(ItemError{Line: li.line, UserID: userID, Err: err})
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	b.logger.Info("batch complete",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed)
	return result, nil
}

func (r *BatchResult) addError(e ItemError) {
	r.Failed++
	r.Errors = append(r.Errors, e)
}
