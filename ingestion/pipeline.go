package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/mailroom/ai"
	"github.com/poiesic/mailroom/audit"
	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/storage"
)

// Audit trail values recorded for every failed ingestion.
const (
	AgentType       = "ingestion"
	ErrorID         = "INGEST_FAIL"
	UserFacingError = "Ingestion failed."
)

// auditTimeout bounds the audit write made after a failure. The write does
// not inherit the caller's cancellation, so a cancelled ingestion is still
// recorded.
const auditTimeout = 5 * time.Second

// Pipeline ingests messages into threads.
// It is safe for concurrent use; concurrent calls for the same user are not
// coordinated and may lose a thread counter increment.
type Pipeline struct {
	store    storage.Store
	embedder ai.Embedder
	audit    audit.Recorder
	clock    core.Clock
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithClock sets the clock used for timestamps.
// Default is core.SystemClock.
func WithClock(clock core.Clock) Option {
	return func(p *Pipeline) error {
		if clock == nil {
			clock = core.SystemClock{}
		}
		p.clock = clock
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store storage.Store,
	embedder ai.Embedder,
	recorder audit.Recorder,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if recorder == nil {
		return nil, ErrAuditLoggerRequired
	}

	p := &Pipeline{
		store:    store,
		embedder: embedder,
		audit:    recorder,
		clock:    core.SystemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// IngestEmail ingests an inbound email body for userID.
// An empty externalID means the producer supplied none.
func (p *Pipeline) IngestEmail(ctx context.Context, userID, text, externalID string) error {
	return p.IngestMessage(ctx, userID, text, externalID)
}

// IngestMessage stores text as an inbound message on the user's email thread.
//
// Empty text is a no-op. A message whose externalID is already stored is
// skipped without writes. On failure the error is recorded in the audit
// trail and returned; writes made before the failure are kept.
func (p *Pipeline) IngestMessage(ctx context.Context, userID, text, externalID string) error {
	if text == "" {
		return nil
	}
	if userID == "" {
		return ErrUserIDRequired
	}

	logger := p.logger.With("user_id", userID, "fingerprint", core.Fingerprint(text))
	if err := p.ingest(ctx, logger, userID, text, externalID); err != nil {
		logger.Error("ingestion failed", "err", err)
		p.recordFailure(ctx, logger, userID, err)
		return err
	}
	return nil
}

func (p *Pipeline) recordFailure(ctx context.Context, logger *slog.Logger, userID string, err error) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if logErr := p.audit.LogError(auditCtx, userID, AgentType, ErrorID, UserFacingError, err.Error()); logErr != nil {
		logger.Error("failed to record ingestion failure", "err", logErr)
	}
}

func (p *Pipeline) ingest(ctx context.Context, logger *slog.Logger, userID, text, externalID string) error {
	thread, err := p.resolveThread(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve thread: %w", err)
	}

	if externalID != "" {
		dup, err := p.isDuplicate(ctx, externalID)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup {
			logger.Debug("skipping duplicate message", "external_id", externalID)
			return nil
		}
	}

	messageID, err := p.insertMessage(ctx, userID, thread.id, text, externalID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	vector, err := p.embedder.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("embed message: %w", err)
	}
	if err := p.storeEmbedding(ctx, messageID, vector); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}

	if err := p.touchThread(ctx, thread); err != nil {
		return fmt.Errorf("update thread: %w", err)
	}

	logger.Info("ingested message",
		"message_id", messageID,
		"thread_id", thread.id,
		"message_count", thread.count+1)
	return nil
}

func (p *Pipeline) insertMessage(ctx context.Context, userID, threadID, text, externalID string) (string, error) {
	msg := core.Message{
		ID:        core.NewID(),
		UserID:    userID,
		ThreadID:  threadID,
		Direction: core.DirectionInbound,
		RawText:   text,
		Timestamp: p.clock.Now().UTC(),
	}
	if externalID != "" {
		msg.ExternalID = &externalID
	}
	if err := core.ValidateMessage(&msg); err != nil {
		return "", err
	}

	row, err := storage.ToRow(msg)
	if err != nil {
		return "", err
	}
	stored, err := p.store.Insert(ctx, core.TableMessages, row, true)
	if err != nil {
		return "", err
	}
	if id := stored.String("id"); id != "" {
		return id, nil
	}
	return msg.ID, nil
}

func (p *Pipeline) isDuplicate(ctx context.Context, externalID string) (bool, error) {
	rows, err := p.store.Select(ctx, core.TableMessages, storage.Query{
		Columns: []string{"id"},
		Filters: []storage.Filter{storage.Eq("external_id", externalID)},
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
