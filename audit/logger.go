// Package audit records pipeline failures in the agent_errors table.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/storage"
)

// ErrStoreRequired indicates a nil store was passed to New.
var ErrStoreRequired = errors.New("store is required")

// Recorder appends AgentError rows.
type Recorder interface {
	LogError(ctx context.Context, userID, agentType, errorID, userMessage, internalMessage string) error
}

// Logger writes AgentError rows through a storage.Store.
type Logger struct {
	store  storage.Store
	clock  core.Clock
	logger *slog.Logger
}

var _ Recorder = (*Logger)(nil)

// Option configures a Logger.
type Option func(*Logger) error

// WithClock sets the clock used for created_at.
func WithClock(clock core.Clock) Option {
	return func(l *Logger) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		l.clock = clock
		return nil
	}
}

// WithLogger sets the slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		l.logger = logger
		return nil
	}
}

// New creates an audit Logger writing to store.
func New(store storage.Store, opts ...Option) (*Logger, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	l := &Logger{
		store:  store,
		clock:  core.SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "audit")
	return l, nil
}

// LogError appends one AgentError row with a fresh id and the current time.
// The insert does not return the stored row. Failures are returned as-is.
func (l *Logger) LogError(ctx context.Context, userID, agentType, errorID, userMessage, internalMessage string) error {
	rec := core.AgentError{
		ID:              core.NewID(),
		ErrorID:         errorID,
		UserID:          userID,
		AgentType:       agentType,
		MessageUser:     userMessage,
		MessageInternal: internalMessage,
		CreatedAt:       l.clock.Now().UTC(),
	}
	row, err := storage.ToRow(rec)
	if err != nil {
		return fmt.Errorf("encoding agent error: %w", err)
	}
	if _, err := l.store.Insert(ctx, core.TableErrors, row, false); err != nil {
		return err
	}
	l.logger.Debug("recorded agent error", "error_id", errorID, "agent_type", agentType, "user_id", userID)
	return nil
}
