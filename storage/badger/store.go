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


package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/mailroom/core"
	"github.com/poiesic/mailroom/storage"
)

const (
	// DefaultTimeout bounds every store operation unless overridden.
	DefaultTimeout = 15 * time.Second

	primaryKeyColumn = "id"
)

// Store implements storage.Store on top of BadgerDB.
// Rows are kept as JSON documents keyed by table and insertion sequence.
type Store struct {
	backend    *Backend
	ownBackend bool
	idSeq      *badger.Sequence
	timeout    time.Duration
	logger     *slog.Logger

	// writes serializes read-modify-write transactions
	writes sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithTimeout bounds each operation. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) error {
		if timeout < 0 {
			return fmt.Errorf("%w: negative timeout", storage.ErrInvalidQuery)
		}
		s.timeout = timeout
		return nil
	}
}

// NewStore creates a Store over an open backend.
// The caller keeps ownership of backend.
func NewStore(backend *Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	idSeq, err := backend.GetSequence(rowSeq)
	if err != nil {
		return nil, err
	}

	s := &Store{
		backend: backend,
		idSeq:   idSeq,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			idSeq.Release()
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "badger-store")
	return s, nil
}

// OpenStore opens a database at path and returns a Store that owns it.
func OpenStore(path string, inMemory bool, opts ...Option) (storage.Store, error) {
	settings := &Store{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(settings); err != nil {
			return nil, err
		}
	}
	backend, err := OpenBackend(path, inMemory, settings.logger)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	s.ownBackend = true
	return s, nil
}

// Close releases the ID sequence and, when owned, the backend.
func (s *Store) Close() error {
	err := s.idSeq.Release()
	if s.ownBackend {
		err = errors.Join(err, s.backend.Close())
	}
	return err
}

// Select returns the rows of table matching q.
func (s *Store) Select(ctx context.Context, table string, q storage.Query) ([]storage.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, s.fail("select", table, err)
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var rows []storage.Row
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return s.scan(ctx, tx, table, func(_ []byte, row storage.Row) error {
			if matches(row, q.Filters) {
				rows = append(rows, row)
			}
			return nil
		})
	}, false)
	if err != nil {
		return nil, s.fail("select", table, err)
	}

	sortRows(rows, q.Order)
	rows = paginate(rows, q.Offset, q.Limit)
	out := make([]storage.Row, len(rows))
	for i, row := range rows {
		out[i] = project(row, q.Columns)
	}
	return out, nil
}

// Insert appends row to table. Rows without an id get a generated one.
func (s *Store) Insert(ctx context.Context, table string, row storage.Row, returnRepresentation bool) (storage.Row, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	row = row.Clone()
	if row.String(primaryKeyColumn) == "" {
		row[primaryKeyColumn] = core.NewID()
	}

	s.writes.Lock()
	defer s.writes.Unlock()
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pk := makePrimaryKey(table, row.String(primaryKeyColumn))
		if _, err := tx.Get(pk); err == nil {
			return &storage.StorageError{
				Op:     "insert",
				Table:  table,
				Status: http.StatusConflict,
				Body:   fmt.Sprintf("duplicate key value %s=%s", primaryKeyColumn, row.String(primaryKeyColumn)),
				Err:    storage.ErrDuplicateKey,
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := s.put(tx, table, nil, row); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, s.fail("insert", table, err)
	}

	s.logger.Debug("inserted row", "table", table, "id", row.String(primaryKeyColumn))
	if !returnRepresentation {
		return nil, nil
	}
	return row, nil
}

// Upsert inserts row or merges it into the row sharing its conflictKey value.
func (s *Store) Upsert(ctx context.Context, table string, row storage.Row, conflictKey string) (storage.Row, error) {
	if conflictKey == "" {
		conflictKey = primaryKeyColumn
	}
	if _, ok := row[conflictKey]; !ok {
		return nil, s.fail("upsert", table, fmt.Errorf("%w: row has no %s", storage.ErrInvalidQuery, conflictKey))
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	match := storage.Eq(conflictKey, row.String(conflictKey))
	var result storage.Row

	s.writes.Lock()
	defer s.writes.Unlock()
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var existingKey []byte
		var existing storage.Row
		err := s.scan(ctx, tx, table, func(key []byte, r storage.Row) error {
			if existing == nil && matchFilter(r, match) {
				existingKey, existing = key, r
			}
			return nil
		})
		if err != nil {
			return err
		}

		if existing == nil {
			result = row.Clone()
			if result.String(primaryKeyColumn) == "" {
				result[primaryKeyColumn] = core.NewID()
			}
		} else {
			result = existing
			for k, v := range row {
				result[k] = v
			}
		}
		if err := s.put(tx, table, existingKey, result); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, s.fail("upsert", table, err)
	}
	return result, nil
}

// Patch applies updates to every row matching all filters in match.
func (s *Store) Patch(ctx context.Context, table string, match []storage.Filter, updates storage.Row) error {
	if err := (storage.Query{Filters: match}).Validate(); err != nil {
		return s.fail("patch", table, err)
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	s.writes.Lock()
	defer s.writes.Unlock()
	patched := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		type pending struct {
			key []byte
			row storage.Row
		}
		var targets []pending
		err := s.scan(ctx, tx, table, func(key []byte, row storage.Row) error {
			if matches(row, match) {
				targets = append(targets, pending{key: key, row: row})
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, t := range targets {
			for k, v := range updates {
				t.row[k] = v
			}
			if err := s.put(tx, table, t.key, t.row); err != nil {
				return err
			}
		}
		patched = len(targets)
		return tx.Commit()
	}, true)
	if err != nil {
		return s.fail("patch", table, err)
	}
	s.logger.Debug("patched rows", "table", table, "count", patched)
	return nil
}

// scan calls fn with every row of table in insertion order.
func (s *Store) scan(ctx context.Context, tx *badger.Txn, table string, fn func(key []byte, row storage.Row) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeTablePrefix(table)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := iter.Item()
		key := item.KeyCopy(nil)
		var row storage.Row
		err := item.Value(func(val []byte) error {
			var err error
			row, err = storage.DecodeRow(val)
			return err
		})
		if err != nil {
			return err
		}
		if err := fn(key, row); err != nil {
			return err
		}
	}
	return nil
}

// put writes row under key, allocating a new key when key is nil, and
// keeps the primary key index current.
func (s *Store) put(tx *badger.Txn, table string, key []byte, row storage.Row) error {
	if key == nil {
		seq, err := s.nextSeq()
		if err != nil {
			return err
		}
		key = makeRowKey(table, seq)
	}
	value, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if err := tx.Set(key, value); err != nil {
		return err
	}
	if id := row.String(primaryKeyColumn); id != "" {
		return tx.Set(makePrimaryKey(table, id), key)
	}
	return nil
}

func (s *Store) nextSeq() (uint64, error) {
	next, err := s.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		return s.idSeq.Next()
	}
	return next, nil
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fail wraps err in a StorageError unless it already is one.
func (s *Store) fail(op, table string, err error) error {
	var se *storage.StorageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, badger.ErrDBClosed) {
		err = storage.ErrStorageClosed
	}
	out := &storage.StorageError{Op: op, Table: table, Err: err}
	if errors.Is(err, context.DeadlineExceeded) {
		out.Timeout = true
	}
	s.logger.Debug("store operation failed", "op", op, "table", table, "error", err)
	return out
}

func paginate(rows []storage.Row, offset, limit int) []storage.Row {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
