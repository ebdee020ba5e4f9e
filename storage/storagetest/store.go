// Package storagetest provides a storage.Store wrapper for tests that
// records calls and injects failures.
package storagetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/mailroom/storage"
)

// Call is one recorded store operation.
type Call struct {
	Op    string
	Table string
}

// String renders the call as "op table".
func (c Call) String() string {
	return c.Op + " " + c.Table
}

// Store wraps another storage.Store.
type Store struct {
	inner storage.Store

	mu       sync.Mutex
	calls    []Call
	failures map[Call]error
}

var _ storage.Store = (*Store)(nil)

// Wrap returns a recording Store around inner.
func Wrap(inner storage.Store) *Store {
	return &Store{inner: inner, failures: make(map[Call]error)}
}

// FailOn makes every op on table fail with err until cleared.
// A nil err clears the failure.
func (s *Store) FailOn(op, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Call{Op: op, Table: table}
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// Calls returns the recorded operations in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallStrings returns the recorded operations as "op table" strings.
func (s *Store) CallStrings() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many times op ran against table.
func (s *Store) Count(op, table string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op == op && c.Table == table {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Store) record(op, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Call{Op: op, Table: table}
	s.calls = append(s.calls, c)
	if err, ok := s.failures[c]; ok {
		return &storage.StorageError{Op: op, Table: table, Status: 500, Body: fmt.Sprint(err), Err: err}
	}
	return nil
}

// Select records the call and delegates unless a failure is injected.
func (s *Store) Select(ctx context.Context, table string, q storage.Query) ([]storage.Row, error) {
	if err := s.record("select", table); err != nil {
		return nil, err
	}
	return s.inner.Select(ctx, table, q)
}

// Insert records the call and delegates unless a failure is injected.
func (s *Store) Insert(ctx context.Context, table string, row storage.Row, returnRepresentation bool) (storage.Row, error) {
	if err := s.record("insert", table); err != nil {
		return nil, err
	}
	return s.inner.Insert(ctx, table, row, returnRepresentation)
}

// Upsert records the call and delegates unless a failure is injected.
func (s *Store) Upsert(ctx context.Context, table string, row storage.Row, conflictKey string) (storage.Row, error) {
	if err := s.record("upsert", table); err != nil {
		return nil, err
	}
	return s.inner.Upsert(ctx, table, row, conflictKey)
}

// Patch records the call and delegates unless a failure is injected.
func (s *Store) Patch(ctx context.Context, table string, match []storage.Filter, updates storage.Row) error {
	if err := s.record("patch", table); err != nil {
		return err
	}
	return s.inner.Patch(ctx, table, match, updates)
}

// Close closes the wrapped store.
func (s *Store) Close() error {
	return s.inner.Close()
}
