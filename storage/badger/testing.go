package badger

import "log/slog"

// NewMemoryStore creates an in-memory Store for testing.
// Closing the store also closes its backend.
func NewMemoryStore(opts ...Option) (*Store, error) {
	backend, err := OpenBackend("", true, slog.Default())
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
