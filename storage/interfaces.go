package storage

import "context"

// Store is a row-oriented store addressed by logical table name.
// Implementations must be safe for concurrent use and bound every call by
// their configured timeout. No operation is retried.
type Store interface {
	// Select returns the rows of table matching q.
	// Returns an empty slice when nothing matches.
	Select(ctx context.Context, table string, q Query) ([]Row, error)

	// Insert appends row to table.
	// When returnRepresentation is false the stored row is not returned
	// and the result is nil.
	Insert(ctx context.Context, table string, row Row, returnRepresentation bool) (Row, error)

	// Upsert inserts row, or merges it into the existing row whose
	// conflictKey column holds the same value. An empty conflictKey
	// falls back to the primary key ("id").
	Upsert(ctx context.Context, table string, row Row, conflictKey string) (Row, error)

	// Patch applies updates to every row matching all filters in match.
	Patch(ctx context.Context, table string, match []Filter, updates Row) error

	// Close releases resources held by the store.
	Close() error
}
