package types

import (
	"context"
	"errors"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// DataAccess is the set of primitives the mapping layer delegates statement
// execution to. Statements use `?` placeholders; values are always bound,
// never interpolated.
type DataAccess interface {
	// SelectOne runs query and returns its first row.
	// Returns ErrNotFound if the query yields no rows.
	SelectOne(ctx context.Context, query string, args ...any) (Row, error)

	// Select runs query and returns every row. No rows is an empty slice,
	// not an error.
	Select(ctx context.Context, query string, args ...any) ([]Row, error)

	// SelectInt runs query and returns the single integer column of its
	// first row. Returns ErrMultiColumns if the row has more than one column.
	SelectInt(ctx context.Context, query string, args ...any) (int64, error)

	// Insert writes row into table. Constraint violations are returned
	// unchanged from the driver.
	Insert(ctx context.Context, table string, row Row) error

	// Update runs a data-modifying statement and returns the number of
	// affected rows.
	Update(ctx context.Context, query string, args ...any) (int64, error)
}

// Store is a DataAccess that also owns a connection and can run DDL.
type Store interface {
	DataAccess

	// Exec runs a statement that returns no rows, typically DDL.
	Exec(ctx context.Context, stmt string) error

	// HasTable reports whether table exists in the connected database.
	HasTable(ctx context.Context, table string) (bool, error)

	// Close releases the underlying connection pool. Idempotent.
	Close() error
}

// Data-access errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrMultiColumns = errors.New("expected a single column in result")
	ErrStoreClosed  = errors.New("store is closed")
)
