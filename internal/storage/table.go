package storage

import (
	"context"
	"fmt"
)

// Record is one persisted row. Columns and Values are index aligned.
type Record interface {
	Columns() []string
	Values() []string
}

// Table is an append-only handle on one persisted table.
//
// The header (or schema) is written by CreateWithHeader only, so callers that
// go through AppendRecords write it exactly once per table.
type Table[T Record] interface {
	Name() string
	Exists(ctx context.Context) (bool, error)
	CreateWithHeader(ctx context.Context) error
	Append(ctx context.Context, rows []T) error
	// ReadAll returns every row in insertion order. A missing table yields no rows.
	ReadAll(ctx context.Context) ([]T, error)
}

// AppendRecords creates the table with its header when needed and appends rows.
// An empty batch does not touch the table.
func AppendRecords[T Record](ctx context.Context, table Table[T], rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	exists, err := table.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check table %s: %w", table.Name(), err)
	}

	if !exists {
		if err := table.CreateWithHeader(ctx); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name(), err)
		}
	}

	if err := table.Append(ctx, rows); err != nil {
		return fmt.Errorf("failed to append %d rows to %s: %w", len(rows), table.Name(), err)
	}

	return nil
}
