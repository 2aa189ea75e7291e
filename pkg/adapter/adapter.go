// Package adapter provides the database execution contracts used by the
// query layer, and a database/sql backed base implementation.
//
// Concrete adapters live in pkg/adapters/ subdirectories.
package adapter

import (
	"context"

	"github.com/Framian/umami/pkg/core"
)

// Querier executes a positionally parameterized statement and returns its
// rows. Implementations must not interpolate args into the SQL text.
type Querier interface {
	QueryRows(ctx context.Context, sql string, args ...any) ([]core.Row, error)
}

// Executor is a Querier that can also run statements returning no rows.
type Executor interface {
	Querier

	// Exec executes a statement that doesn't return rows (e.g. SET, INSERT).
	Exec(ctx context.Context, sql string, args ...any) error
}
