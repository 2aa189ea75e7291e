package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Framian/umami/pkg/core"
)

// Conn is the subset of *sql.DB, *sql.Conn and *sql.Tx used for execution.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, and QueryRows implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return ExecOn(ctx, b.DB, sqlStr, args...)
}

// QueryRows executes a SQL statement and collects every row.
func (b *BaseSQLAdapter) QueryRows(ctx context.Context, sqlStr string, args ...any) ([]core.Row, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	return QueryOn(ctx, b.DB, sqlStr, args...)
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ExecOn executes a statement on conn.
func ExecOn(ctx context.Context, conn Conn, sqlStr string, args ...any) error {
	if _, err := conn.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// QueryOn executes a query on conn and collects every row.
func QueryOn(ctx context.Context, conn Conn, sqlStr string, args ...any) ([]core.Row, error) {
	rows, err := conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return ScanRows(rows)
}

// ScanRows reads all remaining rows into column keyed maps. []byte values
// are converted to strings.
func ScanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	results := []core.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

var _ Executor = (*BaseSQLAdapter)(nil)
