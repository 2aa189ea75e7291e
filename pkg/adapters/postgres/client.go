// Package postgres provides the PostgreSQL client used by the query layer.
//
// A Client wraps a primary connection pool and an optional read replica,
// both opened through the pgx database/sql driver. Raw queries are
// parameterized with sqltemplate before they reach the driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Framian/umami/pkg/adapter"
	"github.com/Framian/umami/pkg/core"
	"github.com/Framian/umami/pkg/sqltemplate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// OpenFunc opens a connection pool for a DSN.
type OpenFunc func(dsn string) (*sql.DB, error)

// Open opens dsn with the pgx driver. The DSN is parsed eagerly so that a
// malformed connection string fails here rather than on first use.
func Open(dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	return stdlib.OpenDB(*cfg), nil
}

// Options configures a Client.
type Options struct {
	URL        string
	ReplicaURL string
	LogQuery   bool
	Logger     *slog.Logger
	Open       OpenFunc // defaults to Open
}

// Client executes queries against a primary database and, when configured,
// routes raw read queries to a replica.
type Client struct {
	primary  adapter.BaseSQLAdapter
	replica  *adapter.BaseSQLAdapter
	schema   string
	logQuery bool
	logger   *slog.Logger
}

// New creates a Client. If the logger is nil, a discard logger is used.
func New(opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	open := opts.Open
	if open == nil {
		open = Open
	}

	dsn, schema := SplitSchema(opts.URL)
	db, err := open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	c := &Client{
		primary:  adapter.BaseSQLAdapter{DB: db, Logger: logger},
		schema:   schema,
		logQuery: opts.LogQuery,
		logger:   logger,
	}

	if replicaURL, ok := NormalizeConnectionString(opts.ReplicaURL); ok {
		replicaDSN, _ := SplitSchema(replicaURL)
		rdb, err := open(replicaDSN)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to open replica connection: %w", err)
		}
		c.replica = &adapter.BaseSQLAdapter{DB: rdb, Logger: logger}
		logger.Debug("postgres client initialized (with replica)", slog.String("schema", schema))
	} else {
		logger.Debug("postgres client initialized", slog.String("schema", schema))
	}

	return c, nil
}

// Schema returns the search path schema taken from the connection string.
func (c *Client) Schema() string {
	return c.schema
}

// HasReplica reports whether raw queries are routed to a replica.
func (c *Client) HasReplica() bool {
	return c.replica != nil
}

// Primary returns the primary executor.
func (c *Client) Primary() adapter.Executor {
	return &c.primary
}

// DB returns the primary pool.
func (c *Client) DB() *sql.DB {
	return c.primary.DB
}

// reader returns the pool raw read queries run on.
func (c *Client) reader() *adapter.BaseSQLAdapter {
	if c.replica != nil {
		return c.replica
	}
	return &c.primary
}

// RawQuery parameterizes query with data and runs it. When a schema is
// configured, SET search_path is issued on the same pooled connection
// right before the query.
func (c *Client) RawQuery(ctx context.Context, query string, data map[string]any, name string) ([]core.Row, error) {
	if c.logQuery {
		c.logger.Debug("raw query",
			slog.String("id", uuid.NewString()),
			slog.String("name", name),
			slog.String("sql", query),
			slog.Any("params", data),
		)
	}

	sqlText, params := sqltemplate.Parameterize(query, data)

	var rows []core.Row
	err := c.withConn(ctx, c.reader(), func(conn adapter.Conn) error {
		var err error
		rows, err = adapter.QueryOn(ctx, conn, sqlText, params...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryRows runs an already parameterized read query, on the replica when
// one is configured.
func (c *Client) QueryRows(ctx context.Context, sqlText string, args ...any) ([]core.Row, error) {
	var rows []core.Row
	err := c.withConn(ctx, c.reader(), func(conn adapter.Conn) error {
		var err error
		rows, err = adapter.QueryOn(ctx, conn, sqlText, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Exec parameterizes statement with data and runs it on the primary.
func (c *Client) Exec(ctx context.Context, statement string, data map[string]any) error {
	sqlText, params := sqltemplate.Parameterize(statement, data)
	return c.withConn(ctx, &c.primary, func(conn adapter.Conn) error {
		return adapter.ExecOn(ctx, conn, sqlText, params...)
	})
}

// Transaction runs fn inside a transaction on the primary. The transaction
// is rolled back when fn returns an error and committed otherwise.
func (c *Client) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if !c.primary.IsConnected() {
		return fmt.Errorf("database connection not established")
	}

	tx, err := c.primary.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if c.schema != "" {
		if err := adapter.ExecOn(ctx, tx, "SET LOCAL search_path TO "+quoteIdentifier(c.schema)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping verifies the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if !c.primary.IsConnected() {
		return fmt.Errorf("database connection not established")
	}
	if err := c.primary.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	return nil
}

// Close closes the primary and replica pools.
func (c *Client) Close() error {
	err := c.primary.Close()
	if c.replica != nil {
		if rerr := c.replica.Close(); err == nil {
			err = rerr
		}
	}
	return err
}

// withConn pins a single pooled connection so the search path applies to
// the statement that follows it.
func (c *Client) withConn(ctx context.Context, pool *adapter.BaseSQLAdapter, fn func(conn adapter.Conn) error) error {
	if !pool.IsConnected() {
		return fmt.Errorf("database connection not established")
	}

	conn, err := pool.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if c.schema != "" {
		if err := adapter.ExecOn(ctx, conn, "SET search_path TO "+quoteIdentifier(c.schema)+";"); err != nil {
			return err
		}
	}

	return fn(conn)
}

var _ adapter.Querier = (*Client)(nil)
