package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Framian/umami/pkg/adapters/postgres"
	"github.com/Framian/umami/pkg/core"
	"golang.org/x/sync/singleflight"
)

// ErrNoConnectionString is returned when neither a request credential nor
// DATABASE_URL is available.
var ErrNoConnectionString = errors.New("no database connection string configured")

// Mode records where a resolved connection string came from. It is
// returned per call and never stored on the Resolver.
type Mode int

const (
	ModeUnresolved Mode = iota
	ModeStatic
	ModeDynamic
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeDynamic:
		return "dynamic"
	default:
		return "unresolved"
	}
}

// Config configures a Resolver.
type Config struct {
	// Credentials defaults to CredentialFromContext.
	Credentials CredentialSource
	// Env defaults to OSEnvironment.
	Env    Environment
	Logger *slog.Logger
	// Open is passed through to postgres.New.
	Open postgres.OpenFunc
}

// Resolver hands out postgres clients for the active connection string.
type Resolver struct {
	credentials CredentialSource
	env         Environment
	logger      *slog.Logger
	open        postgres.OpenFunc

	mu          sync.Mutex
	static      string
	client      *postgres.Client
	lastDynamic string

	group singleflight.Group
}

// NewResolver creates a Resolver. If the logger is nil, a discard logger is
// used.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		credentials: cfg.Credentials,
		env:         cfg.Env,
		logger:      cfg.Logger,
		open:        cfg.Open,
	}
	if r.credentials == nil {
		r.credentials = CredentialFromContext
	}
	if r.env == nil {
		r.env = OSEnvironment{}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// ConnectionString returns the connection string for ctx. A request
// credential is authoritative; otherwise DATABASE_URL is read once and
// cached.
func (r *Resolver) ConnectionString(ctx context.Context) (string, Mode, error) {
	if dsn, ok := r.credentials(ctx); ok {
		if dsn, ok = postgres.NormalizeConnectionString(dsn); ok {
			r.mu.Lock()
			changed := dsn != r.lastDynamic
			r.lastDynamic = dsn
			r.mu.Unlock()

			if changed {
				r.logger.Info("using request database connection",
					slog.String("url", postgres.SanitizeConnectionString(dsn)))
			}
			return dsn, ModeDynamic, nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.static != "" {
		return r.static, ModeStatic, nil
	}

	value, _ := r.env.Lookup(EnvDatabaseURL)
	dsn, ok := postgres.NormalizeConnectionString(value)
	if !ok {
		return "", ModeUnresolved, ErrNoConnectionString
	}

	r.static = dsn
	r.logger.Info("using configured database connection",
		slog.String("url", postgres.SanitizeConnectionString(dsn)))
	return dsn, ModeStatic, nil
}

// Schema returns the search path schema of the active connection string.
func (r *Resolver) Schema(ctx context.Context) (string, error) {
	dsn, _, err := r.ConnectionString(ctx)
	if err != nil {
		return "", err
	}
	_, schema := postgres.SplitSchema(dsn)
	return schema, nil
}

// Client returns a client for ctx and a release func the caller must invoke
// when done. Static clients are shared and release is a no-op. Dynamic
// clients are built for this call only and release closes them.
func (r *Resolver) Client(ctx context.Context) (*postgres.Client, func(), error) {
	client, release, _, err := r.resolveClient(ctx)
	return client, release, err
}

// resolveClient is Client plus the mode of this call's resolution.
func (r *Resolver) resolveClient(ctx context.Context) (*postgres.Client, func(), Mode, error) {
	dsn, mode, err := r.ConnectionString(ctx)
	if err != nil {
		return nil, nil, mode, err
	}

	if mode == ModeDynamic {
		client, err := r.newClient(dsn)
		if err != nil {
			return nil, nil, mode, err
		}
		release := func() {
			if err := client.Close(); err != nil {
				r.logger.Warn("failed to close request client", slog.String("error", err.Error()))
			}
		}
		return client, release, mode, nil
	}

	r.mu.Lock()
	client := r.client
	r.mu.Unlock()
	if client != nil {
		return client, func() {}, mode, nil
	}

	v, err, _ := r.group.Do(dsn, func() (any, error) {
		r.mu.Lock()
		if r.client != nil {
			c := r.client
			r.mu.Unlock()
			return c, nil
		}
		r.mu.Unlock()

		c, err := r.newClient(dsn)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.client = c
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, nil, mode, err
	}
	return v.(*postgres.Client), func() {}, mode, nil
}

func (r *Resolver) newClient(dsn string) (*postgres.Client, error) {
	replica, _ := r.env.Lookup(EnvReplicaURL)
	logQuery, _ := r.env.Lookup(EnvLogQuery)
	enabled, _ := strconv.ParseBool(logQuery)

	client, err := postgres.New(postgres.Options{
		URL:        dsn,
		ReplicaURL: replica,
		LogQuery:   enabled,
		Logger:     r.logger,
		Open:       r.open,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}
	return client, nil
}

// RawQuery resolves a client and runs a parameterized raw query on it.
func (r *Resolver) RawQuery(ctx context.Context, query string, data map[string]any, name string) ([]core.Row, error) {
	client, release, err := r.Client(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return client.RawQuery(ctx, query, data, name)
}

// QueryRows resolves a client and runs an already parameterized query.
func (r *Resolver) QueryRows(ctx context.Context, sqlText string, args ...any) ([]core.Row, error) {
	client, release, err := r.Client(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return client.QueryRows(ctx, sqlText, args...)
}

// Exec resolves a client and runs a statement on its primary.
func (r *Resolver) Exec(ctx context.Context, statement string, data map[string]any) error {
	client, release, err := r.Client(ctx)
	if err != nil {
		return err
	}
	defer release()
	return client.Exec(ctx, statement, data)
}

// Transaction resolves a client and runs fn in a transaction on it.
func (r *Resolver) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	client, release, err := r.Client(ctx)
	if err != nil {
		return err
	}
	defer release()
	return client.Transaction(ctx, fn)
}

// Ping resolves a client for ctx and pings its primary. It returns the
// mode of that resolution, so concurrent callers each see their own.
func (r *Resolver) Ping(ctx context.Context) (Mode, error) {
	client, release, mode, err := r.resolveClient(ctx)
	if err != nil {
		return mode, err
	}
	defer release()
	return mode, client.Ping(ctx)
}

// Close closes the cached static client, if any.
func (r *Resolver) Close() error {
	r.mu.Lock()
	client := r.client
	r.client = nil
	r.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}
