package connection

import (
	"context"
	"os"

	"github.com/Framian/umami/pkg/adapters/postgres"
)

// Environment keys read by the resolver.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvReplicaURL  = "DATABASE_REPLICA_URL"
	EnvLogQuery    = "LOG_QUERY"
)

// CredentialSource returns the connection string bound to the current
// request, if there is one.
type CredentialSource func(ctx context.Context) (string, bool)

type credentialKey struct{}

// WithCredential returns a context carrying a request-scoped connection
// string.
func WithCredential(ctx context.Context, dsn string) context.Context {
	return context.WithValue(ctx, credentialKey{}, dsn)
}

// CredentialFromContext returns the connection string stored by
// WithCredential. Blank values count as absent.
func CredentialFromContext(ctx context.Context) (string, bool) {
	dsn, _ := ctx.Value(credentialKey{}).(string)
	return postgres.NormalizeConnectionString(dsn)
}

// Environment looks up configuration values.
type Environment interface {
	Lookup(key string) (string, bool)
}

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

// Lookup implements Environment.
func (OSEnvironment) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnvironment is an Environment backed by a map.
type MapEnvironment map[string]string

// Lookup implements Environment.
func (m MapEnvironment) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
