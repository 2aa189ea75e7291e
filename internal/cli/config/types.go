// Package config loads CLI configuration from defaults, a umami.yaml file,
// environment variables and flags.
package config

import (
	"strconv"
	"time"

	"github.com/Framian/umami/pkg/connection"
)

// Config holds all CLI configuration options.
type Config struct {
	DatabaseURL        string       `koanf:"database_url"`
	DatabaseReplicaURL string       `koanf:"database_replica_url"`
	LogQuery           bool         `koanf:"log_query"`
	Verbose            bool         `koanf:"verbose"`
	OutputFormat       string       `koanf:"output"`
	Server             ServerConfig `koanf:"server"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	// CredentialHeader carries a request-scoped connection string.
	CredentialHeader string        `koanf:"credential_header"`
	SessionName      string        `koanf:"session_name"`
	SessionSecret    string        `koanf:"session_secret"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Lookup implements connection.Environment so a loaded Config can back a
// connection.Resolver.
func (c *Config) Lookup(key string) (string, bool) {
	switch key {
	case connection.EnvDatabaseURL:
		return c.DatabaseURL, c.DatabaseURL != ""
	case connection.EnvReplicaURL:
		return c.DatabaseReplicaURL, c.DatabaseReplicaURL != ""
	case connection.EnvLogQuery:
		return strconv.FormatBool(c.LogQuery), true
	default:
		return "", false
	}
}

var _ connection.Environment = (*Config)(nil)
