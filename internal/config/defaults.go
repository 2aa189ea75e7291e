// Package config holds configuration defaults shared by the CLI and server.
package config

import "time"

// Default configuration values.
const (
	ConfigFileName    = "umami.yaml"
	ConfigFileNameAlt = "umami.yml"

	DefaultOutput           = "auto"
	DefaultServerAddr       = ":3001"
	DefaultCredentialHeader = "X-Database-Url"
	DefaultShutdownTimeout  = 5 * time.Second
	DefaultSessionName      = "umami-db"

	// EnvPrefix namespaces every other environment key, e.g.
	// UMAMI_SERVER__ADDR sets server.addr.
	EnvPrefix = "UMAMI_"
)

// Defaults returns the default values keyed the way the config file is.
func Defaults() map[string]any {
	return map[string]any{
		"database_url":             "",
		"database_replica_url":     "",
		"log_query":                false,
		"verbose":                  false,
		"output":                   DefaultOutput,
		"server.addr":              DefaultServerAddr,
		"server.credential_header": DefaultCredentialHeader,
		"server.session_name":      DefaultSessionName,
		"server.session_secret":    "",
		"server.shutdown_timeout":  DefaultShutdownTimeout.String(),
	}
}
