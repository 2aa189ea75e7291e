package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	intconfig "github.com/Framian/umami/internal/config"
	"github.com/Framian/umami/pkg/connection"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// bareEnvKeys are read without the UMAMI_ prefix.
var bareEnvKeys = map[string]string{
	connection.EnvDatabaseURL: "database_url",
	connection.EnvReplicaURL:  "database_replica_url",
	connection.EnvLogQuery:    "log_query",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > umami.yaml > umami.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{intconfig.ConfigFileName, intconfig.ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey maps an environment variable to a config key. An empty result
// skips the variable.
func envKey(name string) string {
	if key, ok := bareEnvKeys[name]; ok {
		return key
	}
	if rest, ok := strings.CutPrefix(name, intconfig.EnvPrefix); ok {
		return strings.ReplaceAll(strings.ToLower(rest), "__", ".")
	}
	return ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// It returns the config and the path of the config file used, if any.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(intconfig.Defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: DATABASE_URL, DATABASE_REPLICA_URL, LOG_QUERY and UMAMI_*
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "database", "url":
				key = "database_url"
			case "replica":
				key = "database_replica_url"
			case "addr", "credential_header":
				key = "server." + key
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.DatabaseReplicaURL = strings.TrimSpace(cfg.DatabaseReplicaURL)
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = intconfig.DefaultOutput
	}

	return &cfg, used, nil
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by WithConfig, or the defaults
// when none was stored.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{
		OutputFormat: intconfig.DefaultOutput,
		Server: ServerConfig{
			Addr:             intconfig.DefaultServerAddr,
			CredentialHeader: intconfig.DefaultCredentialHeader,
			SessionName:      intconfig.DefaultSessionName,
			ShutdownTimeout:  intconfig.DefaultShutdownTimeout,
		},
	}
}

// NewLogger builds the CLI logger: debug level when verbose, warnings
// otherwise.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
