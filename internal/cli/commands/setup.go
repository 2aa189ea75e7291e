package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Framian/umami/internal/cli/config"
	"github.com/Framian/umami/internal/cli/output"
	"github.com/Framian/umami/pkg/adapters/postgres"
	"github.com/Framian/umami/pkg/connection"
	"github.com/spf13/cobra"
)

// openDB opens connection pools for resolvers built by commands. Tests
// replace it with a sqlmock opener.
var openDB postgres.OpenFunc = postgres.Open

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// NewResolver creates a connection resolver backed by the loaded config.
// The caller must Close it.
func (c *CommandContext) NewResolver() *connection.Resolver {
	return connection.NewResolver(connection.Config{
		Env:    c.Cfg,
		Logger: c.Logger,
		Open:   openDB,
	})
}

// readSource reads a template from path, or from stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(content), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(content), nil
}
