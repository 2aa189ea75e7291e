package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/Framian/umami/internal/cli/output"
	"github.com/Framian/umami/internal/migrate"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the analytics tables",
		Long: `Apply pending schema migrations to the configured database.

The migrations create the website, session and website_event tables that
report templates read from.`,
		Example: `  # Apply pending migrations
  umamidb migrate --database postgres://localhost/umami

  # Show the current schema version
  umamidb migrate version

  # List every migration and its state
  umamidb migrate status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			return withDB(cmd.Context(), cmdCtx, func(ctx context.Context, db *sql.DB) error {
				if err := migrate.Up(ctx, db, cmdCtx.Logger); err != nil {
					return err
				}
				version, err := migrate.Version(ctx, db)
				if err != nil {
					return fmt.Errorf("failed to read schema version: %w", err)
				}
				r := cmdCtx.Renderer
				r.Println(r.Styles().Success.Render(fmt.Sprintf("Schema is at version %d", version)))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			return withDB(cmd.Context(), cmdCtx, func(ctx context.Context, db *sql.DB) error {
				version, err := migrate.Version(ctx, db)
				if err != nil {
					return fmt.Errorf("failed to read schema version: %w", err)
				}
				cmdCtx.Renderer.Printf("%d\n", version)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			return withDB(cmd.Context(), cmdCtx, func(ctx context.Context, db *sql.DB) error {
				status, err := migrate.Status(ctx, db)
				if err != nil {
					return err
				}
				rows := make([]migrationRow, len(status))
				for i, s := range status {
					rows[i] = migrationRow{Version: s.Source.Version, Path: s.Source.Path, State: string(s.State)}
					if !s.AppliedAt.IsZero() {
						rows[i].AppliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				renderMigrations(cmdCtx.Renderer.Writer(), rows, cmdCtx.Renderer.EffectiveMode())
				return nil
			})
		},
	})

	return cmd
}

type migrationRow struct {
	Version   int64
	Path      string
	State     string
	AppliedAt string
}

// withDB resolves the configured connection and hands its primary pool to fn.
func withDB(ctx context.Context, cmdCtx *CommandContext, fn func(context.Context, *sql.DB) error) error {
	resolver := cmdCtx.NewResolver()
	defer func() { _ = resolver.Close() }()

	client, release, err := resolver.Client(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx, client.DB())
}

func renderMigrations(w io.Writer, rows []migrationRow, mode output.Mode) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "Migration", "State", "Applied"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Version, r.Path, r.State, r.AppliedAt})
	}
	if mode == output.ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
