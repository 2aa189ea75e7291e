package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Framian/umami/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve report queries over HTTP",
		Long: `Start an HTTP server that runs report templates and table queries.

Each request may carry its own connection string in the credential header
(default X-Database-Url). When a session secret is configured, a
connection string can also be stored in an encrypted cookie through
POST /api/connection. Requests without one use DATABASE_URL.`,
		Example: `  # Serve on the default address
  umamidb serve

  # Serve on a custom port
  umamidb serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			cfg := cmdCtx.Cfg.Server

			resolver := cmdCtx.NewResolver()
			defer func() { _ = resolver.Close() }()

			srv := server.New(server.Config{
				Resolver:         resolver,
				Addr:             cfg.Addr,
				CredentialHeader: cfg.CredentialHeader,
				SessionName:      cfg.SessionName,
				SessionSecret:    cfg.SessionSecret,
				ShutdownTimeout:  cfg.ShutdownTimeout,
				Logger:           cmdCtx.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmdCtx.Renderer.Println(cmdCtx.Renderer.Styles().Success.Render("Listening on " + cfg.Addr))
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Address to listen on (default :3001)")
	cmd.Flags().String("credential-header", "", "Request header carrying a connection string")

	return cmd
}
