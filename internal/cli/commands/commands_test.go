package commands

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Framian/umami/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withMockDB routes every pool opened by command resolvers to one sqlmock
// connection and returns the DSNs that were opened.
func withMockDB(t *testing.T) (sqlmock.Sqlmock, *[]string) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var opened []string
	prev := openDB
	openDB = func(dsn string) (*sql.DB, error) {
		opened = append(opened, dsn)
		return db, nil
	}
	t.Cleanup(func() { openDB = prev })
	return mock, &opened
}

// configContext returns a context carrying a config pointed at dsn.
func configContext(dsn, format string) context.Context {
	cfg := config.FromContext(context.Background())
	cfg.DatabaseURL = dsn
	cfg.OutputFormat = format
	return config.WithConfig(context.Background(), cfg)
}

func TestCommandConstructors(t *testing.T) {
	tests := []struct {
		name  string
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{
			name:  "render",
			cmd:   NewRenderCommand(),
			use:   "render <template>",
			flags: []string{"filters", "watch"},
		},
		{
			name:  "query",
			cmd:   NewQueryCommand(),
			use:   "query [template]",
			flags: []string{"format", "filters", "name", "table", "columns", "search-columns"},
		},
		{
			name: "migrate",
			cmd:  NewMigrateCommand(),
			use:  "migrate",
		},
		{
			name:  "serve",
			cmd:   NewServeCommand(),
			use:   "serve",
			flags: []string{"addr", "credential-header"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			assert.NotEmpty(t, tt.cmd.Long)
			for _, name := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(name), "flag %s", name)
			}
		})
	}
}

func TestMigrateSubcommands(t *testing.T) {
	cmd := NewMigrateCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"version", "status"}, names)
}

func TestNewCommandContext_Defaults(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	cmdCtx := NewCommandContext(cmd)
	require.NotNil(t, cmdCtx.Cfg)
	assert.Equal(t, "auto", cmdCtx.Cfg.OutputFormat)
	assert.NotNil(t, cmdCtx.Logger)
	assert.NotNil(t, cmdCtx.Renderer)
}
