package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Framian/umami/pkg/adapter"
	"github.com/Framian/umami/pkg/core"
	"github.com/Framian/umami/pkg/filters"
	"github.com/Framian/umami/pkg/paging"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format        string
	FiltersFile   string
	Name          string
	Table         string
	Columns       []string
	SearchColumns []string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [template]",
		Short: "Run a paged query against the analytics database",
		Long: `Run a SQL template against the configured database and print one page
of results together with the total row count.

The template is read from a file, from stdin when piped, or entered
interactively when no template is given on a terminal. With --table the
named table is paged directly and --search matches the search columns.`,
		Example: `  # Run a report template
  umamidb query reports/pageviews.sql --filters filters.yaml

  # Page through a table with a search term
  umamidb query --table website --search-columns name,domain --filters page.yaml

  # Output as JSON
  umamidb query reports/pageviews.sql --format json

  # Interactive mode
  umamidb query`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "F", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.FiltersFile, "filters", "f", "", "YAML or JSON file with filters, params and options")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Query name used in query logs")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Page through a table instead of running a template")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Columns to select with --table")
	cmd.Flags().StringSliceVar(&opts.SearchColumns, "search-columns", nil, "Columns the search term is matched against with --table")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	resolver := cmdCtx.NewResolver()
	defer func() { _ = resolver.Close() }()

	qf, err := LoadQueryFile(opts.FiltersFile)
	if err != nil {
		return err
	}

	if opts.Table != "" {
		return runTableQuery(cmd.Context(), cmd.OutOrStdout(), resolver, qf, opts)
	}

	var template string
	switch {
	case len(args) > 0:
		template, err = readSource(cmd, args[0])
	case !isTerminal(cmd.InOrStdin()):
		var content []byte
		content, err = io.ReadAll(cmd.InOrStdin())
		template = string(content)
	default:
		return runQueryREPL(cmd, resolver, qf, opts)
	}
	if err != nil {
		return err
	}

	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), resolver, template, qf, qf.QueryOptions(), opts)
}

// executeAndRender runs one page of template and renders it.
func executeAndRender(ctx context.Context, w io.Writer, q paging.RawQuerier, template string, qf *QueryFile, qopts core.QueryOptions, opts *QueryOptions) error {
	parsed := filters.ParseFilters(qf.CoreFilters(), qopts)

	page, err := paging.PagedRawQuery(ctx, q, parsed.Expand(template), parsed.Params(qf.Params), qopts, opts.Name)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return renderPage(w, page, opts.Format)
}

func runTableQuery(ctx context.Context, w io.Writer, q adapter.Querier, qf *QueryFile, opts *QueryOptions) error {
	qopts := qf.QueryOptions()
	model := paging.TableModel{Table: opts.Table, Columns: opts.Columns, Querier: q}
	criteria := paging.Criteria{Where: paging.SearchExpression(qopts.Search, opts.SearchColumns...)}

	page, err := paging.PagedQuery[core.Row](ctx, model, criteria, qopts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return renderPage(w, page, opts.Format)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
