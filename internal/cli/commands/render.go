package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Framian/umami/internal/cli/output"
	"github.com/Framian/umami/pkg/filters"
	"github.com/Framian/umami/pkg/sqltemplate"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	FiltersFile string
	Watch       bool
}

// RenderResult is a parameterized template.
type RenderResult struct {
	SQL     string   `json:"sql"`
	Params  []any    `json:"params"`
	Missing []string `json:"missing,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a SQL template with filters applied",
		Long: `Render a SQL template into parameterized SQL without running it.

The filters file supplies filters, extra params and paging options. Filter
fragments are spliced in at the ${joinSessionQuery}, ${dateQuery},
${filterQuery} and ${cohortQuery} markers, then every {{name}} placeholder
is replaced with a positional parameter.

Output adapts to environment:
  - Terminal: SQL followed by the parameter list
  - Piped/Scripted: Markdown with code block`,
		Example: `  # Render a report template
  umamidb render reports/pageviews.sql --filters filters.yaml

  # Render from stdin as JSON
  cat report.sql | umamidb render - --filters filters.yaml --output json

  # Re-render whenever the template or filters change
  umamidb render reports/pageviews.sql --filters filters.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.FiltersFile, "filters", "f", "", "YAML or JSON file with filters, params and options")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-render when the template or filters file changes")

	return cmd
}

func runRender(cmd *cobra.Command, path string, opts *RenderOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	render := func() error {
		template, err := readSource(cmd, path)
		if err != nil {
			return err
		}
		qf, err := LoadQueryFile(opts.FiltersFile)
		if err != nil {
			return err
		}
		return writeRender(r, RenderTemplate(template, qf))
	}

	if err := render(); err != nil {
		return err
	}
	if !opts.Watch || path == "-" {
		return nil
	}

	return watchFiles(cmd.Context(), cmdCtx, func() {
		if err := render(); err != nil {
			r.Warn(fmt.Sprintf("Error: %v", err))
		}
	}, path, opts.FiltersFile)
}

// RenderTemplate applies qf to template and parameterizes the result.
func RenderTemplate(template string, qf *QueryFile) RenderResult {
	parsed := filters.ParseFilters(qf.CoreFilters(), qf.QueryOptions())
	expanded := parsed.Expand(template)
	params := parsed.Params(qf.Params)

	sql, args := sqltemplate.Parameterize(expanded, params)

	var missing []string
	seen := map[string]bool{}
	for _, name := range sqltemplate.Names(expanded) {
		if _, ok := params[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}

	return RenderResult{SQL: sql, Params: args, Missing: missing}
}

func writeRender(r *output.Renderer, res RenderResult) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Rendered SQL"))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", res.SQL))
		if len(res.Params) > 0 {
			r.Println("")
			r.Println(output.FormatHeader(2, "Params"))
			for i, p := range res.Params {
				r.Println(output.FormatKeyValue(fmt.Sprintf("$%d", i+1), formatValue(p)))
			}
		}
	default:
		styles := r.Styles()
		r.Println(res.SQL)
		for i, p := range res.Params {
			r.Println(styles.Muted.Render(fmt.Sprintf("-- $%d = %s", i+1, formatValue(p))))
		}
	}

	for _, name := range res.Missing {
		r.Warn(fmt.Sprintf("warning: no value for {{%s}}", name))
	}
	return nil
}

// watchDebounce is how long the watcher waits for writes to settle.
var watchDebounce = 100 * time.Millisecond

// watchFiles calls fn after any of paths is written, until ctx is done.
// Directories are watched so editors that replace files are picked up.
// fn runs on the watching goroutine and never after ctx is done.
func watchFiles(ctx context.Context, cmdCtx *CommandContext, fn func(), paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	cmdCtx.Logger.Debug("watching for changes", "files", len(targets))

	var debounce *time.Timer
	var settled <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-settled:
			settled = nil
			if ctx.Err() != nil {
				return nil
			}
			fn()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !targets[filepath.Clean(event.Name)] {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(watchDebounce)
			settled = debounce.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Error("watcher error", "error", err)
		}
	}
}
