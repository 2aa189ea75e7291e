package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Framian/umami/pkg/core"
	"github.com/jedib0t/go-pretty/v6/table"
)

// renderPage writes a page of rows in the given format. Table and markdown
// output end with a page summary line; csv and json stay machine readable.
func renderPage(w io.Writer, page *core.Page[core.Row], format string) error {
	cols := columnsOf(page.Data)

	switch format {
	case "json":
		return renderJSON(w, page)
	case "csv":
		return renderCSV(w, cols, page.Data)
	case "md", "markdown":
		if err := renderMarkdown(w, cols, page.Data); err != nil {
			return err
		}
	default:
		if err := renderTable(w, cols, page.Data); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(w, pageSummary(page))
	return nil
}

// columnsOf returns the sorted union of row keys.
func columnsOf(rows []core.Row) []string {
	seen := map[string]bool{}
	var cols []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func pageSummary(page *core.Page[core.Row]) string {
	if page.PageSize <= 0 {
		return fmt.Sprintf("(%d of %d rows)", len(page.Data), page.Count)
	}
	return fmt.Sprintf("(%d of %d rows, page %d, %d per page)", len(page.Data), page.Count, page.Page, page.PageSize)
}

func renderTable(w io.Writer, cols []string, results []core.Row) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range results {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	return nil
}

func renderJSON(w io.Writer, page *core.Page[core.Row]) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}

func renderCSV(w io.Writer, cols []string, results []core.Row) error {
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(formatValue(result[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, results []core.Row) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(result[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
