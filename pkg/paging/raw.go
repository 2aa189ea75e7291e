package paging

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Framian/umami/pkg/core"
)

// RawQuerier runs a SQL template with {{name}} placeholders.
type RawQuerier interface {
	RawQuery(ctx context.Context, query string, data map[string]any, name string) ([]core.Row, error)
}

var validOrderByRx = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*(\.[a-zA-Z_][a-zA-Z_0-9]*)?$`)

// PagedRawQuery counts the rows of query, then fetches the requested page.
func PagedRawQuery(ctx context.Context, q RawQuerier, query string, params map[string]any, opts core.QueryOptions, name string) (*core.Page[core.Row], error) {
	statements, err := pageStatements(opts)
	if err != nil {
		return nil, err
	}

	countRows, err := q.RawQuery(ctx, "select count(*) as num from ("+query+") t", params, "")
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	count, err := firstCount(countRows)
	if err != nil {
		return nil, err
	}

	data, err := q.RawQuery(ctx, query+statements, params, name)
	if err != nil {
		return nil, err
	}

	return &core.Page[core.Row]{
		Data:     data,
		Count:    count,
		Page:     opts.PageNumber(),
		PageSize: opts.Size(),
		OrderBy:  opts.OrderBy,
	}, nil
}

// pageStatements renders the order and limit clauses, each on its own line.
func pageStatements(opts core.QueryOptions) (string, error) {
	var b strings.Builder
	if opts.OrderBy != "" {
		if !validOrderByRx.MatchString(opts.OrderBy) {
			return "", fmt.Errorf("invalid order by column %q", opts.OrderBy)
		}
		fmt.Fprintf(&b, "\norder by %s %s", opts.OrderBy, opts.Direction())
	}
	if opts.Paginated() {
		fmt.Fprintf(&b, "\nlimit %d offset %d", opts.Size(), opts.Offset())
	}
	return b.String(), nil
}

// firstCount reads the num column of the first row.
func firstCount(rows []core.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["num"])
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse count %q: %w", n, err)
		}
		return i, nil
	case []byte:
		return toInt64(string(n))
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
