package paging

import (
	"context"
	"fmt"
	"strings"

	"github.com/Framian/umami/pkg/adapter"
	"github.com/Framian/umami/pkg/core"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
)

var dialect = goqu.Dialect("postgres")

// TableModel is a Model over a single table, executed through a Querier.
type TableModel struct {
	Table   string
	Columns []string // empty selects *
	Querier adapter.Querier
}

var _ Model[core.Row] = TableModel{}

// FindMany implements Model.
func (m TableModel) FindMany(ctx context.Context, criteria Criteria) ([]core.Row, error) {
	ds := dialect.From(goqu.T(m.Table)).Prepared(true)
	if len(m.Columns) > 0 {
		cols := make([]any, len(m.Columns))
		for i, c := range m.Columns {
			cols[i] = goqu.I(c)
		}
		ds = ds.Select(cols...)
	}
	if criteria.Where != nil {
		ds = ds.Where(criteria.Where)
	}
	for _, o := range criteria.OrderBy {
		if o.Descending {
			ds = ds.OrderAppend(goqu.I(o.Column).Desc())
		} else {
			ds = ds.OrderAppend(goqu.I(o.Column).Asc())
		}
	}
	if criteria.Take != nil {
		ds = ds.Limit(uint(*criteria.Take))
	}
	if criteria.Skip != nil && *criteria.Skip > 0 {
		ds = ds.Offset(uint(*criteria.Skip))
	}

	sqlText, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", m.Table, err)
	}
	return m.Querier.QueryRows(ctx, sqlText, args...)
}

// Count implements Model.
func (m TableModel) Count(ctx context.Context, where exp.Expression) (int64, error) {
	ds := dialect.From(goqu.T(m.Table)).Prepared(true).Select(goqu.COUNT(goqu.Star()).As("num"))
	if where != nil {
		ds = ds.Where(where)
	}

	sqlText, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s count: %w", m.Table, err)
	}

	rows, err := m.Querier.QueryRows(ctx, sqlText, args...)
	if err != nil {
		return 0, err
	}
	return firstCount(rows)
}

// SearchExpression matches query case-insensitively anywhere in any of the
// columns. It returns nil for a blank query.
func SearchExpression(query string, columns ...string) exp.Expression {
	query = strings.TrimSpace(query)
	if query == "" || len(columns) == 0 {
		return nil
	}

	pattern := "%" + query + "%"
	ors := make([]exp.Expression, len(columns))
	for i, c := range columns {
		ors[i] = goqu.I(c).ILike(pattern)
	}
	return goqu.Or(ors...)
}
