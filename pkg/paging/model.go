package paging

import (
	"context"
	"fmt"

	"github.com/Framian/umami/pkg/core"
	"github.com/doug-martin/goqu/v9/exp"
)

// Order is a single ordering key.
type Order struct {
	Column     string
	Descending bool
}

// Criteria selects rows from a Model.
type Criteria struct {
	Where   exp.Expression
	OrderBy []Order
	Take    *int
	Skip    *int
}

// Model is a row source that can list and count matching rows.
type Model[T any] interface {
	FindMany(ctx context.Context, criteria Criteria) ([]T, error)
	Count(ctx context.Context, where exp.Expression) (int64, error)
}

// PagedQuery lists one page of model rows matching criteria and counts all
// matching rows. Take and Skip are only set when the page size is positive,
// and opts.OrderBy replaces any ordering in criteria.
func PagedQuery[T any](ctx context.Context, model Model[T], criteria Criteria, opts core.QueryOptions) (*core.Page[T], error) {
	size := opts.Size()
	if size > 0 {
		take, skip := size, opts.Offset()
		criteria.Take = &take
		criteria.Skip = &skip
	}
	if opts.OrderBy != "" {
		criteria.OrderBy = []Order{{Column: opts.OrderBy, Descending: opts.SortDescending}}
	}

	data, err := model.FindMany(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to find rows: %w", err)
	}

	count, err := model.Count(ctx, criteria.Where)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	return &core.Page[T]{
		Data:     data,
		Count:    count,
		Page:     opts.PageNumber(),
		PageSize: size,
		OrderBy:  opts.OrderBy,
		Search:   opts.Search,
	}, nil
}
