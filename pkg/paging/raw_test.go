package paging

import (
	"context"
	"testing"

	"github.com/Framian/umami/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawCall struct {
	query string
	data  map[string]any
	name  string
}

type fakeRaw struct {
	calls   []rawCall
	results [][]core.Row
	errs    []error
}

func (f *fakeRaw) RawQuery(_ context.Context, query string, data map[string]any, name string) ([]core.Row, error) {
	i := len(f.calls)
	f.calls = append(f.calls, rawCall{query: query, data: data, name: name})
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], err
	}
	return nil, err
}

func TestPagedRawQuery(t *testing.T) {
	const query = "select * from website where user_id = {{userId}}"
	params := map[string]any{"userId": "u1"}

	tests := []struct {
		name     string
		opts     core.QueryOptions
		dataSQL  string
		page     int
		pageSize int
	}{
		{
			name:     "defaults",
			opts:     core.QueryOptions{},
			dataSQL:  query + "\nlimit 20 offset 0",
			page:     1,
			pageSize: 20,
		},
		{
			name:     "ordered second page",
			opts:     core.QueryOptions{Page: 2, PageSize: core.IntPtr(5), OrderBy: "created_at", SortDescending: true},
			dataSQL:  query + "\norder by created_at desc\nlimit 5 offset 5",
			page:     2,
			pageSize: 5,
		},
		{
			name:     "qualified ascending order",
			opts:     core.QueryOptions{PageSize: core.IntPtr(10), OrderBy: "website.name"},
			dataSQL:  query + "\norder by website.name asc\nlimit 10 offset 0",
			page:     1,
			pageSize: 10,
		},
		{
			name:     "unpaginated",
			opts:     core.QueryOptions{Page: 4, PageSize: core.IntPtr(-1)},
			dataSQL:  query,
			page:     4,
			pageSize: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeRaw{results: [][]core.Row{
				{{"num": int64(12)}},
				{{"website_id": "w1"}},
			}}

			page, err := PagedRawQuery(context.Background(), q, query, params, tt.opts, "websites")
			require.NoError(t, err)

			require.Len(t, q.calls, 2)
			assert.Equal(t, "select count(*) as num from ("+query+") t", q.calls[0].query)
			assert.Equal(t, params, q.calls[0].data)
			assert.Equal(t, tt.dataSQL, q.calls[1].query)
			assert.Equal(t, params, q.calls[1].data)
			assert.Equal(t, "websites", q.calls[1].name)

			assert.Equal(t, int64(12), page.Count)
			assert.Equal(t, []core.Row{{"website_id": "w1"}}, page.Data)
			assert.Equal(t, tt.page, page.Page)
			assert.Equal(t, tt.pageSize, page.PageSize)
			assert.Equal(t, tt.opts.OrderBy, page.OrderBy)
		})
	}
}

func TestPagedRawQuery_InvalidOrderBy(t *testing.T) {
	q := &fakeRaw{}
	_, err := PagedRawQuery(context.Background(), q, "select 1", nil,
		core.QueryOptions{OrderBy: "name; drop table website"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order by column")
	assert.Empty(t, q.calls)
}

func TestPagedRawQuery_CountErrorSkipsDataQuery(t *testing.T) {
	q := &fakeRaw{errs: []error{assert.AnError}}
	_, err := PagedRawQuery(context.Background(), q, "select 1", nil, core.QueryOptions{}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, q.calls, 1)
}

func TestPagedRawQuery_DataError(t *testing.T) {
	q := &fakeRaw{
		results: [][]core.Row{{{"num": int64(1)}}},
		errs:    []error{nil, assert.AnError},
	}
	_, err := PagedRawQuery(context.Background(), q, "select 1", nil, core.QueryOptions{}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		expected  int64
		expectErr bool
	}{
		{name: "nil", value: nil, expected: 0},
		{name: "int64", value: int64(7), expected: 7},
		{name: "int32", value: int32(7), expected: 7},
		{name: "int", value: 7, expected: 7},
		{name: "float64", value: float64(7), expected: 7},
		{name: "string", value: "7", expected: 7},
		{name: "bytes", value: []byte("7"), expected: 7},
		{name: "bad string", value: "seven", expectErr: true},
		{name: "unsupported", value: true, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := toInt64(tt.value)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestFirstCount_NoRows(t *testing.T) {
	n, err := firstCount(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
