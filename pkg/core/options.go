package core

// DefaultPageSize is used when QueryOptions.PageSize is nil.
const DefaultPageSize = 20

// QueryOptions configures filter translation and pagination.
// Every field is optional.
type QueryOptions struct {
	Page           int  // 1-based, defaults to 1
	PageSize       *int // nil uses DefaultPageSize, <= 0 disables paging
	OrderBy        string
	SortDescending bool
	Search         string

	JoinSession bool
	IsCohort    bool

	// Prefix is prepended to every resolved column, e.g. "website_event.".
	Prefix string
	// Columns overrides the static filter to column mapping.
	Columns map[string]string
}

// IntPtr returns a pointer to n, for QueryOptions.PageSize literals.
func IntPtr(n int) *int {
	return &n
}

// PageNumber returns the effective 1-based page.
func (o QueryOptions) PageNumber() int {
	if o.Page < 1 {
		return 1
	}
	return o.Page
}

// Size returns the effective page size. Zero or negative means unpaginated.
func (o QueryOptions) Size() int {
	if o.PageSize == nil {
		return DefaultPageSize
	}
	return *o.PageSize
}

// Paginated reports whether limit and offset should be applied.
func (o QueryOptions) Paginated() bool {
	return o.Size() > 0
}

// Offset returns the number of rows to skip for the current page.
func (o QueryOptions) Offset() int {
	return o.Size() * (o.PageNumber() - 1)
}

// Direction returns "desc" or "asc".
func (o QueryOptions) Direction() string {
	if o.SortDescending {
		return "desc"
	}
	return "asc"
}
