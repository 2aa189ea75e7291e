package core

// Row is a single result row keyed by column name.
type Row map[string]any

// Page is a slice of results together with the total count.
type Page[T any] struct {
	Data     []T    `json:"data"`
	Count    int64  `json:"count"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	OrderBy  string `json:"orderBy,omitempty"`
	Search   string `json:"search,omitempty"`
}
