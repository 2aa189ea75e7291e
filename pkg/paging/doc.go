// Package paging wraps queries with page-based limits and a total count.
//
// PagedQuery works against any Model, such as TableModel. PagedRawQuery
// wraps a raw SQL template: it counts the full result set first, then runs
// the query with order, limit and offset clauses appended. The two
// statements are not run in a transaction, so the count may drift from the
// page contents under concurrent writes.
package paging
