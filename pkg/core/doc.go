// Package core defines the shared language of the query layer.
//
// This package contains:
//   - Filter vocabulary (Filters, Filter, FilterDescriptor, Operator)
//   - Query configuration (QueryOptions)
//   - Result shapes (Row, Page)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
