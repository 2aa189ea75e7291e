package core

// Operator identifies how a filter value is compared against its column.
type Operator string

// Operator values. Only the first four map to SQL; the rest are recognized
// so callers can pass them through, but they produce no predicate.
const (
	OperatorEquals            Operator = "eq"
	OperatorNotEquals         Operator = "neq"
	OperatorContains          Operator = "c"
	OperatorDoesNotContain    Operator = "dnc"
	OperatorSet               Operator = "s"
	OperatorNotSet            Operator = "ns"
	OperatorTrue              Operator = "t"
	OperatorFalse             Operator = "f"
	OperatorGreaterThan       Operator = "gt"
	OperatorLessThan          Operator = "lt"
	OperatorGreaterThanEquals Operator = "gte"
	OperatorLessThanEquals    Operator = "lte"
	OperatorBefore            Operator = "bf"
	OperatorAfter             Operator = "af"
)

// IsLike reports whether the operator is a wildcard match.
func (o Operator) IsLike() bool {
	return o == OperatorContains || o == OperatorDoesNotContain
}

// CohortPrefix marks a filter as belonging to the cohort predicate.
const CohortPrefix = "cohort_"

// Filters maps a filter name to its value.
//
// A string value may carry its operator as a prefix ("!~" does not contain,
// "!" not equals, "~" contains, none equals). A Filter value carries the
// operator explicitly. Any other value is compared for equality.
type Filters map[string]any

// Filter is an explicit operator/value pair stored in Filters.
type Filter struct {
	Operator Operator
	Value    any
}

// FilterDescriptor is the resolved form of a single filter.
type FilterDescriptor struct {
	Name     string
	Column   string // empty when the name has no column mapping
	Operator Operator
	Value    any
	Prefix   string
}
