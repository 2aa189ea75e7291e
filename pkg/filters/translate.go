package filters

import (
	"strings"

	"github.com/Framian/umami/pkg/core"
)

// referrerSelfFilter drops referrals from the site to itself.
const referrerSelfFilter = "and (website_event.referrer_domain != website_event.hostname or website_event.referrer_domain is null)"

// MapFilter returns the predicate comparing column to the {{name}}
// placeholder, or "" for an operator without a SQL mapping.
func MapFilter(column string, operator core.Operator, name, typ string) string {
	value := "{{" + name
	if typ != "" {
		value += "::" + typ
	}
	value += "}}"

	switch operator {
	case core.OperatorEquals:
		return column + " = " + value
	case core.OperatorNotEquals:
		return column + " != " + value
	case core.OperatorContains:
		return column + " ilike " + value
	case core.OperatorDoesNotContain:
		return column + " not ilike " + value
	default:
		return ""
	}
}

// FilterQuery renders one "and ..." line per filter with a resolvable
// column. Filters without a column mapping, and operators without a SQL
// mapping, contribute nothing.
//
// With opts.IsCohort the column is looked up from the name with its
// "cohort_" prefix removed, so cohort_browser filters the browser column
// while still binding the {{cohort_browser}} placeholder.
func FilterQuery(filters core.Filters, opts core.QueryOptions) string {
	var lines []string

	for _, d := range Descriptors(filters, opts) {
		column := d.Column
		if opts.IsCohort {
			column = ""
			if base, ok := strings.CutPrefix(d.Name, core.CohortPrefix); ok {
				column = resolveColumn(base, opts.Columns)
			}
		}
		if column == "" {
			continue
		}

		predicate := MapFilter(d.Prefix+column, d.Operator, d.Name, "")
		if predicate == "" {
			continue
		}
		lines = append(lines, "and "+predicate)

		if d.Name == "referrer" {
			lines = append(lines, referrerSelfFilter)
		}
	}

	return strings.Join(lines, "\n")
}
