package filters

import (
	"strings"

	"github.com/Framian/umami/pkg/core"
)

// CohortFilters returns the subset of filters whose names carry the
// cohort_ prefix.
func CohortFilters(filters core.Filters) core.Filters {
	cohort := core.Filters{}
	for name, value := range filters {
		if strings.HasPrefix(name, core.CohortPrefix) {
			cohort[name] = value
		}
	}
	return cohort
}

// CohortQuery builds a join restricting website_event rows to sessions
// matching the cohort filters within the cohort date range. It expects the
// cohort_ subset of the filters and returns "" when that subset is empty.
//
// The fragment binds {{websiteId}}, {{cohort_startDate}} and
// {{cohort_endDate}} in addition to the filter placeholders.
func CohortQuery(filters core.Filters) string {
	if len(filters) == 0 {
		return ""
	}

	filterQuery := FilterQuery(filters, core.QueryOptions{IsCohort: true})

	return `join
    (select distinct website_event.session_id
    from website_event
    join session on session.session_id = website_event.session_id
      and session.website_id = website_event.website_id
    where website_event.website_id = {{websiteId}}
      and website_event.created_at between {{cohort_startDate}} and {{cohort_endDate}}
      ` + filterQuery + `
    ) cohort
    on cohort.session_id = website_event.session_id
    `
}
