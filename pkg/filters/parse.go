package filters

import (
	"maps"
	"slices"
	"strings"

	"github.com/Framian/umami/pkg/core"
)

const joinSessionQuery = "inner join session on website_event.session_id = session.session_id and website_event.website_id = session.website_id"

// ParsedFilters holds every fragment a report query needs from one filter
// set, plus the values to parameterize them with.
type ParsedFilters struct {
	JoinSessionQuery string
	DateQuery        string
	FilterQuery      string
	CohortQuery      string
	QueryParams      map[string]any
}

// ParseFilters derives all query fragments from filters.
func ParseFilters(filters core.Filters, opts core.QueryOptions) ParsedFilters {
	parsed := ParsedFilters{
		DateQuery:   DateQuery(filters),
		FilterQuery: FilterQuery(filters, opts),
		QueryParams: QueryParams(filters),
		CohortQuery: CohortQuery(CohortFilters(filters)),
	}

	if opts.JoinSession || needsSession(filters) {
		parsed.JoinSessionQuery = joinSessionQuery
	}

	return parsed
}

func needsSession(filters core.Filters) bool {
	for name := range filters {
		if name == "referrer" || slices.Contains(SessionColumns, name) {
			return true
		}
	}
	return false
}

// DateQuery restricts website_event.created_at to the startDate/endDate
// range. Only a start date yields an open range; no start date yields "".
func DateQuery(filters core.Filters) string {
	if !present(filters, "startDate") {
		return ""
	}
	if present(filters, "endDate") {
		return "and website_event.created_at between {{startDate}} and {{endDate}}"
	}
	return "and website_event.created_at >= {{startDate}}"
}

func present(filters core.Filters, name string) bool {
	v, ok := filters[name]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// Expand splices the fragments into template at the ${joinSessionQuery},
// ${dateQuery}, ${filterQuery} and ${cohortQuery} markers.
func (p ParsedFilters) Expand(template string) string {
	return strings.NewReplacer(
		"${joinSessionQuery}", p.JoinSessionQuery,
		"${dateQuery}", p.DateQuery,
		"${filterQuery}", p.FilterQuery,
		"${cohortQuery}", p.CohortQuery,
	).Replace(template)
}

// Params returns QueryParams overlaid with extra.
func (p ParsedFilters) Params(extra map[string]any) map[string]any {
	params := make(map[string]any, len(p.QueryParams)+len(extra))
	maps.Copy(params, p.QueryParams)
	maps.Copy(params, extra)
	return params
}
