// Package filters translates filter sets into SQL predicate fragments and
// the matching placeholder values.
//
// Fragments reference placeholders by filter name ({{browser}}), never the
// filter value itself; values only reach the database through
// sqltemplate.Parameterize.
package filters

// FilterColumns maps filter names to website_event / session columns.
var FilterColumns = map[string]string{
	"path":        "url_path",
	"entry":       "url_path",
	"exit":        "url_path",
	"referrer":    "referrer_domain",
	"domain":      "referrer_domain",
	"title":       "page_title",
	"query":       "url_query",
	"os":          "os",
	"browser":     "browser",
	"device":      "device",
	"country":     "country",
	"region":      "region",
	"city":        "city",
	"language":    "language",
	"event":       "event_name",
	"tag":         "tag",
	"hostname":    "hostname",
	"distinctId":  "distinct_id",
	"utmSource":   "utm_source",
	"utmMedium":   "utm_medium",
	"utmCampaign": "utm_campaign",
	"utmContent":  "utm_content",
	"utmTerm":     "utm_term",
}

// SessionColumns are filters that live on the session table and therefore
// require joining it.
var SessionColumns = []string{
	"browser",
	"os",
	"device",
	"screen",
	"language",
	"country",
	"region",
	"city",
	"hostname",
	"distinctId",
}
