package postgres

import (
	"net/url"
	"strings"
)

// invalidConnectionString replaces a DSN that cannot be parsed for logging.
const invalidConnectionString = "[invalid-connection-string]"

const mask = "***"

// NormalizeConnectionString trims value and reports whether anything is left.
func NormalizeConnectionString(value string) (string, bool) {
	v := strings.TrimSpace(value)
	return v, v != ""
}

// SanitizeConnectionString masks the user name and password of a URL style
// DSN for logging. Host-less URLs that reach a socket through the host query
// parameter are valid.
func SanitizeConnectionString(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return invalidConnectionString
	}

	if u.User != nil {
		user := u.User.Username()
		_, hasPassword := u.User.Password()
		switch {
		case user != "" && hasPassword:
			u.User = url.UserPassword(mask, mask)
		case user != "":
			u.User = url.User(mask)
		case hasPassword:
			u.User = url.UserPassword("", mask)
		}
	}

	// url escapes '*' in userinfo.
	return strings.ReplaceAll(u.String(), "%2A%2A%2A", mask)
}

// SplitSchema removes the "schema" query parameter from a URL style DSN and
// returns it separately. The driver would otherwise send it to the server
// as a runtime parameter. DSNs that are not URLs are returned unchanged.
func SplitSchema(dsn string) (clean string, schema string) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn, ""
	}

	q := u.Query()
	schema = q.Get("schema")
	if !q.Has("schema") {
		return dsn, ""
	}
	q.Del("schema")
	u.RawQuery = q.Encode()

	return u.String(), schema
}

// quoteIdentifier double-quotes a PostgreSQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
