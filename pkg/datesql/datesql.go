// Package datesql generates PostgreSQL date and time expressions for
// report queries. Every function returns SQL text; nothing is executed.
package datesql

import (
	"strings"
)

// Unit is a date truncation granularity.
type Unit string

// Supported units.
const (
	Minute Unit = "minute"
	Hour   Unit = "hour"
	Day    Unit = "day"
	Month  Unit = "month"
	Year   Unit = "year"
)

// dateFormats label buckets in the requested local timezone.
var dateFormats = map[Unit]string{
	Minute: "YYYY-MM-DD HH24:MI:00",
	Hour:   "YYYY-MM-DD HH24:00:00",
	Day:    "YYYY-MM-DD HH24:00:00",
	Month:  "YYYY-MM-01 HH24:00:00",
	Year:   "YYYY-01-01 HH24:00:00",
}

// dateFormatsUTC label buckets as UTC instants. Consumers rely on the
// trailing Z to tell the two apart.
var dateFormatsUTC = map[Unit]string{
	Minute: `YYYY-MM-DD"T"HH24:MI:00"Z"`,
	Hour:   `YYYY-MM-DD"T"HH24:00:00"Z"`,
	Day:    `YYYY-MM-DD"T"HH24:00:00"Z"`,
	Month:  `YYYY-MM-01"T"HH24:00:00"Z"`,
	Year:   `YYYY-01-01"T"HH24:00:00"Z"`,
}

// AddIntervalQuery returns field + interval '<interval>'.
func AddIntervalQuery(field, interval string) string {
	return field + " + interval " + quote(interval)
}

// DayDiffQuery returns the number of days between two timestamps.
func DayDiffQuery(field1, field2 string) string {
	return field1 + "::date - " + field2 + "::date"
}

// CastColumnQuery casts field to typ.
func CastColumnQuery(field, typ string) string {
	return field + "::" + typ
}

// IsUTC reports whether timezone selects UTC bucketing.
func IsUTC(timezone string) bool {
	return timezone == "" || strings.EqualFold(timezone, "utc")
}

// DateSQL truncates field to unit and formats the bucket label. With a
// non-UTC timezone the field is converted first and the label is local;
// otherwise the label is a UTC instant ending in Z. Unknown units are
// treated as Day.
func DateSQL(field string, unit Unit, timezone string) string {
	if _, ok := dateFormats[unit]; !ok {
		unit = Day
	}

	if !IsUTC(timezone) {
		return "to_char(date_trunc(" + quote(string(unit)) + ", " + field + " at time zone " + quote(timezone) + "), " +
			quote(dateFormats[unit]) + ")"
	}

	return "to_char(date_trunc(" + quote(string(unit)) + ", " + field + "), " + quote(dateFormatsUTC[unit]) + ")"
}

// DateWeeklySQL buckets field into "<day of week>:<HH>" in timezone, for
// weekly activity heatmaps. An empty timezone means UTC.
func DateWeeklySQL(field, timezone string) string {
	if timezone == "" {
		timezone = "utc"
	}
	local := "(" + field + " at time zone " + quote(timezone) + ")"
	return "concat(extract(dow from " + local + "), ':', to_char(" + local + ", 'HH24'))"
}

// TimestampSQL returns whole epoch seconds of field.
func TimestampSQL(field string) string {
	return "floor(extract(epoch from " + field + "))"
}

// TimestampDiffSQL returns whole seconds elapsed from field1 to field2.
func TimestampDiffSQL(field1, field2 string) string {
	return "floor(extract(epoch from (" + field2 + " - " + field1 + ")))"
}

// SearchSQL returns a case-insensitive match of column against the
// {{param}} placeholder. param defaults to "search".
func SearchSQL(column, param string) string {
	if param == "" {
		param = "search"
	}
	return "and " + column + " ilike {{" + param + "}}"
}

// quote renders s as a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
