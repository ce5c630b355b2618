// Package property infers the semantic type of incoming event property values.
//
// Classification is a pure function over the (key, value) pair: numeric and
// string values may be recognized as date/time representations, everything
// else yields no inference. The pattern tables below are ordered and the
// order is load-bearing: overlapping patterns rely on first-match-wins.
package property

import "regexp"

// Type is the inferred semantic type of a property value.
type Type string

const (
	TypeNumeric  Type = "Numeric"
	TypeString   Type = "String"
	TypeDateTime Type = "DateTime"
	TypeBoolean  Type = "Boolean"
)

// Format narrows a DateTime inference to the concrete representation found.
type Format string

const (
	FormatUnixTimestampSeconds Format = "unix_timestamp"
	FormatUnixTimestampMillis  Format = "unix_timestamp_milliseconds"
	FormatDate                 Format = "YYYY-MM-DD"
	FormatISO8601              Format = "YYYY-MM-DDThh:mm:ssZ"
	FormatFullDate             Format = "YYYY-MM-DD hh:mm:ss"
	FormatFullDateDMY          Format = "DD-MM-YYYY hh:mm:ss"
	FormatSlashDate            Format = "YYYY/MM/DD hh:mm:ss"
	FormatSlashDateDMY         Format = "DD/MM/YYYY hh:mm:ss"
	FormatRFC822               Format = "rfc_822"
)

// Inference is the outcome of classifying one (key, value) pair.
// Format is non-nil only when Type is DateTime.
type Inference struct {
	Type   *Type   `json:"propertyType"`
	Format *Format `json:"propertyTypeFormat"`
}

// Pattern pairs a format tag with its matcher. Patterns anchor the full value.
type Pattern struct {
	Format  Format
	Matcher *regexp.Regexp
}

// DateTimePatterns is the ordered table of date/time string formats.
// Evaluated in slice order, first match wins. Do not reorder: DATE must be
// tried before the ISO8601 variant and the increasing (day-first) variants
// must follow their year-first counterparts.
var DateTimePatterns = []Pattern{
	{FormatDate, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
	{FormatISO8601, regexp.MustCompile(`(?i)^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?(?:\d{2})?)$`)},
	{FormatFullDate, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)},
	{FormatFullDateDMY, regexp.MustCompile(`^\d{2}-\d{2}-\d{4} \d{2}:\d{2}:\d{2}$`)},
	{FormatSlashDate, regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}$`)},
	{FormatSlashDateDMY, regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}$`)},
	// see https://datatracker.ietf.org/doc/html/rfc2822#section-3.3
	{FormatRFC822, regexp.MustCompile(`(?i)^((mon|tue|wed|thu|fri|sat|sun), )?\d{2} (jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec) \d{4} \d{2}:\d{2}:\d{2}( [+|-]\d{4})?$`)},
}

// UnixTimestampPatterns is the ordered table of unix-timestamp shapes:
// ten digits with an optional fractional part (seconds), or exactly
// thirteen digits (milliseconds). Evaluated in slice order, first match wins.
var UnixTimestampPatterns = []Pattern{
	{FormatUnixTimestampSeconds, regexp.MustCompile(`^\d{10}(\.\d*)?$`)},
	{FormatUnixTimestampMillis, regexp.MustCompile(`^\d{13}$`)},
}
