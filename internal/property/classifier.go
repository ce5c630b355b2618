package property

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Classify infers the semantic type of value given its property key.
//
// Numeric values classify as Numeric, strings as String; both may be
// reclassified to DateTime. Strings are first tried against DateTimePatterns
// in order; afterwards (matched or not) the unix-timestamp detection runs and
// overrides an earlier match. Unix-timestamp detection only applies when the
// key contains "timestamp" or "time" (case-insensitive): ten digits of epoch
// seconds has the same shape as any big numeric ID, so the key hint is what
// separates the two.
//
// Values that are neither numeric nor string (booleans, nil, objects) yield
// a nil/nil Inference; absence of a match is a defined outcome, not an error.
func Classify(value any, key string) Inference {
	var inf Inference

	detectUnixTimestamp := func(s string) {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "timestamp") && !strings.Contains(lower, "time") {
			return
		}
		for _, p := range UnixTimestampPatterns {
			if p.Matcher.MatchString(s) {
				inf.Type = typePtr(TypeDateTime)
				inf.Format = formatPtr(p.Format)
				return
			}
		}
	}

	if s, ok := value.(string); ok {
		inf.Type = typePtr(TypeString)
		for _, p := range DateTimePatterns {
			if p.Matcher.MatchString(s) {
				inf.Type = typePtr(TypeDateTime)
				inf.Format = formatPtr(p.Format)
				break
			}
		}
		detectUnixTimestamp(s)
		return inf
	}

	if s, ok := numericString(value); ok {
		inf.Type = typePtr(TypeNumeric)
		detectUnixTimestamp(s)
		return inf
	}

	return inf
}

// numericString reports whether value is numeric and returns its decimal
// string form. Floats use the shortest representation that round-trips, so
// fractional unix timestamps keep their digits after the decimal point.
func numericString(value any) (string, bool) {
	switch v := value.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func typePtr(t Type) *Type       { return &t }
func formatPtr(f Format) *Format { return &f }
