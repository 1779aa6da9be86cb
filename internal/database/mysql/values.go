package mysql

import (
	"regexp"
	"time"
)

// mysqlTimeLayout is the literal form MySQL accepts for DATETIME and TIMESTAMP.
const mysqlTimeLayout = "2006-01-02 15:04:05"

var isoDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?$`)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05-0700",
}

// normalizeValue rewrites a mutation value into a form MySQL accepts.
// Times and ISO-8601 strings become DATETIME literals in UTC, and booleans
// become 1 or 0 since MySQL stores them as TINYINT.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(mysqlTimeLayout)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(mysqlTimeLayout)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		switch val {
		case "true":
			return 1
		case "false":
			return 0
		}
		if isoDateTime.MatchString(val) {
			if t, ok := parseISO(val); ok {
				return t.UTC().Format(mysqlTimeLayout)
			}
		}
		return val
	default:
		return v
	}
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
