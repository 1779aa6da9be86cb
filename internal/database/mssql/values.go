package mssql

import (
	"database/sql"
	"regexp"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/joacominatel/dbdeck/internal/database"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}(:\d{2}(\.\d+)?)?$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}( \d{1,2}:\d{2}(:\d{2})?)?$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}( \d{1,2}:\d{2}(:\d{2})?)?$`),
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1-2-2006",
	"1-2-2006 15:04",
	"1-2-2006 15:04:05",
}

// parseDate reports whether s looks like a date and parses as one.
func parseDate(s string) (time.Time, bool) {
	matched := false
	for _, re := range datePatterns {
		if re.MatchString(s) {
			matched = true
			break
		}
	}
	if !matched {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isTemporalType(dataType string) bool {
	dt := strings.ToLower(dataType)
	return strings.Contains(dt, "date") || strings.Contains(dt, "time")
}

// coerceDates converts date-like strings to time.Time, limited to columns
// whose declared type is temporal.
func coerceDates(data map[string]any, types database.ColumnTypes) map[string]any {
	out := make(map[string]any, len(data))
	for col, v := range data {
		out[col] = v
		s, ok := v.(string)
		if !ok {
			continue
		}
		ct, ok := types.Lookup(col)
		if !ok || !isTemporalType(ct.DataType) {
			continue
		}
		if t, ok := parseDate(s); ok {
			out[col] = t
		}
	}
	return out
}

// convertValue renders UNIQUEIDENTIFIER bytes in their canonical form.
func convertValue(ct *sql.ColumnType, v any) any {
	b, ok := v.([]byte)
	if !ok || len(b) != 16 || ct == nil || ct.DatabaseTypeName() != "UNIQUEIDENTIFIER" {
		return v
	}
	var id mssql.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return v
	}
	return id.String()
}
