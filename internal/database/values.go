package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ISOTimeLayout is the layout used for every temporal value leaving an adapter.
const ISOTimeLayout = "2006-01-02T15:04:05.000Z"

// Stringify renders a driver value in its string form.
// nil becomes "", booleans become "true"/"false", times become ISO-8601 in
// UTC, maps and slices become JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(ISOTimeLayout)
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *big.Int:
		return val.String()
	case [16]byte:
		return uuid.UUID(val).String()
	case uuid.UUID:
		return val.String()
	case json.RawMessage:
		return string(val)
	case map[string]any, []any:
		return marshalJSON(val)
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		if _, same := inner.(driver.Valuer); same {
			return fmt.Sprint(inner)
		}
		return Stringify(inner)
	case fmt.Stringer:
		return val.String()
	default:
		return marshalJSON(val)
	}
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// StringifyRow builds a Row from parallel column and value slices.
func StringifyRow(columns []string, values []any) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		if i < len(values) {
			row[col] = Stringify(values[i])
		} else {
			row[col] = ""
		}
	}
	return row
}

// SortedKeys returns the keys of m in lexical order. Adapters use it so that
// generated SQL and bound arguments are deterministic.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var readPrefixes = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "VALUES", "TABLE", "PRAGMA"}

var leadingComments = regexp.MustCompile(`(?s)^(\s*(--[^\n]*\n|/\*.*?\*/))*\s*`)

// IsReadQuery reports whether query returns a result set rather than a row count.
func IsReadQuery(query string) bool {
	return HasLeadingKeyword(query, readPrefixes...)
}

// HasLeadingKeyword reports whether the first word of query, after comments
// and opening parentheses, is one of keywords. Keywords must be upper case.
func HasLeadingKeyword(query string, keywords ...string) bool {
	q := strings.ToUpper(leadingComments.ReplaceAllString(query, ""))
	q = strings.TrimLeft(q, "(")
	for _, kw := range keywords {
		if strings.HasPrefix(q, kw) {
			rest := q[len(kw):]
			if rest == "" || !isIdentByte(rest[0]) {
				return true
			}
		}
	}
	return false
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
