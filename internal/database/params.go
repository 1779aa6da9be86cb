package database

import (
	"net/url"
	"sort"
	"strings"
)

const (
	filterPrefix = "filters["
	sortPrefix   = "sort["
)

// Param is a single key/value pair from a query string.
type Param struct {
	Key   string
	Value string
}

// ParseQuery parses filters and sorts from a raw query string, keeping the
// order in which they appear. Malformed pairs are skipped.
func ParseQuery(rawQuery string) ([]Filter, []Sort) {
	var params []Param
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		params = append(params, Param{Key: k, Value: v})
	}
	return ParseParams(params)
}

// ParseValues parses filters and sorts from url.Values. Keys are visited in
// sorted order since url.Values does not keep insertion order.
func ParseValues(values url.Values) ([]Filter, []Sort) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]Param, 0, len(keys))
	for _, k := range keys {
		for _, v := range values[k] {
			params = append(params, Param{Key: k, Value: v})
		}
	}
	return ParseParams(params)
}

// ParseParams converts bracket-notation pairs into filters and sorts.
//
//	filters[age]=">:25"  -> Filter{Column: "age", Operator: ">", Value: "25"}
//	sort[name]=desc      -> Sort{Column: "name", Direction: "desc"}
//
// The filter value is split from its operator on the first colon only.
// Filters with an unknown operator or an empty value are dropped, as are
// sorts whose direction is not exactly asc or desc.
func ParseParams(params []Param) ([]Filter, []Sort) {
	var filters []Filter
	var sorts []Sort

	for _, p := range params {
		if column, ok := bracketKey(p.Key, filterPrefix); ok {
			op, value, found := strings.Cut(p.Value, ":")
			if !found || value == "" {
				continue
			}
			operator := Operator(op)
			if !operator.Valid() {
				continue
			}
			filters = append(filters, Filter{Column: column, Operator: operator, Value: value})
			continue
		}

		if column, ok := bracketKey(p.Key, sortPrefix); ok {
			dir := Direction(p.Value)
			if !dir.Valid() {
				continue
			}
			sorts = append(sorts, Sort{Column: column, Direction: dir})
		}
	}

	return filters, sorts
}

// The escapers cover only what ParseQuery would otherwise misread, so the
// encoded form stays readable: filters[age]=>:25&sort[name]=asc. Values may
// keep "=" since pairs are split on the first one.
var (
	keyEscaper   = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D", "+", "%2B")
	valueEscaper = strings.NewReplacer("%", "%25", "&", "%26", "+", "%2B")
)

// EncodeQuery serializes filters and sorts into the bracket notation read by
// ParseQuery.
func EncodeQuery(filters []Filter, sorts []Sort) string {
	parts := make([]string, 0, len(filters)+len(sorts))
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		parts = append(parts,
			keyEscaper.Replace(filterPrefix+f.Column+"]")+"="+valueEscaper.Replace(string(f.Operator)+":"+f.Value))
	}
	for _, s := range sorts {
		parts = append(parts,
			keyEscaper.Replace(sortPrefix+s.Column+"]")+"="+valueEscaper.Replace(string(s.Direction)))
	}
	return strings.Join(parts, "&")
}

func bracketKey(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "]") {
		return "", false
	}
	column := key[len(prefix) : len(key)-1]
	if column == "" {
		return "", false
	}
	return column, true
}
