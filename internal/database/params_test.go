package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_FilterAndSort(t *testing.T) {
	filters, sorts := ParseQuery("filters%5Bage%5D=%3E%3A25&sort%5Bname%5D=desc")

	require.Len(t, filters, 1)
	assert.Equal(t, Filter{Column: "age", Operator: OpGt, Value: "25"}, filters[0])
	require.Len(t, sorts, 1)
	assert.Equal(t, Sort{Column: "name", Direction: Desc}, sorts[0])
}

func TestParseQuery_PreservesOrder(t *testing.T) {
	filters, sorts := ParseQuery("sort[b]=asc&filters[z]==:1&sort[a]=desc&filters[y]=LIKE:%25x%25")

	require.Len(t, filters, 2)
	assert.Equal(t, "z", filters[0].Column)
	assert.Equal(t, "y", filters[1].Column)
	assert.Equal(t, "%x%", filters[1].Value)
	require.Len(t, sorts, 2)
	assert.Equal(t, "b", sorts[0].Column)
	assert.Equal(t, "a", sorts[1].Column)
}

func TestParseParams_ValueKeepsColons(t *testing.T) {
	filters, _ := ParseParams([]Param{{Key: "filters[created_at]", Value: ">=:2024-01-01 10:00:00"}})

	require.Len(t, filters, 1)
	assert.Equal(t, OpGte, filters[0].Operator)
	assert.Equal(t, "2024-01-01 10:00:00", filters[0].Value)
}

func TestParseParams_Dropped(t *testing.T) {
	tests := []struct {
		name  string
		param Param
	}{
		{"empty value", Param{Key: "filters[age]", Value: "=:"}},
		{"missing colon", Param{Key: "filters[age]", Value: "25"}},
		{"unknown operator", Param{Key: "filters[age]", Value: "~:25"}},
		{"lowercase like", Param{Key: "filters[name]", Value: "like:%a%"}},
		{"empty column", Param{Key: "filters[]", Value: "=:1"}},
		{"bad direction", Param{Key: "sort[name]", Value: "ASC"}},
		{"empty direction", Param{Key: "sort[name]", Value: ""}},
		{"unrelated key", Param{Key: "page", Value: "2"}},
		{"unterminated bracket", Param{Key: "filters[age", Value: "=:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters, sorts := ParseParams([]Param{tt.param})
			assert.Empty(t, filters)
			assert.Empty(t, sorts)
		})
	}
}

func TestParseParams_NotLike(t *testing.T) {
	filters, _ := ParseParams([]Param{{Key: "filters[email]", Value: "NOT LIKE:%@test.com"}})

	require.Len(t, filters, 1)
	assert.Equal(t, OpNotLike, filters[0].Operator)
	assert.True(t, filters[0].Operator.IsPattern())
}

func TestParseValues_SortedKeys(t *testing.T) {
	values := url.Values{}
	values.Set("sort[zeta]", "asc")
	values.Set("sort[alpha]", "desc")
	values.Set("filters[id]", "!=:3")

	filters, sorts := ParseValues(values)

	require.Len(t, filters, 1)
	assert.Equal(t, OpNe, filters[0].Operator)
	require.Len(t, sorts, 2)
	assert.Equal(t, "alpha", sorts[0].Column)
	assert.Equal(t, "zeta", sorts[1].Column)
}

func TestEncodeQuery_RoundTrip(t *testing.T) {
	filters := []Filter{
		{Column: "age", Operator: OpGt, Value: "25"},
		{Column: "name", Operator: OpLike, Value: "%a&b=c%"},
		{Column: "note", Operator: OpEq, Value: "x:y"},
	}
	sorts := []Sort{{Column: "created_at", Direction: Desc}, {Column: "id", Direction: Asc}}

	gotFilters, gotSorts := ParseQuery(EncodeQuery(filters, sorts))

	assert.Equal(t, filters, gotFilters)
	assert.Equal(t, sorts, gotSorts)
}

func TestEncodeQuery_Readable(t *testing.T) {
	q := EncodeQuery(
		[]Filter{{Column: "age", Operator: OpGte, Value: "25"}, {Column: "name", Operator: OpNe, Value: "a b"}},
		[]Sort{{Column: "name", Direction: Asc}})
	assert.Equal(t, "filters[age]=>=:25&filters[name]=!=:a b&sort[name]=asc", q)
}

func TestEncodeQuery_SkipsEmptyFilters(t *testing.T) {
	q := EncodeQuery([]Filter{{Column: "age", Operator: OpEq}}, nil)
	assert.Empty(t, q)
}
