package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{1, 10, 1, 10},
		{0, 10, 1, 10},
		{-3, 0, 1, DefaultPageSize},
		{2, -1, 2, DefaultPageSize},
		{4, 5000, 4, MaxPageSize},
	}
	for _, tt := range tests {
		page, size := NormalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantSize, size)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 34, TotalPages(1000, 30))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 25))
	assert.Equal(t, 50, Offset(3, 25))
}

func TestTableDataResult_Fail(t *testing.T) {
	r := NewTableDataResult(2, 10)
	r.SetCount(42)
	r.Rows = append(r.Rows, Row{"id": "1"})

	r.Fail(errors.New("boom"), false)
	assert.Empty(t, r.Rows)
	assert.NotNil(t, r.Rows)
	assert.Equal(t, int64(42), r.TotalCount)
	assert.Equal(t, 5, r.TotalPages)
	assert.Equal(t, "boom", r.Error)

	r.Fail(errors.New("count"), true)
	assert.Zero(t, r.TotalCount)
	assert.Zero(t, r.TotalPages)
}

func TestFailedQuery(t *testing.T) {
	r := FailedQuery(errors.New(`relation "nope" does not exist`))
	assert.False(t, r.Success)
	assert.NotNil(t, r.Rows)
	assert.Empty(t, r.Rows)
	assert.NotEmpty(t, r.Error)
}

func TestOperatorValid(t *testing.T) {
	for _, op := range Operators {
		assert.True(t, op.Valid(), op)
	}
	assert.False(t, Operator("<>").Valid())
	assert.False(t, Operator("like").Valid())
}

func TestDirectionKeyword(t *testing.T) {
	assert.Equal(t, "ASC", Asc.Keyword())
	assert.Equal(t, "DESC", Desc.Keyword())
}

func TestColumnTypesLookup(t *testing.T) {
	types := ColumnTypes{{Name: "id", DataType: "integer"}, {Name: "meta", DataType: "jsonb", UDTName: "jsonb"}}

	ct, ok := types.Lookup("meta")
	assert.True(t, ok)
	assert.Equal(t, "jsonb", ct.UDTName)

	_, ok = types.Lookup("missing")
	assert.False(t, ok)
}

func TestEngineValid(t *testing.T) {
	assert.True(t, EngineMSSQL.Valid())
	assert.False(t, Engine("sqlite").Valid())
}
