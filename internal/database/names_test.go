package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTableName(t *testing.T) {
	assert.Equal(t, TableName{Schema: "public", Name: "users"}, SplitTableName("users", "public"))
	assert.Equal(t, TableName{Schema: "sales", Name: "orders"}, SplitTableName("sales.orders", "public"))
	assert.Equal(t, TableName{Schema: "a", Name: "b.c"}, SplitTableName("a.b.c", "dbo"))
	assert.Equal(t, TableName{Name: "users"}, SplitTableName("users", ""))
}

func TestTableNameQuoted(t *testing.T) {
	backtick := func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" }

	assert.Equal(t, "`shop`.`orders`", TableName{Schema: "shop", Name: "orders"}.Quoted(backtick))
	assert.Equal(t, "`orders`", TableName{Name: "orders"}.Quoted(backtick))
	assert.Equal(t, "shop.orders", TableName{Schema: "shop", Name: "orders"}.String())
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"order ""items"""`, QuoteIdentifier(EnginePostgres, `order "items"`))
	assert.Equal(t, "`a``b`", QuoteIdentifier(EngineMySQL, "a`b"))
	assert.Equal(t, "[a]]b]", QuoteIdentifier(EngineMSSQL, "a]b"))
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, `'it''s C:\tmp'`, QuoteLiteral(EnginePostgres, `it's C:\tmp`))
	assert.Equal(t, `'it''s C:\\tmp'`, QuoteLiteral(EngineMySQL, `it's C:\tmp`))
	assert.Equal(t, `N'it''s'`, QuoteLiteral(EngineMSSQL, `it's`))
}
