package mssql

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/joacominatel/dbdeck/internal/database"
)

// ssq is the squirrel statement builder for SQL Server's @p1, @p2, ... parameters.
var ssq = sq.StatementBuilder.PlaceholderFormat(sq.AtP)

const defaultSchema = "dbo"

func quoteIdent(name string) string {
	return database.QuoteIdentifier(database.EngineMSSQL, name)
}

func resolveTable(name string) database.TableName {
	return database.SplitTableName(name, defaultSchema)
}

func whereFilters(filters []database.Filter) sq.And {
	where := sq.And{}
	for _, f := range filters {
		if !f.Operator.Valid() {
			continue
		}
		where = append(where, sq.Expr(quoteIdent(f.Column)+" "+string(f.Operator)+" ?", f.Value))
	}
	return where
}

func whereKey(key map[string]any) sq.And {
	where := sq.And{}
	for _, col := range database.SortedKeys(key) {
		where = append(where, sq.Expr(quoteIdent(col)+" = ?", key[col]))
	}
	return where
}

// orderBy always yields a clause since OFFSET/FETCH requires one.
func orderBy(sorts []database.Sort) []string {
	var clauses []string
	for _, s := range sorts {
		if !s.Direction.Valid() {
			continue
		}
		clauses = append(clauses, quoteIdent(s.Column)+" "+s.Direction.Keyword())
	}
	if len(clauses) == 0 {
		return []string{"(SELECT NULL)"}
	}
	return clauses
}

func buildCount(table database.TableName, filters []database.Filter) (string, []any, error) {
	q := ssq.Select("COUNT(*)").From(table.Quoted(quoteIdent))
	if where := whereFilters(filters); len(where) > 0 {
		q = q.Where(where)
	}
	return q.ToSql()
}

func buildPage(table database.TableName, filters []database.Filter, sorts []database.Sort, page, pageSize int) (string, []any, error) {
	q := ssq.Select("*").From(table.Quoted(quoteIdent))
	if where := whereFilters(filters); len(where) > 0 {
		q = q.Where(where)
	}
	return q.OrderBy(orderBy(sorts)...).
		Suffix("OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", database.Offset(page, pageSize), pageSize).
		ToSql()
}

// buildInsert returns a batch that inserts the row and then selects the
// identity it generated, NULL when the table has none.
func buildInsert(table database.TableName, data map[string]any) (string, []any, error) {
	cols := database.SortedKeys(data)
	quoted := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
		values[i] = data[col]
	}
	return ssq.Insert(table.Quoted(quoteIdent)).
		Columns(quoted...).
		Values(values...).
		Suffix("; SELECT CAST(SCOPE_IDENTITY() AS BIGINT)").
		ToSql()
}

func buildUpdate(table database.TableName, key, data map[string]any) (string, []any, error) {
	q := ssq.Update(table.Quoted(quoteIdent))
	for _, col := range database.SortedKeys(data) {
		q = q.Set(quoteIdent(col), data[col])
	}
	return q.Where(whereKey(key)).ToSql()
}

func buildSelectByKey(table database.TableName, key map[string]any) (string, []any, error) {
	return ssq.Select("TOP 1 *").From(table.Quoted(quoteIdent)).Where(whereKey(key)).ToSql()
}

func buildDelete(table database.TableName, key map[string]any) (string, []any, error) {
	return ssq.Delete(table.Quoted(quoteIdent)).Where(whereKey(key)).ToSql()
}
