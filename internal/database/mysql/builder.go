package mysql

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/joacominatel/dbdeck/internal/database"
)

// msq is the squirrel statement builder for MySQL's ? placeholders.
var msq = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func quoteIdent(name string) string {
	return database.QuoteIdentifier(database.EngineMySQL, name)
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
		where = append(where, sq.Expr(quoteIdent(col)+" = ?", normalizeValue(key[col])))
	}
	return where
}

func orderBy(sorts []database.Sort) []string {
	var clauses []string
	for _, s := range sorts {
		if !s.Direction.Valid() {
			continue
		}
		clauses = append(clauses, quoteIdent(s.Column)+" "+s.Direction.Keyword())
	}
	return clauses
}

func buildCount(table database.TableName, filters []database.Filter) (string, []any, error) {
	q := msq.Select("COUNT(*)").From(table.Quoted(quoteIdent))
	if where := whereFilters(filters); len(where) > 0 {
		q = q.Where(where)
	}
	return q.ToSql()
}

func buildPage(table database.TableName, filters []database.Filter, sorts []database.Sort, page, pageSize int) (string, []any, error) {
	q := msq.Select("*").From(table.Quoted(quoteIdent))
	if where := whereFilters(filters); len(where) > 0 {
		q = q.Where(where)
	}
	if order := orderBy(sorts); len(order) > 0 {
		q = q.OrderBy(order...)
	}
	return q.Suffix("LIMIT ? OFFSET ?", pageSize, database.Offset(page, pageSize)).ToSql()
}

func buildInsert(table database.TableName, data map[string]any) (string, []any, error) {
	cols := database.SortedKeys(data)
	quoted := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
		values[i] = normalizeValue(data[col])
	}
	return msq.Insert(table.Quoted(quoteIdent)).Columns(quoted...).Values(values...).ToSql()
}

func buildUpdate(table database.TableName, key, data map[string]any) (string, []any, error) {
	q := msq.Update(table.Quoted(quoteIdent))
	for _, col := range database.SortedKeys(data) {
		q = q.Set(quoteIdent(col), normalizeValue(data[col]))
	}
	return q.Where(whereKey(key)).ToSql()
}

func buildSelectByKey(table database.TableName, key map[string]any) (string, []any, error) {
	return msq.Select("*").From(table.Quoted(quoteIdent)).Where(whereKey(key)).Suffix("LIMIT 1").ToSql()
}

func buildDelete(table database.TableName, key map[string]any) (string, []any, error) {
	return msq.Delete(table.Quoted(quoteIdent)).Where(whereKey(key)).ToSql()
}
