package postgres

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/joacominatel/dbdeck/internal/database"
)

// psq is the squirrel statement builder configured for PostgreSQL ($1, $2, ...).
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const defaultSchema = "public"

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func resolveTable(name string) database.TableName {
	return database.SplitTableName(name, defaultSchema)
}

// whereFilters turns filters into a conjunction of bound predicates. Pattern
// operators compare the column's text form so LIKE works on any type.
func whereFilters(filters []database.Filter) sq.And {
	where := sq.And{}
	for _, f := range filters {
		if !f.Operator.Valid() {
			continue
		}
		col := quoteIdent(f.Column)
		if f.Operator.IsPattern() {
			col += "::text"
		}
		where = append(where, sq.Expr(col+" "+string(f.Operator)+" ?", f.Value))
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
	q := psq.Select("COUNT(*)").From(table.Quoted(quoteIdent))
	if where := whereFilters(filters); len(where) > 0 {
		q = q.Where(where)
	}
	return q.ToSql()
}

func buildPage(table database.TableName, filters []database.Filter, sorts []database.Sort, page, pageSize int) (string, []any, error) {
	q := psq.Select("*").From(table.Quoted(quoteIdent))
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
		values[i] = data[col]
	}
	return psq.Insert(table.Quoted(quoteIdent)).
		Columns(quoted...).
		Values(values...).
		Suffix("RETURNING *").
		ToSql()
}

func buildUpdate(table database.TableName, key, data map[string]any) (string, []any, error) {
	q := psq.Update(table.Quoted(quoteIdent))
	for _, col := range database.SortedKeys(data) {
		q = q.Set(quoteIdent(col), data[col])
	}
	return q.Where(whereKey(key)).Suffix("RETURNING *").ToSql()
}

func buildSelectByKey(table database.TableName, key map[string]any) (string, []any, error) {
	return psq.Select("*").
		From(table.Quoted(quoteIdent)).
		Where(whereKey(key)).
		Suffix("LIMIT 1").
		ToSql()
}

func buildDelete(table database.TableName, key map[string]any) (string, []any, error) {
	return psq.Delete(table.Quoted(quoteIdent)).Where(whereKey(key)).ToSql()
}
