package results

import (
	"strconv"
	"strings"

	"github.com/joacominatel/dbdeck/internal/database"
)

// Grid is a result set in display order.
type Grid struct {
	Columns []string
	Rows    [][]string
}

// GridFromRows orders each row's values by columns.
func GridFromRows(columns []string, rows []database.Row) Grid {
	g := Grid{Columns: columns, Rows: make([][]string, len(rows))}
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = row[col]
		}
		g.Rows[i] = cells
	}
	return g
}

// Row returns row i as a database.Row.
func (g Grid) Row(i int) database.Row {
	row := database.Row{}
	if i < 0 || i >= len(g.Rows) {
		return row
	}
	for j, col := range g.Columns {
		if j < len(g.Rows[i]) {
			row[col] = g.Rows[i][j]
		}
	}
	return row
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IntrospectionGrid lays out a table's columns with their key and index
// membership.
func IntrospectionGrid(info *database.TableIntrospection) Grid {
	pk := map[string]bool{}
	for _, k := range info.PrimaryKeys {
		pk[k] = true
	}
	fks := map[string]string{}
	for _, fk := range info.ForeignKeys {
		fks[fk.ColumnName] = database.TableName{Schema: fk.ForeignTableSchema, Name: fk.ForeignTableName}.String() + "." + fk.ForeignColumnName
	}
	idx := map[string][]string{}
	for _, ix := range info.Indexes {
		for _, col := range ix.Columns {
			idx[col] = append(idx[col], ix.IndexName)
		}
	}

	g := Grid{Columns: []string{"#", "column", "type", "nullable", "default", "pk", "identity", "references", "indexes", "comment"}}
	for _, c := range info.Columns {
		g.Rows = append(g.Rows, []string{
			strconv.Itoa(c.OrdinalPosition),
			c.ColumnName,
			c.DataType,
			c.IsNullable,
			deref(c.ColumnDefault),
			yesNo(pk[c.ColumnName]),
			c.IsIdentity,
			fks[c.ColumnName],
			strings.Join(idx[c.ColumnName], ","),
			deref(c.ColumnComment),
		})
	}
	return g
}

// NextSorts cycles column through ascending, descending and unsorted. The
// touched column moves to the front so it becomes the primary order.
func NextSorts(sorts []database.Sort, column string) []database.Sort {
	var rest []database.Sort
	current := database.Direction("")
	for _, s := range sorts {
		if s.Column == column {
			current = s.Direction
			continue
		}
		rest = append(rest, s)
	}
	switch current {
	case "":
		return append([]database.Sort{{Column: column, Direction: database.Asc}}, rest...)
	case database.Asc:
		return append([]database.Sort{{Column: column, Direction: database.Desc}}, rest...)
	default:
		return rest
	}
}

// WithFilter replaces any filter on f.Column with f.
func WithFilter(filters []database.Filter, f database.Filter) []database.Filter {
	out := []database.Filter{}
	for _, existing := range filters {
		if existing.Column != f.Column {
			out = append(out, existing)
		}
	}
	return append(out, f)
}
