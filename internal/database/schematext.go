package database

import "strings"

// FormatSchema renders tables as plain text for an assistant's system prompt.
//
//	TABLE: public.users
//	  - id: integer DEFAULT nextval('users_id_seq'::regclass) NOT NULL
//	  - email: character varying NULLABLE
func FormatSchema(tables []SchemaTable) string {
	paragraphs := make([]string, 0, len(tables))
	for _, t := range tables {
		var b strings.Builder
		kind := "TABLE"
		if t.Type == TableTypeView {
			kind = "VIEW"
		}
		b.WriteString(kind)
		b.WriteString(": ")
		b.WriteString(TableName{Schema: t.Schema, Name: t.Table}.String())

		for _, col := range t.Columns {
			b.WriteString("\n  - ")
			b.WriteString(col.Name)
			b.WriteString(": ")
			b.WriteString(col.DataType)
			if col.Default != nil {
				b.WriteString(" DEFAULT ")
				b.WriteString(*col.Default)
			}
			if col.IsNullable {
				b.WriteString(" NULLABLE")
			} else {
				b.WriteString(" NOT NULL")
			}
		}
		paragraphs = append(paragraphs, b.String())
	}
	return strings.Join(paragraphs, "\n\n")
}

// AppendSchemaColumn adds col to the last table in tables when it matches
// schema and table, or starts a new table. Rows must arrive grouped by table.
// A nil col records a table without columns.
func AppendSchemaColumn(tables []SchemaTable, schema, table string, typ TableType, col *SchemaColumn) []SchemaTable {
	n := len(tables)
	if n == 0 || tables[n-1].Schema != schema || tables[n-1].Table != table {
		tables = append(tables, SchemaTable{Table: table, Schema: schema, Type: typ, Columns: []SchemaColumn{}})
		n++
	}
	if col != nil {
		tables[n-1].Columns = append(tables[n-1].Columns, *col)
	}
	return tables
}
