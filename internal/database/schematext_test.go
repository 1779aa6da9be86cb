package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSchema(t *testing.T) {
	def := "nextval('users_id_seq'::regclass)"
	tables := []SchemaTable{
		{
			Table: "users", Schema: "public", Type: TableTypeBase,
			Columns: []SchemaColumn{
				{Name: "id", DataType: "integer", Default: &def},
				{Name: "email", DataType: "character varying", IsNullable: true},
			},
		},
		{
			Table: "active_users", Schema: "public", Type: TableTypeView,
			Columns: []SchemaColumn{{Name: "id", DataType: "integer", IsNullable: true}},
		},
	}

	want := "TABLE: public.users\n" +
		"  - id: integer DEFAULT nextval('users_id_seq'::regclass) NOT NULL\n" +
		"  - email: character varying NULLABLE\n" +
		"\n" +
		"VIEW: public.active_users\n" +
		"  - id: integer NULLABLE"

	assert.Equal(t, want, FormatSchema(tables))
}

func TestFormatSchema_Empty(t *testing.T) {
	assert.Equal(t, "", FormatSchema(nil))
}

func TestAppendSchemaColumn(t *testing.T) {
	var tables []SchemaTable
	tables = AppendSchemaColumn(tables, "public", "a", TableTypeBase, &SchemaColumn{Name: "x"})
	tables = AppendSchemaColumn(tables, "public", "a", TableTypeBase, &SchemaColumn{Name: "y"})
	tables = AppendSchemaColumn(tables, "public", "b", TableTypeView, nil)
	tables = AppendSchemaColumn(tables, "other", "a", TableTypeBase, &SchemaColumn{Name: "z"})

	assert.Len(t, tables, 3)
	assert.Len(t, tables[0].Columns, 2)
	assert.Empty(t, tables[1].Columns)
	assert.Equal(t, TableTypeView, tables[1].Type)
	assert.Equal(t, "other", tables[2].Schema)
}
