package database

import "strings"

// TableName is a table reference split into schema and name.
// Schema is empty when the engine's current database should be used.
type TableName struct {
	Schema string
	Name   string
}

// SplitTableName resolves name against defaultSchema. A name containing a dot
// is treated as already schema-qualified and split on the first dot.
func SplitTableName(name, defaultSchema string) TableName {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return TableName{Schema: schema, Name: table}
	}
	return TableName{Schema: defaultSchema, Name: name}
}

// String returns the unquoted schema.name form.
func (t TableName) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Quoted returns the table reference with each part quoted by quote.
func (t TableName) Quoted(quote func(string) string) string {
	if t.Schema == "" {
		return quote(t.Name)
	}
	return quote(t.Schema) + "." + quote(t.Name)
}

// QuoteIdentifier quotes name in engine's dialect.
func QuoteIdentifier(engine Engine, name string) string {
	switch engine {
	case EngineMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case EngineMSSQL:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteLiteral renders s as a string literal in engine's dialect. MySQL
// treats backslash as an escape character inside literals.
func QuoteLiteral(engine Engine, s string) string {
	switch engine {
	case EngineMySQL:
		s = strings.ReplaceAll(s, `\`, `\\`)
	case EngineMSSQL:
		return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
