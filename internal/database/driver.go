package database

import (
	"context"
	"errors"
)

// Engine identifies a supported database engine.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineMSSQL    Engine = "mssql"
)

// Engines lists the supported engines in configuration precedence order.
var Engines = []Engine{EnginePostgres, EngineMySQL, EngineMSSQL}

func (e Engine) String() string { return string(e) }

// Valid reports whether e is one of the supported engines.
func (e Engine) Valid() bool {
	for _, known := range Engines {
		if e == known {
			return true
		}
	}
	return false
}

var (
	// ErrRowNotFound is returned by mutations when no row matches the primary key.
	ErrRowNotFound = errors.New("row not found")

	// ErrNoPrimaryKey is returned when a mutation is addressed without key values.
	ErrNoPrimaryKey = errors.New("no primary key values given")

	// ErrNoColumns is returned when a mutation carries no column values.
	ErrNoColumns = errors.New("no column values given")

	// ErrUnsupportedEngine is returned by the factory for unknown engine tags.
	ErrUnsupportedEngine = errors.New("unsupported engine")
)

// Connection defines the operations every engine adapter provides.
// All implementations must be safe for concurrent use.
//
// GetTableData and ExecuteQuery never return Go errors: failures are reported
// through the result's Error field. Every other method returns an error.
type Connection interface {
	// Engine returns the engine this adapter talks to.
	Engine() Engine

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// GetTables lists base tables and views across all non-system schemas,
	// ordered by schema, table type, then name.
	GetTables(ctx context.Context) ([]TableInfo, error)

	// GetTableData returns one page of rows matching filters, in sort order.
	GetTableData(ctx context.Context, table string, page, pageSize int, filters []Filter, sorts []Sort) *TableDataResult

	// InsertTableRow inserts one row and returns it as stored.
	InsertTableRow(ctx context.Context, table string, data map[string]any) (Row, error)

	// UpdateTableRow updates the rows matching primaryKey and returns the updated row.
	UpdateTableRow(ctx context.Context, table string, primaryKey, data map[string]any) (Row, error)

	// DeleteTableRow deletes the rows matching primaryKey and returns the row
	// as it was before deletion.
	DeleteTableRow(ctx context.Context, table string, primaryKey map[string]any) (Row, error)

	// GetTableColumns returns column names ordered by ordinal position.
	GetTableColumns(ctx context.Context, table string) ([]string, error)

	// GetTableColumnTypes returns column types ordered by ordinal position.
	GetTableColumnTypes(ctx context.Context, table string) ([]ColumnType, error)

	// GetTablePrimaryKeys returns the primary key column names in key order.
	GetTablePrimaryKeys(ctx context.Context, table string) ([]string, error)

	// GetTableType returns BASE TABLE or VIEW, or "" when the table does not exist.
	GetTableType(ctx context.Context, table string) (TableType, error)

	// ExecuteQuery runs arbitrary SQL.
	ExecuteQuery(ctx context.Context, sql string) *QueryResult

	// GetTableIntrospection returns the full structural description of a table.
	GetTableIntrospection(ctx context.Context, table string) (*TableIntrospection, error)

	// GetFullDatabaseSchema returns every table and view with its columns.
	GetFullDatabaseSchema(ctx context.Context) ([]SchemaTable, error)

	// Disconnect releases the underlying pool.
	Disconnect() error
}
