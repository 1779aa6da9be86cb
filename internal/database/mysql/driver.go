// Package mysql implements database.Connection for MySQL and MariaDB over
// database/sql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/joacominatel/dbdeck/internal/database"
)

// Driver implements database.Connection for MySQL.
type Driver struct {
	db     *sql.DB
	dbName string
}

var _ database.Connection = (*Driver)(nil)

// New wraps an open handle. dbName is used for unqualified table names; when
// empty the server's current database applies.
func New(db *sql.DB, dbName string) *Driver {
	return &Driver{db: db, dbName: dbName}
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*Driver, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return New(db, cfg.DBName), nil
}

// Engine returns database.EngineMySQL.
func (d *Driver) Engine() database.Engine { return database.EngineMySQL }

// DatabaseName returns the configured database.
func (d *Driver) DatabaseName() string { return d.dbName }

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Disconnect closes the pool.
func (d *Driver) Disconnect() error {
	return d.db.Close()
}

func (d *Driver) resolve(table string) database.TableName {
	return database.SplitTableName(table, d.dbName)
}

func (d *Driver) queryRows(ctx context.Context, query string, args []any) ([]string, []database.Row, error) {
	slog.Debug("mysql query", "sql", query, "args", len(args))
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()
	return database.ScanRows(rows, nil)
}

// ExecuteQuery runs arbitrary SQL. Failures are reported in the result.
// Stored procedure calls are queried so their result sets are kept.
func (d *Driver) ExecuteQuery(ctx context.Context, query string) *database.QueryResult {
	if database.IsReadQuery(query) || database.HasLeadingKeyword(query, "CALL") {
		fields, rows, err := d.queryRows(ctx, query, nil)
		if err != nil {
			return database.FailedQuery(err)
		}
		return &database.QueryResult{Success: true, Rows: rows, Fields: fields, RowCount: int64(len(rows))}
	}

	res, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return database.FailedQuery(err)
	}
	affected, _ := res.RowsAffected()
	return &database.QueryResult{Success: true, Rows: []database.Row{}, Fields: []string{}, RowCount: affected}
}

// GetTables lists base tables and views outside the system schemas.
func (d *Driver) GetTables(ctx context.Context) ([]database.TableInfo, error) {
	rows, err := d.db.QueryContext(ctx, queryListTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []database.TableInfo{}
	for rows.Next() {
		var t database.TableInfo
		var tableType string
		if err := rows.Scan(&t.TableName, &t.SchemaName, &tableType); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		t.TableType = database.TableType(tableType)
		t.FullTableName = t.SchemaName + "." + t.TableName
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// GetTableData returns one page of rows. Failures are reported in the result.
func (d *Driver) GetTableData(ctx context.Context, table string, page, pageSize int, filters []database.Filter, sorts []database.Sort) *database.TableDataResult {
	page, pageSize = database.NormalizePage(page, pageSize)
	result := database.NewTableDataResult(page, pageSize)
	name := d.resolve(table)

	countSQL, countArgs, err := buildCount(name, filters)
	if err != nil {
		return result.Fail(fmt.Errorf("build count: %w", err), true)
	}
	var total int64
	if err := d.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return result.Fail(fmt.Errorf("count rows: %w", err), true)
	}
	result.SetCount(total)

	dataSQL, dataArgs, err := buildPage(name, filters, sorts, page, pageSize)
	if err != nil {
		return result.Fail(fmt.Errorf("build page: %w", err), false)
	}
	_, rows, err := d.queryRows(ctx, dataSQL, dataArgs)
	if err != nil {
		return result.Fail(fmt.Errorf("read rows: %w", err), false)
	}
	result.Rows = rows
	return result
}

// GetTableType returns BASE TABLE or VIEW, or "" when the table is unknown.
func (d *Driver) GetTableType(ctx context.Context, table string) (database.TableType, error) {
	name := d.resolve(table)
	var tableType string
	err := d.db.QueryRowContext(ctx, queryTableType, name.Schema, name.Name).Scan(&tableType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get table type: %w", err)
	}
	return database.TableType(tableType), nil
}

// GetTableColumns returns column names in ordinal order.
func (d *Driver) GetTableColumns(ctx context.Context, table string) ([]string, error) {
	types, err := d.GetTableColumnTypes(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return names, nil
}

// GetTableColumnTypes returns DATA_TYPE and the full COLUMN_TYPE per column.
func (d *Driver) GetTableColumnTypes(ctx context.Context, table string) ([]database.ColumnType, error) {
	name := d.resolve(table)
	rows, err := d.db.QueryContext(ctx, queryColumnTypes, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types := []database.ColumnType{}
	for rows.Next() {
		var ct database.ColumnType
		if err := rows.Scan(&ct.Name, &ct.DataType, &ct.UDTName); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		types = append(types, ct)
	}
	return types, rows.Err()
}

// GetTablePrimaryKeys returns primary key columns in key order.
func (d *Driver) GetTablePrimaryKeys(ctx context.Context, table string) ([]string, error) {
	name := d.resolve(table)
	return d.columnList(ctx, "get primary keys", queryPrimaryKeys, name)
}

func (d *Driver) columnList(ctx context.Context, op, query string, name database.TableName) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	cols := []string{}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
