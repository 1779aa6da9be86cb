// Package mssql implements database.Connection for Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	_ "github.com/microsoft/go-mssqldb" // registers the sqlserver driver

	"github.com/joacominatel/dbdeck/internal/database"
)

// Driver implements database.Connection for SQL Server. The pool is opened
// on first use and shared by all operations.
type Driver struct {
	mu  sync.Mutex
	dsn string
	db  *sql.DB
}

var _ database.Connection = (*Driver)(nil)

// New returns a driver that connects to dsn on first use.
func New(dsn string) *Driver {
	return &Driver{dsn: dsn}
}

// NewWithDB wraps an already open handle.
func NewWithDB(db *sql.DB) *Driver {
	return &Driver{db: db}
}

// ensureConnected opens and pings the pool once. Later calls are no-ops.
func (d *Driver) ensureConnected(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db, nil
	}
	db, err := sql.Open("sqlserver", d.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	d.db = db
	return db, nil
}

// Engine returns database.EngineMSSQL.
func (d *Driver) Engine() database.Engine { return database.EngineMSSQL }

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Disconnect closes the pool. A later operation reconnects.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func queryRows(ctx context.Context, db *sql.DB, query string, args []any) ([]string, []database.Row, error) {
	slog.Debug("mssql query", "sql", query, "args", len(args))
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()
	return database.ScanRows(rows, convertValue)
}

// outputClause matches DML with an OUTPUT clause, which returns rows without
// starting with a read keyword.
var outputClause = regexp.MustCompile(`(?i)\bOUTPUT\s+(INSERTED|DELETED)\.`)

func returnsRows(query string) bool {
	return database.IsReadQuery(query) ||
		database.HasLeadingKeyword(query, "EXEC", "EXECUTE", "DECLARE", "SET") ||
		outputClause.MatchString(query)
}

// firstResultSet queries a batch and scans the first result set that has
// columns. Batches that never produce one yield no fields and no rows.
func firstResultSet(ctx context.Context, db *sql.DB, query string) ([]string, []database.Row, error) {
	slog.Debug("mssql batch", "sql", query)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	for {
		cols, err := rows.Columns()
		if err != nil {
			return nil, nil, err
		}
		if len(cols) > 0 {
			return database.ScanRows(rows, convertValue)
		}
		if !rows.NextResultSet() {
			return []string{}, []database.Row{}, rows.Err()
		}
	}
}

// ExecuteQuery runs arbitrary SQL. Failures are reported in the result.
// Batches that may return rows are queried; the rest report rows affected.
func (d *Driver) ExecuteQuery(ctx context.Context, query string) *database.QueryResult {
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return database.FailedQuery(err)
	}

	if returnsRows(query) {
		fields, rows, err := firstResultSet(ctx, db, query)
		if err != nil {
			return database.FailedQuery(err)
		}
		return &database.QueryResult{Success: true, Rows: rows, Fields: fields, RowCount: int64(len(rows))}
	}

	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return database.FailedQuery(err)
	}
	affected, _ := res.RowsAffected()
	return &database.QueryResult{Success: true, Rows: []database.Row{}, Fields: []string{}, RowCount: affected}
}

// GetTables lists base tables and views outside the system schemas.
func (d *Driver) GetTables(ctx context.Context) ([]database.TableInfo, error) {
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, queryListTables)
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
	name := resolveTable(table)

	db, err := d.ensureConnected(ctx)
	if err != nil {
		return result.Fail(err, true)
	}

	countSQL, countArgs, err := buildCount(name, filters)
	if err != nil {
		return result.Fail(fmt.Errorf("build count: %w", err), true)
	}
	var total int64
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return result.Fail(fmt.Errorf("count rows: %w", err), true)
	}
	result.SetCount(total)

	dataSQL, dataArgs, err := buildPage(name, filters, sorts, page, pageSize)
	if err != nil {
		return result.Fail(fmt.Errorf("build page: %w", err), false)
	}
	_, rows, err := queryRows(ctx, db, dataSQL, dataArgs)
	if err != nil {
		return result.Fail(fmt.Errorf("read rows: %w", err), false)
	}
	result.Rows = rows
	return result
}

// GetTableType returns BASE TABLE or VIEW, or "" when the table is unknown.
func (d *Driver) GetTableType(ctx context.Context, table string) (database.TableType, error) {
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	name := resolveTable(table)
	var tableType string
	err = db.QueryRowContext(ctx, queryTableType, name.Schema, name.Name).Scan(&tableType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get table type: %w", err)
	}
	return database.TableType(strings.TrimSpace(tableType)), nil
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

// GetTableColumnTypes returns DATA_TYPE per column.
func (d *Driver) GetTableColumnTypes(ctx context.Context, table string) ([]database.ColumnType, error) {
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	return columnTypes(ctx, db, resolveTable(table))
}

func columnTypes(ctx context.Context, db *sql.DB, name database.TableName) (database.ColumnTypes, error) {
	rows, err := db.QueryContext(ctx, queryColumnTypes, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types := database.ColumnTypes{}
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
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	return columnList(ctx, db, "get primary keys", queryPrimaryKeys, resolveTable(table))
}

func columnList(ctx context.Context, db *sql.DB, op, query string, name database.TableName) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, name.Schema, name.Name)
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
