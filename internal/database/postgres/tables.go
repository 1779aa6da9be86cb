package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joacominatel/dbdeck/internal/database"
)

// GetTables lists base tables and views outside the system schemas.
func (d *Driver) GetTables(ctx context.Context) ([]database.TableInfo, error) {
	conn, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, queryListTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

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

	conn, err := d.acquire(ctx)
	if err != nil {
		return result.Fail(err, true)
	}
	defer conn.Release()

	countSQL, countArgs, err := buildCount(name, filters)
	if err != nil {
		return result.Fail(fmt.Errorf("build count: %w", err), true)
	}
	var total int64
	if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return result.Fail(fmt.Errorf("count rows: %w", err), true)
	}
	result.SetCount(total)

	dataSQL, dataArgs, err := buildPage(name, filters, sorts, page, pageSize)
	if err != nil {
		return result.Fail(fmt.Errorf("build page: %w", err), false)
	}
	rows, err := queryRows(ctx, conn, dataSQL, dataArgs)
	if err != nil {
		return result.Fail(fmt.Errorf("read rows: %w", err), false)
	}
	result.Rows = rows
	return result
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

// GetTableColumnTypes returns data_type and udt_name per column.
func (d *Driver) GetTableColumnTypes(ctx context.Context, table string) ([]database.ColumnType, error) {
	conn, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	name := resolveTable(table)
	rows, err := conn.Query(ctx, queryColumnTypes, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer rows.Close()

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
	conn, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return primaryKeys(ctx, conn, resolveTable(table))
}

func primaryKeys(ctx context.Context, conn *pgxpool.Conn, name database.TableName) ([]string, error) {
	rows, err := conn.Query(ctx, queryPrimaryKeys, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get primary keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		keys = append(keys, col)
	}
	return keys, rows.Err()
}

// GetTableType returns BASE TABLE or VIEW, or "" when the table is unknown.
func (d *Driver) GetTableType(ctx context.Context, table string) (database.TableType, error) {
	conn, err := d.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Release()

	name := resolveTable(table)
	var tableType string
	err = conn.QueryRow(ctx, queryTableType, name.Schema, name.Name).Scan(&tableType)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("get table type: %w", err)
	}
	return database.TableType(tableType), nil
}
