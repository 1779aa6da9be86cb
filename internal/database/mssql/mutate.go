package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/joacominatel/dbdeck/internal/database"
)

// InsertTableRow inserts data and reads the stored row back, located by the
// generated identity or by supplied primary key values. The insert does not
// use OUTPUT so tables with triggers accept it.
func (d *Driver) InsertTableRow(ctx context.Context, table string, data map[string]any) (database.Row, error) {
	if len(data) == 0 {
		return nil, database.ErrNoColumns
	}
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	name := resolveTable(table)

	types, err := columnTypes(ctx, db, name)
	if err != nil {
		return nil, err
	}
	values := coerceDates(data, types)

	query, args, err := buildInsert(name, values)
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	slog.Debug("mssql insert", "sql", query)
	var identity sql.NullInt64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&identity); err != nil {
		return nil, fmt.Errorf("insert row: %w", err)
	}

	key, err := insertedKey(ctx, db, name, values, identity)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return inputRow(data), nil
	}
	row, err := selectByKey(ctx, db, name, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return inputRow(data), nil
	}
	return row, nil
}

func insertedKey(ctx context.Context, db *sql.DB, name database.TableName, data map[string]any, identity sql.NullInt64) (map[string]any, error) {
	if identity.Valid {
		cols, err := columnList(ctx, db, "get identity column", queryIdentityColumn, name)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 {
			return map[string]any{cols[0]: identity.Int64}, nil
		}
	}

	pks, err := columnList(ctx, db, "get primary keys", queryPrimaryKeys, name)
	if err != nil {
		return nil, err
	}
	if len(pks) == 0 {
		return nil, nil
	}
	key := make(map[string]any, len(pks))
	for _, pk := range pks {
		v, ok := data[pk]
		if !ok {
			return nil, nil
		}
		key[pk] = v
	}
	return key, nil
}

// UpdateTableRow updates the rows matching primaryKey and reads the row back.
func (d *Driver) UpdateTableRow(ctx context.Context, table string, primaryKey, data map[string]any) (database.Row, error) {
	if len(primaryKey) == 0 {
		return nil, database.ErrNoPrimaryKey
	}
	if len(data) == 0 {
		return nil, database.ErrNoColumns
	}
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	name := resolveTable(table)

	types, err := columnTypes(ctx, db, name)
	if err != nil {
		return nil, err
	}
	values := coerceDates(data, types)

	query, args, err := buildUpdate(name, primaryKey, values)
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	slog.Debug("mssql update", "sql", query)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update row: %w", err)
	}

	key := make(map[string]any, len(primaryKey))
	for col, v := range primaryKey {
		if nv, ok := values[col]; ok {
			v = nv
		}
		key[col] = v
	}
	row, err := selectByKey(ctx, db, name, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, database.ErrRowNotFound
	}
	return row, nil
}

// DeleteTableRow reads the row matching primaryKey, then deletes it.
func (d *Driver) DeleteTableRow(ctx context.Context, table string, primaryKey map[string]any) (database.Row, error) {
	if len(primaryKey) == 0 {
		return nil, database.ErrNoPrimaryKey
	}
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	name := resolveTable(table)

	row, err := selectByKey(ctx, db, name, primaryKey)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, database.ErrRowNotFound
	}

	query, args, err := buildDelete(name, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}
	slog.Debug("mssql delete", "sql", query)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("delete row: %w", err)
	}
	return row, nil
}

func selectByKey(ctx context.Context, db *sql.DB, name database.TableName, key map[string]any) (database.Row, error) {
	query, args, err := buildSelectByKey(name, key)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	_, rows, err := queryRows(ctx, db, query, args)
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func inputRow(data map[string]any) database.Row {
	row := make(database.Row, len(data))
	for col, v := range data {
		row[col] = database.Stringify(v)
	}
	return row
}
