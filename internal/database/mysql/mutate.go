package mysql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joacominatel/dbdeck/internal/database"
)

// InsertTableRow inserts data and reads the stored row back. The row is
// located by the generated id when the key is auto-incremented, otherwise
// by the supplied primary key values. Tables without a usable key return
// the inserted values.
func (d *Driver) InsertTableRow(ctx context.Context, table string, data map[string]any) (database.Row, error) {
	if len(data) == 0 {
		return nil, database.ErrNoColumns
	}
	name := d.resolve(table)

	query, args, err := buildInsert(name, data)
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	slog.Debug("mysql insert", "sql", query)
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert row: %w", err)
	}

	pks, err := d.columnList(ctx, "get primary keys", queryPrimaryKeys, name)
	if err != nil {
		return nil, err
	}
	key, err := d.insertedKey(ctx, name, pks, data, res.LastInsertId)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return inputRow(data), nil
	}

	row, err := d.selectByKey(ctx, name, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return inputRow(data), nil
	}
	return row, nil
}

func (d *Driver) insertedKey(ctx context.Context, name database.TableName, pks []string, data map[string]any, lastID func() (int64, error)) (map[string]any, error) {
	if len(pks) == 0 {
		return nil, nil
	}
	if len(pks) == 1 {
		if _, given := data[pks[0]]; !given {
			auto, err := d.columnList(ctx, "get auto increment", queryAutoIncrement, name)
			if err != nil {
				return nil, err
			}
			if len(auto) == 1 && auto[0] == pks[0] {
				id, err := lastID()
				if err != nil {
					return nil, fmt.Errorf("last insert id: %w", err)
				}
				return map[string]any{pks[0]: id}, nil
			}
		}
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
// Key columns changed by data are followed to their new values.
func (d *Driver) UpdateTableRow(ctx context.Context, table string, primaryKey, data map[string]any) (database.Row, error) {
	if len(primaryKey) == 0 {
		return nil, database.ErrNoPrimaryKey
	}
	if len(data) == 0 {
		return nil, database.ErrNoColumns
	}
	name := d.resolve(table)

	query, args, err := buildUpdate(name, primaryKey, data)
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	slog.Debug("mysql update", "sql", query)
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update row: %w", err)
	}

	key := make(map[string]any, len(primaryKey))
	for col, v := range primaryKey {
		if nv, ok := data[col]; ok {
			v = nv
		}
		key[col] = v
	}
	row, err := d.selectByKey(ctx, name, key)
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
	name := d.resolve(table)

	row, err := d.selectByKey(ctx, name, primaryKey)
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
	slog.Debug("mysql delete", "sql", query)
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("delete row: %w", err)
	}
	return row, nil
}

func (d *Driver) selectByKey(ctx context.Context, name database.TableName, key map[string]any) (database.Row, error) {
	query, args, err := buildSelectByKey(name, key)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	_, rows, err := d.queryRows(ctx, query, args)
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
