package postgres

import (
	"context"
	"fmt"

	"github.com/joacominatel/dbdeck/internal/database"
)

// InsertTableRow inserts data and returns the stored row via RETURNING *.
func (d *Driver) InsertTableRow(ctx context.Context, table string, data map[string]any) (database.Row, error) {
	if len(data) == 0 {
		return nil, database.ErrNoColumns
	}
	query, args, err := buildInsert(resolveTable(table), data)
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	return d.returningOne(ctx, "insert row", query, args)
}

// UpdateTableRow updates the rows matching primaryKey and returns the first
// updated row.
func (d *Driver) UpdateTableRow(ctx context.Context, table string, primaryKey, data map[string]any) (database.Row, error) {
	if len(primaryKey) == 0 {
		return nil, database.ErrNoPrimaryKey
	}
	if len(data) == 0 {
		return nil, database.ErrNoColumns
	}
	query, args, err := buildUpdate(resolveTable(table), primaryKey, data)
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	return d.returningOne(ctx, "update row", query, args)
}

// DeleteTableRow reads the row matching primaryKey, then deletes it.
func (d *Driver) DeleteTableRow(ctx context.Context, table string, primaryKey map[string]any) (database.Row, error) {
	if len(primaryKey) == 0 {
		return nil, database.ErrNoPrimaryKey
	}
	name := resolveTable(table)

	conn, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	selectSQL, selectArgs, err := buildSelectByKey(name, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := queryRows(ctx, conn, selectSQL, selectArgs)
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}
	if len(rows) == 0 {
		return nil, database.ErrRowNotFound
	}

	deleteSQL, deleteArgs, err := buildDelete(name, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}
	if _, err := conn.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
		return nil, fmt.Errorf("delete row: %w", err)
	}
	return rows[0], nil
}

func (d *Driver) returningOne(ctx context.Context, op, query string, args []any) (database.Row, error) {
	conn, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := queryRows(ctx, conn, query, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, database.ErrRowNotFound
	}
	return rows[0], nil
}
