package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/joacominatel/dbdeck/internal/database"
)

// GetTableIntrospection returns columns, keys and indexes of a table. The
// four catalog queries run concurrently on separate pool connections.
func (d *Driver) GetTableIntrospection(ctx context.Context, table string) (*database.TableIntrospection, error) {
	name := resolveTable(table)
	info := &database.TableIntrospection{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		return d.withConn(gctx, func(conn *pgxpool.Conn) error {
			info.Columns, err = columnDetails(gctx, conn, name)
			return err
		})
	})
	g.Go(func() (err error) {
		return d.withConn(gctx, func(conn *pgxpool.Conn) error {
			info.PrimaryKeys, err = primaryKeys(gctx, conn, name)
			return err
		})
	})
	g.Go(func() (err error) {
		return d.withConn(gctx, func(conn *pgxpool.Conn) error {
			info.ForeignKeys, err = foreignKeys(gctx, conn, name)
			return err
		})
	})
	g.Go(func() (err error) {
		return d.withConn(gctx, func(conn *pgxpool.Conn) error {
			info.Indexes, err = indexes(gctx, conn, name)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return info, nil
}

func (d *Driver) withConn(ctx context.Context, fn func(*pgxpool.Conn) error) error {
	conn, err := d.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn)
}

func columnDetails(ctx context.Context, conn *pgxpool.Conn, name database.TableName) ([]database.ColumnDetail, error) {
	rows, err := conn.Query(ctx, queryColumnDetails, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get column details: %w", err)
	}
	defer rows.Close()

	cols := []database.ColumnDetail{}
	for rows.Next() {
		var c database.ColumnDetail
		if err := rows.Scan(
			&c.ColumnName, &c.DataType, &c.UDTName, &c.IsNullable, &c.ColumnDefault,
			&c.CharacterMaximumLength, &c.NumericPrecision, &c.NumericScale, &c.OrdinalPosition,
			&c.IsIdentity, &c.IdentityGeneration, &c.IsGenerated, &c.GenerationExpression,
			&c.ColumnComment,
		); err != nil {
			return nil, fmt.Errorf("scan column detail: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func foreignKeys(ctx context.Context, conn *pgxpool.Conn, name database.TableName) ([]database.ForeignKey, error) {
	rows, err := conn.Query(ctx, queryForeignKeys, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get foreign keys: %w", err)
	}
	defer rows.Close()

	fks := []database.ForeignKey{}
	for rows.Next() {
		var fk database.ForeignKey
		if err := rows.Scan(
			&fk.ConstraintName, &fk.ColumnName, &fk.ForeignTableSchema, &fk.ForeignTableName,
			&fk.ForeignColumnName, &fk.UpdateRule, &fk.DeleteRule,
		); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func indexes(ctx context.Context, conn *pgxpool.Conn, name database.TableName) ([]database.Index, error) {
	rows, err := conn.Query(ctx, queryIndexes, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get indexes: %w", err)
	}
	defer rows.Close()

	idx := []database.Index{}
	for rows.Next() {
		var i database.Index
		if err := rows.Scan(&i.IndexName, &i.IndexType, &i.IsUnique, &i.IsPrimary, &i.Columns); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		idx = append(idx, i)
	}
	return idx, rows.Err()
}

// GetFullDatabaseSchema returns every table and view with its columns.
func (d *Driver) GetFullDatabaseSchema(ctx context.Context) ([]database.SchemaTable, error) {
	conn, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, queryFullSchema)
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}
	defer rows.Close()

	tables := []database.SchemaTable{}
	for rows.Next() {
		var schema, table, tableType string
		var column, dataType, nullable, def *string
		if err := rows.Scan(&schema, &table, &tableType, &column, &dataType, &nullable, &def); err != nil {
			return nil, fmt.Errorf("scan schema column: %w", err)
		}
		var col *database.SchemaColumn
		if column != nil {
			col = &database.SchemaColumn{Name: *column, IsNullable: nullable != nil && *nullable == "YES", Default: def}
			if dataType != nil {
				col.DataType = *dataType
			}
		}
		tables = database.AppendSchemaColumn(tables, schema, table, database.TableType(tableType), col)
	}
	return tables, rows.Err()
}
