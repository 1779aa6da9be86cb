package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/joacominatel/dbdeck/internal/database"
)

// GetTableIntrospection returns columns, keys and indexes of a table.
func (d *Driver) GetTableIntrospection(ctx context.Context, table string) (*database.TableIntrospection, error) {
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	name := resolveTable(table)
	info := &database.TableIntrospection{}

	if info.Columns, err = columnDetails(ctx, db, name); err != nil {
		return nil, err
	}
	if info.PrimaryKeys, err = columnList(ctx, db, "get primary keys", queryPrimaryKeys, name); err != nil {
		return nil, err
	}
	if info.ForeignKeys, err = foreignKeys(ctx, db, name); err != nil {
		return nil, err
	}
	if info.Indexes, err = indexes(ctx, db, name); err != nil {
		return nil, err
	}
	return info, nil
}

func columnDetails(ctx context.Context, db *sql.DB, name database.TableName) ([]database.ColumnDetail, error) {
	rows, err := db.QueryContext(ctx, queryColumnDetails, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get column details: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := []database.ColumnDetail{}
	for rows.Next() {
		var (
			c                        database.ColumnDetail
			def, computed, comment   sql.NullString
			maxLen, precision, scale sql.NullInt64
		)
		if err := rows.Scan(
			&c.ColumnName, &c.DataType, &c.UDTName, &c.IsNullable, &def,
			&maxLen, &precision, &scale, &c.OrdinalPosition,
			&c.IsIdentity, &computed, &comment,
		); err != nil {
			return nil, fmt.Errorf("scan column detail: %w", err)
		}
		c.ColumnDefault = database.NullableString(def)
		c.CharacterMaximumLength = database.NullableInt(maxLen)
		c.NumericPrecision = database.NullableInt(precision)
		c.NumericScale = database.NullableInt(scale)
		c.ColumnComment = database.EmptyAsNull(comment)
		c.IsGenerated = "NEVER"
		if computed.Valid {
			c.IsGenerated = "ALWAYS"
			c.GenerationExpression = database.NullableString(computed)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// referentialAction maps sys.foreign_keys action names (NO_ACTION) to the
// information_schema spelling (NO ACTION).
func referentialAction(desc string) string {
	return strings.ReplaceAll(desc, "_", " ")
}

func foreignKeys(ctx context.Context, db *sql.DB, name database.TableName) ([]database.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, queryForeignKeys, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fks := []database.ForeignKey{}
	for rows.Next() {
		var fk database.ForeignKey
		if err := rows.Scan(
			&fk.ConstraintName, &fk.ColumnName, &fk.ForeignTableSchema, &fk.ForeignTableName,
			&fk.ForeignColumnName, &fk.UpdateRule, &fk.DeleteRule,
		); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fk.UpdateRule = referentialAction(fk.UpdateRule)
		fk.DeleteRule = referentialAction(fk.DeleteRule)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func indexes(ctx context.Context, db *sql.DB, name database.TableName) ([]database.Index, error) {
	rows, err := db.QueryContext(ctx, queryIndexes, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	idx := []database.Index{}
	for rows.Next() {
		var indexName, indexType, column string
		var unique, primary bool
		if err := rows.Scan(&indexName, &indexType, &unique, &primary, &column); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		if n := len(idx); n > 0 && idx[n-1].IndexName == indexName {
			idx[n-1].Columns = append(idx[n-1].Columns, column)
			continue
		}
		idx = append(idx, database.Index{
			IndexName: indexName,
			IndexType: indexType,
			IsUnique:  unique,
			IsPrimary: primary,
			Columns:   []string{column},
		})
	}
	return idx, rows.Err()
}

// GetFullDatabaseSchema returns every table and view with its columns.
func (d *Driver) GetFullDatabaseSchema(ctx context.Context) ([]database.SchemaTable, error) {
	db, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, queryFullSchema)
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []database.SchemaTable{}
	for rows.Next() {
		var schema, table, tableType string
		var column, dataType, nullable, def sql.NullString
		if err := rows.Scan(&schema, &table, &tableType, &column, &dataType, &nullable, &def); err != nil {
			return nil, fmt.Errorf("scan schema column: %w", err)
		}
		var col *database.SchemaColumn
		if column.Valid {
			col = &database.SchemaColumn{
				Name:       column.String,
				DataType:   dataType.String,
				IsNullable: nullable.String == "YES",
				Default:    database.NullableString(def),
			}
		}
		tables = database.AppendSchemaColumn(tables, schema, table, database.TableType(tableType), col)
	}
	return tables, rows.Err()
}
