package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/joacominatel/dbdeck/internal/database"
)

// GetTableIntrospection returns columns, keys and indexes of a table.
func (d *Driver) GetTableIntrospection(ctx context.Context, table string) (*database.TableIntrospection, error) {
	name := d.resolve(table)
	info := &database.TableIntrospection{}

	var err error
	if info.Columns, err = d.columnDetails(ctx, name); err != nil {
		return nil, err
	}
	if info.PrimaryKeys, err = d.columnList(ctx, "get primary keys", queryPrimaryKeys, name); err != nil {
		return nil, err
	}
	if info.ForeignKeys, err = d.foreignKeys(ctx, name); err != nil {
		return nil, err
	}
	if info.Indexes, err = d.indexes(ctx, name); err != nil {
		return nil, err
	}
	return info, nil
}

func (d *Driver) columnDetails(ctx context.Context, name database.TableName) ([]database.ColumnDetail, error) {
	rows, err := d.db.QueryContext(ctx, queryColumnDetails, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get column details: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := []database.ColumnDetail{}
	for rows.Next() {
		var (
			c                        database.ColumnDetail
			def, genExpr, comment    sql.NullString
			maxLen, precision, scale sql.NullInt64
			extra                    string
		)
		if err := rows.Scan(
			&c.ColumnName, &c.DataType, &c.UDTName, &c.IsNullable, &def,
			&maxLen, &precision, &scale, &c.OrdinalPosition,
			&extra, &genExpr, &comment,
		); err != nil {
			return nil, fmt.Errorf("scan column detail: %w", err)
		}
		c.ColumnDefault = database.NullableString(def)
		c.CharacterMaximumLength = database.NullableInt(maxLen)
		c.NumericPrecision = database.NullableInt(precision)
		c.NumericScale = database.NullableInt(scale)
		c.ColumnComment = database.EmptyAsNull(comment)
		applyExtra(&c, extra, genExpr)
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// applyExtra maps the EXTRA column onto identity and generated flags.
func applyExtra(c *database.ColumnDetail, extra string, genExpr sql.NullString) {
	extra = strings.ToUpper(extra)

	c.IsIdentity = "NO"
	if strings.Contains(extra, "AUTO_INCREMENT") {
		c.IsIdentity = "YES"
	}

	c.IsGenerated = "NEVER"
	if strings.Contains(extra, "VIRTUAL GENERATED") || strings.Contains(extra, "STORED GENERATED") {
		c.IsGenerated = "ALWAYS"
		c.GenerationExpression = database.EmptyAsNull(genExpr)
	}
}

func (d *Driver) foreignKeys(ctx context.Context, name database.TableName) ([]database.ForeignKey, error) {
	rows, err := d.db.QueryContext(ctx, queryForeignKeys, name.Schema, name.Name)
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
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (d *Driver) indexes(ctx context.Context, name database.TableName) ([]database.Index, error) {
	rows, err := d.db.QueryContext(ctx, queryIndexes, name.Schema, name.Name)
	if err != nil {
		return nil, fmt.Errorf("get indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	idx := []database.Index{}
	for rows.Next() {
		var indexName, indexType string
		var column, expression sql.NullString
		var nonUnique int
		if err := rows.Scan(&indexName, &indexType, &nonUnique, &column, &expression); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		part := indexPart(column, expression)
		if n := len(idx); n > 0 && idx[n-1].IndexName == indexName {
			idx[n-1].Columns = append(idx[n-1].Columns, part)
			continue
		}
		idx = append(idx, database.Index{
			IndexName: indexName,
			IndexType: indexType,
			IsUnique:  nonUnique == 0,
			IsPrimary: indexName == "PRIMARY",
			Columns:   []string{part},
		})
	}
	return idx, rows.Err()
}

// indexPart names an index key part. Functional key parts have no column,
// only an expression.
func indexPart(column, expression sql.NullString) string {
	if column.Valid {
		return column.String
	}
	return expression.String
}

// GetFullDatabaseSchema returns every table and view with its columns.
func (d *Driver) GetFullDatabaseSchema(ctx context.Context) ([]database.SchemaTable, error) {
	rows, err := d.db.QueryContext(ctx, queryFullSchema)
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
