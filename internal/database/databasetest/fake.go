// Package databasetest provides an in-memory database.Connection for tests.
package databasetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/joacominatel/dbdeck/internal/database"
)

// Table is an in-memory table. Key names the single primary key column.
type Table struct {
	Schema  string
	Name    string
	Type    database.TableType
	Columns []database.ColumnType
	Key     string
	Rows    []database.Row
}

// Fake is a database.Connection backed by Tables. Queries passed to
// ExecuteQuery are recorded and answered from QueryResults.
type Fake struct {
	mu sync.Mutex

	Tables       []*Table
	QueryResults map[string]*database.QueryResult
	Queries      []string
	PingErr      error
	Closed       bool
}

var _ database.Connection = (*Fake)(nil)

// NewFake returns a Fake holding tables.
func NewFake(tables ...*Table) *Fake {
	return &Fake{Tables: tables, QueryResults: map[string]*database.QueryResult{}}
}

func (f *Fake) table(name string) (*Table, error) {
	tn := database.SplitTableName(name, "public")
	for _, t := range f.Tables {
		if t.Schema == tn.Schema && t.Name == tn.Name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("relation %q does not exist", name)
}

// Engine returns database.EnginePostgres.
func (f *Fake) Engine() database.Engine { return database.EnginePostgres }

// Ping returns PingErr.
func (f *Fake) Ping(context.Context) error { return f.PingErr }

// Disconnect marks the fake closed.
func (f *Fake) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// GetTables lists the fake's tables.
func (f *Fake) GetTables(context.Context) ([]database.TableInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]database.TableInfo, 0, len(f.Tables))
	for _, t := range f.Tables {
		out = append(out, database.TableInfo{
			TableName: t.Name, SchemaName: t.Schema,
			FullTableName: t.Schema + "." + t.Name, TableType: t.tableType(),
		})
	}
	return out, nil
}

func (t *Table) tableType() database.TableType {
	if t.Type == "" {
		return database.TableTypeBase
	}
	return t.Type
}

func matches(row database.Row, f database.Filter) bool {
	v := row[f.Column]
	switch f.Operator {
	case database.OpEq:
		return v == f.Value
	case database.OpNe:
		return v != f.Value
	case database.OpGt:
		return v > f.Value
	case database.OpLt:
		return v < f.Value
	case database.OpGte:
		return v >= f.Value
	case database.OpLte:
		return v <= f.Value
	case database.OpLike:
		return strings.Contains(v, strings.Trim(f.Value, "%"))
	case database.OpNotLike:
		return !strings.Contains(v, strings.Trim(f.Value, "%"))
	}
	return false
}

// GetTableData filters, sorts and pages the table with string comparison.
func (f *Fake) GetTableData(_ context.Context, table string, page, pageSize int, filters []database.Filter, sorts []database.Sort) *database.TableDataResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	page, pageSize = database.NormalizePage(page, pageSize)
	result := database.NewTableDataResult(page, pageSize)
	t, err := f.table(table)
	if err != nil {
		return result.Fail(err, true)
	}

	var rows []database.Row
	for _, row := range t.Rows {
		keep := true
		for _, flt := range filters {
			if !matches(row, flt) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range sorts {
			a, b := rows[i][s.Column], rows[j][s.Column]
			if a == b {
				continue
			}
			if s.Direction == database.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})

	result.SetCount(int64(len(rows)))
	start := database.Offset(page, pageSize)
	if start < len(rows) {
		end := min(start+pageSize, len(rows))
		result.Rows = append(result.Rows, rows[start:end]...)
	}
	return result
}

func (f *Fake) find(t *Table, key map[string]any) int {
	want := database.Stringify(key[t.Key])
	for i, row := range t.Rows {
		if row[t.Key] == want {
			return i
		}
	}
	return -1
}

// InsertTableRow appends data as a row.
func (f *Fake) InsertTableRow(_ context.Context, table string, data map[string]any) (database.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(table)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, database.ErrNoColumns
	}
	row := database.Row{}
	for _, c := range t.Columns {
		row[c.Name] = ""
	}
	for col, v := range data {
		row[col] = database.Stringify(v)
	}
	if _, given := data[t.Key]; !given && t.Key != "" {
		row[t.Key] = fmt.Sprint(len(t.Rows) + 1)
	}
	t.Rows = append(t.Rows, row)
	return row, nil
}

// UpdateTableRow overwrites the columns in data on the keyed row.
func (f *Fake) UpdateTableRow(_ context.Context, table string, primaryKey, data map[string]any) (database.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(table)
	if err != nil {
		return nil, err
	}
	i := f.find(t, primaryKey)
	if i < 0 {
		return nil, database.ErrRowNotFound
	}
	updated := database.Row{}
	for k, v := range t.Rows[i] {
		updated[k] = v
	}
	for col, v := range data {
		updated[col] = database.Stringify(v)
	}
	t.Rows[i] = updated
	return updated, nil
}

// DeleteTableRow removes the keyed row.
func (f *Fake) DeleteTableRow(_ context.Context, table string, primaryKey map[string]any) (database.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(table)
	if err != nil {
		return nil, err
	}
	i := f.find(t, primaryKey)
	if i < 0 {
		return nil, database.ErrRowNotFound
	}
	row := t.Rows[i]
	t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
	return row, nil
}

// GetTableColumns returns the column names.
func (f *Fake) GetTableColumns(ctx context.Context, table string) ([]string, error) {
	types, err := f.GetTableColumnTypes(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(types))
	for i, c := range types {
		names[i] = c.Name
	}
	return names, nil
}

// GetTableColumnTypes returns the declared columns.
func (f *Fake) GetTableColumnTypes(_ context.Context, table string) ([]database.ColumnType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(table)
	if err != nil {
		return nil, err
	}
	return append([]database.ColumnType(nil), t.Columns...), nil
}

// GetTablePrimaryKeys returns the key column.
func (f *Fake) GetTablePrimaryKeys(_ context.Context, table string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(table)
	if err != nil {
		return nil, err
	}
	if t.Key == "" {
		return []string{}, nil
	}
	return []string{t.Key}, nil
}

// GetTableType returns the table type or "".
func (f *Fake) GetTableType(_ context.Context, table string) (database.TableType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(table)
	if err != nil {
		return "", nil
	}
	return t.tableType(), nil
}

// ExecuteQuery records sql and returns the canned result for it.
func (f *Fake) ExecuteQuery(_ context.Context, sql string) *database.QueryResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Queries = append(f.Queries, sql)
	if res, ok := f.QueryResults[sql]; ok {
		return res
	}
	return &database.QueryResult{Success: true, Rows: []database.Row{}, Fields: []string{}}
}

// GetTableIntrospection describes the table from its declared columns.
func (f *Fake) GetTableIntrospection(_ context.Context, table string) (*database.TableIntrospection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(table)
	if err != nil {
		return nil, err
	}
	info := &database.TableIntrospection{
		PrimaryKeys: []string{},
		ForeignKeys: []database.ForeignKey{},
		Indexes:     []database.Index{},
	}
	for i, c := range t.Columns {
		info.Columns = append(info.Columns, database.ColumnDetail{
			ColumnName: c.Name, DataType: c.DataType, UDTName: c.UDTName,
			IsNullable: "YES", OrdinalPosition: i + 1, IsIdentity: "NO", IsGenerated: "NEVER",
		})
	}
	if t.Key != "" {
		info.PrimaryKeys = []string{t.Key}
	}
	return info, nil
}

// GetFullDatabaseSchema lists every table with its columns.
func (f *Fake) GetFullDatabaseSchema(context.Context) ([]database.SchemaTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []database.SchemaTable
	for _, t := range f.Tables {
		st := database.SchemaTable{Table: t.Name, Schema: t.Schema, Type: t.tableType(), Columns: []database.SchemaColumn{}}
		for _, c := range t.Columns {
			st.Columns = append(st.Columns, database.SchemaColumn{Name: c.Name, DataType: c.DataType, IsNullable: c.Name != t.Key})
		}
		out = append(out, st)
	}
	return out, nil
}

// ErrOpen is a canned connection failure.
var ErrOpen = errors.New("connection refused")
