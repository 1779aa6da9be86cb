package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/joacominatel/dbdeck/internal/config"
	"github.com/joacominatel/dbdeck/internal/connect"
	"github.com/joacominatel/dbdeck/internal/database"
)

// SchemaTree represents the loaded schema hierarchy for the explorer.
type SchemaTree struct {
	Database string
	Schemas  []SchemaNode
}

// SchemaNode holds a schema name and its tables and views.
type SchemaNode struct {
	Name   string
	Tables []TableNode
}

// TableNode is a table or view inside a schema.
type TableNode struct {
	Name string
	Type database.TableType
}

// FullName returns schema.table.
func (n SchemaNode) FullName(t TableNode) string {
	return database.TableName{Schema: n.Name, Name: t.Name}.String()
}

// TableRequest selects one page of a table.
type TableRequest struct {
	Table    string
	Page     int
	PageSize int
	Filters  []database.Filter
	Sorts    []database.Sort
}

// QueryRun is a query result with its wall-clock duration.
type QueryRun struct {
	*database.QueryResult
	Query    string
	Duration time.Duration
}

// Service coordinates application-level operations between the UI and the
// active database connection.
type Service struct {
	provider *connect.Provider
}

// NewService creates a new application service.
func NewService(provider *connect.Provider) *Service {
	return &Service{provider: provider}
}

func (s *Service) conn(ctx context.Context) (database.Connection, error) {
	c, err := s.provider.Connection(ctx)
	if err != nil {
		return nil, &ErrConnection{Cause: err}
	}
	return c, nil
}

// Connection returns the open connection, opening it if needed.
func (s *Service) Connection(ctx context.Context) (database.Connection, error) {
	return s.conn(ctx)
}

// Connect opens the connection and checks it answers.
func (s *Service) Connect(ctx context.Context) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.Ping(ctx); err != nil {
		_ = s.provider.Disconnect()
		return &ErrConnection{Cause: err}
	}
	return nil
}

// Use switches to profile and connects to it.
func (s *Service) Use(ctx context.Context, profile config.Connection) error {
	if err := profile.Validate(); err != nil {
		return &ErrConfig{Cause: err}
	}
	if err := s.provider.Reconfigure(profile); err != nil {
		slog.Warn("closing previous connection", "error", err)
	}
	return s.Connect(ctx)
}

// Disconnect closes the database connection.
func (s *Service) Disconnect() error {
	return s.provider.Disconnect()
}

// Profile returns the active connection profile.
func (s *Service) Profile() config.Connection {
	return s.provider.Config()
}

// namedDatabase is implemented by adapters that know which database the
// server actually connected them to.
type namedDatabase interface {
	DatabaseName() string
}

// DatabaseName returns the current database name: the one reported by the
// open connection, else the profile's database, else its host.
func (s *Service) DatabaseName() string {
	if n, ok := s.provider.Current().(namedDatabase); ok && n.DatabaseName() != "" {
		return n.DatabaseName()
	}
	p := s.provider.Config()
	if p.Database != "" {
		return p.Database
	}
	return p.Host
}

// LoadSchemaTree groups the catalog's tables and views by schema.
func (s *Service) LoadSchemaTree(ctx context.Context) (*SchemaTree, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := c.GetTables(ctx)
	if err != nil {
		return nil, &ErrQuery{Cause: err}
	}

	tree := &SchemaTree{Database: s.DatabaseName()}
	index := map[string]int{}
	for _, t := range tables {
		i, ok := index[t.SchemaName]
		if !ok {
			i = len(tree.Schemas)
			index[t.SchemaName] = i
			tree.Schemas = append(tree.Schemas, SchemaNode{Name: t.SchemaName})
		}
		tree.Schemas[i].Tables = append(tree.Schemas[i].Tables, TableNode{Name: t.TableName, Type: t.TableType})
	}
	return tree, nil
}

// LoadColumns fetches column types for a specific table.
func (s *Service) LoadColumns(ctx context.Context, schema, table string) ([]database.ColumnType, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	name := database.TableName{Schema: schema, Name: table}.String()
	cols, err := c.GetTableColumnTypes(ctx, name)
	if err != nil {
		return nil, &ErrQuery{Cause: err}
	}
	return cols, nil
}

// ColumnNames returns the column names of table in ordinal order.
func (s *Service) ColumnNames(ctx context.Context, table string) ([]string, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := c.GetTableColumns(ctx, table)
	if err != nil {
		return nil, &ErrQuery{Query: table, Cause: err}
	}
	return cols, nil
}

// BrowseTable returns one page of a table. A failed page is returned along
// with the error so callers can still show the row count.
func (s *Service) BrowseTable(ctx context.Context, req TableRequest) (*database.TableDataResult, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	result := c.GetTableData(ctx, req.Table, req.Page, req.PageSize, req.Filters, req.Sorts)
	if result.Error != "" {
		return result, &ErrQuery{Query: req.Table, Cause: errors.New(result.Error)}
	}
	return result, nil
}

// ExecuteQuery runs a SQL query and returns the results.
func (s *Service) ExecuteQuery(ctx context.Context, query string) (*QueryRun, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	result := c.ExecuteQuery(ctx, query)
	run := &QueryRun{QueryResult: result, Query: query, Duration: time.Since(start)}
	slog.Debug("query executed", "duration", run.Duration, "rows", result.RowCount, "success", result.Success)
	if !result.Success {
		return run, &ErrQuery{Query: query, Cause: errors.New(result.Error)}
	}
	return run, nil
}

// Introspect returns the structure of table.
func (s *Service) Introspect(ctx context.Context, table string) (*database.TableIntrospection, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	info, err := c.GetTableIntrospection(ctx, table)
	if err != nil {
		return nil, &ErrQuery{Query: table, Cause: err}
	}
	return info, nil
}

// SchemaBriefing renders the whole database schema as plain text.
func (s *Service) SchemaBriefing(ctx context.Context) (string, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return "", err
	}
	tables, err := c.GetFullDatabaseSchema(ctx)
	if err != nil {
		return "", &ErrQuery{Cause: err}
	}
	return database.FormatSchema(tables), nil
}

// InsertRow inserts data into table.
func (s *Service) InsertRow(ctx context.Context, table string, data map[string]any) (database.Row, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	row, err := c.InsertTableRow(ctx, table, data)
	if err != nil {
		return nil, &ErrMutation{Table: table, Op: "insert", Cause: err}
	}
	return row, nil
}

// UpdateRow updates the row identified by key.
func (s *Service) UpdateRow(ctx context.Context, table string, key, data map[string]any) (database.Row, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	row, err := c.UpdateTableRow(ctx, table, key, data)
	if err != nil {
		return nil, &ErrMutation{Table: table, Op: "update", Cause: err}
	}
	return row, nil
}

// DeleteRow deletes the row identified by key.
func (s *Service) DeleteRow(ctx context.Context, table string, key map[string]any) (database.Row, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	row, err := c.DeleteTableRow(ctx, table, key)
	if err != nil {
		return nil, &ErrMutation{Table: table, Op: "delete", Cause: err}
	}
	return row, nil
}

// RowKey builds the primary key map of row for table.
func (s *Service) RowKey(ctx context.Context, table string, row database.Row) (map[string]any, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := c.GetTablePrimaryKeys(ctx, table)
	if err != nil {
		return nil, &ErrQuery{Query: table, Cause: err}
	}
	if len(keys) == 0 {
		return nil, &ErrMutation{Table: table, Op: "key", Cause: database.ErrNoPrimaryKey}
	}
	key := make(map[string]any, len(keys))
	for _, k := range keys {
		key[k] = row[k]
	}
	return key, nil
}

// AllTableNames returns every table name, bare and schema-qualified, sorted.
func (s *Service) AllTableNames(tree *SchemaTree) []string {
	if tree == nil {
		return nil
	}
	seen := map[string]bool{}
	var names []string
	for _, schema := range tree.Schemas {
		for _, t := range schema.Tables {
			for _, n := range []string{t.Name, schema.FullName(t)} {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
	}
	sort.Strings(names)
	return names
}
