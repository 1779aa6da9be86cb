package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbdeck/internal/config"
	"github.com/joacominatel/dbdeck/internal/connect"
	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/database/databasetest"
)

func usersTable() *databasetest.Table {
	return &databasetest.Table{
		Schema: "public", Name: "users", Key: "id",
		Columns: []database.ColumnType{
			{Name: "id", DataType: "integer", UDTName: "int4"},
			{Name: "name", DataType: "text", UDTName: "text"},
		},
		Rows: []database.Row{
			{"id": "1", "name": "ana"},
			{"id": "2", "name": "bruno"},
			{"id": "3", "name": "carla"},
		},
	}
}

func newTestService(t *testing.T, fake *databasetest.Fake) *Service {
	t.Helper()
	profile := config.Connection{Name: "test", Engine: database.EnginePostgres, Host: "localhost", Database: "app"}
	p := connect.NewProviderWith(profile, func(context.Context, config.Connection) (database.Connection, error) {
		return fake, nil
	})
	return NewService(p)
}

func TestLoadSchemaTree(t *testing.T) {
	fake := databasetest.NewFake(
		usersTable(),
		&databasetest.Table{Schema: "public", Name: "active_users", Type: database.TableTypeView},
		&databasetest.Table{Schema: "audit", Name: "events"},
	)
	s := newTestService(t, fake)

	tree, err := s.LoadSchemaTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app", tree.Database)
	require.Len(t, tree.Schemas, 2)
	assert.Equal(t, "public", tree.Schemas[0].Name)
	assert.Equal(t, []TableNode{
		{Name: "users", Type: database.TableTypeBase},
		{Name: "active_users", Type: database.TableTypeView},
	}, tree.Schemas[0].Tables)

	assert.Equal(t,
		[]string{"active_users", "audit.events", "events", "public.active_users", "public.users", "users"},
		s.AllTableNames(tree))
}

func TestConnect_PingFailure(t *testing.T) {
	fake := databasetest.NewFake()
	fake.PingErr = databasetest.ErrOpen
	s := newTestService(t, fake)

	err := s.Connect(context.Background())
	var connErr *ErrConnection
	require.ErrorAs(t, err, &connErr)
	assert.ErrorIs(t, err, databasetest.ErrOpen)
	assert.True(t, fake.Closed)
}

func TestUse_InvalidProfile(t *testing.T) {
	s := newTestService(t, databasetest.NewFake())
	err := s.Use(context.Background(), config.Connection{Engine: "db2", Host: "x"})
	var cfgErr *ErrConfig
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBrowseTable(t *testing.T) {
	s := newTestService(t, databasetest.NewFake(usersTable()))

	page, err := s.BrowseTable(context.Background(), TableRequest{
		Table: "users", Page: 1, PageSize: 2,
		Sorts: []database.Sort{{Column: "name", Direction: database.Desc}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "carla", page.Rows[0]["name"])

	page, err = s.BrowseTable(context.Background(), TableRequest{Table: "missing"})
	var qErr *ErrQuery
	require.ErrorAs(t, err, &qErr)
	require.NotNil(t, page)
	assert.NotEmpty(t, page.Error)
}

func TestExecuteQuery(t *testing.T) {
	fake := databasetest.NewFake()
	fake.QueryResults["SELECT 1"] = &database.QueryResult{
		Success: true, RowCount: 1, Fields: []string{"?column?"},
		Rows: []database.Row{{"?column?": "1"}},
	}
	fake.QueryResults["SELEC 1"] = database.FailedQuery(errors.New(`syntax error at or near "SELEC"`))
	s := newTestService(t, fake)

	run, err := s.ExecuteQuery(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.RowCount)
	assert.Equal(t, "SELECT 1", run.Query)

	run, err = s.ExecuteQuery(context.Background(), "SELEC 1")
	var qErr *ErrQuery
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "SELEC 1", qErr.Query)
	assert.False(t, run.Success)
	assert.Equal(t, []string{"SELECT 1", "SELEC 1"}, fake.Queries)
}

func TestMutations(t *testing.T) {
	s := newTestService(t, databasetest.NewFake(usersTable()))
	ctx := context.Background()

	row, err := s.InsertRow(ctx, "users", map[string]any{"name": "dora"})
	require.NoError(t, err)
	assert.Equal(t, "4", row["id"])

	key, err := s.RowKey(ctx, "users", row)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "4"}, key)

	row, err = s.UpdateRow(ctx, "users", key, map[string]any{"name": "dorothy"})
	require.NoError(t, err)
	assert.Equal(t, "dorothy", row["name"])

	_, err = s.DeleteRow(ctx, "users", key)
	require.NoError(t, err)

	_, err = s.DeleteRow(ctx, "users", key)
	var mErr *ErrMutation
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "delete", mErr.Op)
	assert.ErrorIs(t, err, database.ErrRowNotFound)
	assert.Equal(t, "delete users: row not found", err.Error())
}

func TestRowKey_NoPrimaryKey(t *testing.T) {
	s := newTestService(t, databasetest.NewFake(&databasetest.Table{Schema: "public", Name: "logs"}))
	_, err := s.RowKey(context.Background(), "logs", database.Row{"line": "x"})
	assert.ErrorIs(t, err, database.ErrNoPrimaryKey)
}

func TestSchemaBriefing(t *testing.T) {
	s := newTestService(t, databasetest.NewFake(usersTable()))
	text, err := s.SchemaBriefing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TABLE: public.users\n  - id: integer NOT NULL\n  - name: text NULLABLE", text)
}

func TestLoadColumns(t *testing.T) {
	s := newTestService(t, databasetest.NewFake(usersTable()))
	cols, err := s.LoadColumns(context.Background(), "public", "users")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "name", cols[1].Name)
}

func TestColumnNames(t *testing.T) {
	s := newTestService(t, databasetest.NewFake(usersTable()))
	cols, err := s.ColumnNames(context.Background(), "public.users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	_, err = s.ColumnNames(context.Background(), "nope")
	var qErr *ErrQuery
	assert.ErrorAs(t, err, &qErr)
}

type namedFake struct {
	*databasetest.Fake
	name string
}

func (n namedFake) DatabaseName() string { return n.name }

func TestDatabaseName(t *testing.T) {
	fake := databasetest.NewFake()
	profile := config.Connection{Name: "test", Engine: database.EnginePostgres, Host: "db.internal"}
	s := NewService(connect.NewProviderWith(profile, func(context.Context, config.Connection) (database.Connection, error) {
		return namedFake{Fake: fake, name: "warehouse"}, nil
	}))

	// before connecting only the profile is known
	assert.Equal(t, "db.internal", s.DatabaseName())

	_, err := s.Connection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "warehouse", s.DatabaseName())

	require.NoError(t, s.Disconnect())
	assert.Equal(t, "db.internal", s.DatabaseName())
}

func TestDatabaseName_ProfileWhenConnectionUnnamed(t *testing.T) {
	s := newTestService(t, databasetest.NewFake())
	_, err := s.Connection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app", s.DatabaseName())
}
