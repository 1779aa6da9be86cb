package mssql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbdeck/internal/database"
)

func newMock(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func typeRows(pairs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "DATA_TYPE"})
	for i := 0; i+1 < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1], pairs[i+1])
	}
	return rows
}

func TestGetTableData_DefaultOrder(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM [dbo].[users]")).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(120))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM [dbo].[users] ORDER BY (SELECT NULL) OFFSET @p1 ROWS FETCH NEXT @p2 ROWS ONLY")).
		WithArgs(50, 25).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(51, "Ada"))

	res := d.GetTableData(context.Background(), "users", 3, 25, nil, nil)

	require.Empty(t, res.Error)
	assert.Equal(t, int64(120), res.TotalCount)
	assert.Equal(t, 5, res.TotalPages)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "51", res.Rows[0]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableData_FiltersAndSorts(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM [sales].[orders] WHERE ([status] = @p1 AND [note] NOT LIKE @p2)")).
		WithArgs("open", "%test%").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ([status] = @p1 AND [note] NOT LIKE @p2) ORDER BY [created_at] DESC OFFSET @p3 ROWS FETCH NEXT @p4 ROWS ONLY")).
		WithArgs("open", "%test%", 0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	res := d.GetTableData(context.Background(), "sales.orders", 1, 10,
		[]database.Filter{
			{Column: "status", Operator: database.OpEq, Value: "open"},
			{Column: "note", Operator: database.OpNotLike, Value: "%test%"},
		},
		[]database.Sort{{Column: "created_at", Direction: database.Desc}})

	require.Empty(t, res.Error)
	assert.Len(t, res.Rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableData_CountFails(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("Conversion failed when converting the varchar value"))

	res := d.GetTableData(context.Background(), "users", 1, 10,
		[]database.Filter{{Column: "id", Operator: database.OpEq, Value: "abc"}}, nil)

	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Rows)
	assert.Zero(t, res.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableData_DataFailsKeepsCount(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM [dbo].[events]")).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(75))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM [dbo].[events] ORDER BY (SELECT NULL) OFFSET @p1 ROWS FETCH NEXT @p2 ROWS ONLY")).
		WithArgs(0, 50).
		WillReturnError(errors.New("Transaction was deadlocked"))

	res := d.GetTableData(context.Background(), "events", 1, 50, nil, nil)

	assert.Equal(t, "read rows: Transaction was deadlocked", res.Error)
	assert.Empty(t, res.Rows)
	assert.Equal(t, int64(75), res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTableRow_Identity(t *testing.T) {
	d, mock := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM INFORMATION_SCHEMA.COLUMNS").
		WithArgs("dbo", "users").
		WillReturnRows(typeRows("id", "int", "name", "nvarchar", "created_at", "datetime2", "code", "varchar"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO [dbo].[users] ([code],[created_at],[name]) VALUES (@p1,@p2,@p3) ; SELECT CAST(SCOPE_IDENTITY() AS BIGINT)")).
		WithArgs("2024-05-01", created, "X").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(7)))
	mock.ExpectQuery("is_identity = 1").
		WithArgs("dbo", "users").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("id"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT TOP 1 * FROM [dbo].[users] WHERE ([id] = @p1)")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "code"}).
			AddRow(int64(7), "X", created, "2024-05-01"))

	row, err := d.InsertTableRow(context.Background(), "users", map[string]any{
		"name": "X", "created_at": "2024-05-01T12:00:00Z", "code": "2024-05-01",
	})

	require.NoError(t, err)
	assert.Equal(t, database.Row{
		"id": "7", "name": "X", "created_at": "2024-05-01T12:00:00.000Z", "code": "2024-05-01",
	}, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTableRow_NoIdentityUsesKey(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery("FROM INFORMATION_SCHEMA.COLUMNS").
		WillReturnRows(typeRows("sku", "varchar", "qty", "int"))
	mock.ExpectQuery("INSERT INTO").
		WithArgs(3, "A-1").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(nil))
	mock.ExpectQuery("PRIMARY KEY").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow("sku"))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ([sku] = @p1)")).
		WithArgs("A-1").
		WillReturnRows(sqlmock.NewRows([]string{"sku", "qty"}).AddRow("A-1", 3))

	row, err := d.InsertTableRow(context.Background(), "stock", map[string]any{"sku": "A-1", "qty": 3})

	require.NoError(t, err)
	assert.Equal(t, database.Row{"sku": "A-1", "qty": "3"}, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTableRow(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery("FROM INFORMATION_SCHEMA.COLUMNS").
		WillReturnRows(typeRows("id", "int", "name", "nvarchar"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE [dbo].[users] SET [name] = @p1 WHERE ([id] = @p2)")).
		WithArgs("Y", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT TOP 1 * FROM [dbo].[users] WHERE ([id] = @p1)")).
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "Y"))

	row, err := d.UpdateTableRow(context.Background(), "users", map[string]any{"id": "7"}, map[string]any{"name": "Y"})

	require.NoError(t, err)
	assert.Equal(t, "Y", row["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTableRow(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT TOP 1 * FROM [dbo].[users] WHERE ([id] = @p1)")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "Y"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM [dbo].[users] WHERE ([id] = @p1)")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	row, err := d.DeleteTableRow(context.Background(), "users", map[string]any{"id": 7})

	require.NoError(t, err)
	assert.Equal(t, database.Row{"id": "7", "name": "Y"}, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTableRow_NotFound(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery("SELECT TOP 1").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := d.DeleteTableRow(context.Background(), "users", map[string]any{"id": 7})
	assert.ErrorIs(t, err, database.ErrRowNotFound)
}

func TestExecuteQuery(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("Invalid object name 'nonexistent_table'."))
	res := d.ExecuteQuery(context.Background(), "SELECT * FROM nonexistent_table")
	assert.False(t, res.Success)
	assert.Empty(t, res.Rows)
	assert.Contains(t, res.Error, "Invalid object name")

	mock.ExpectExec("DELETE FROM logs").WillReturnResult(sqlmock.NewResult(0, 9))
	res = d.ExecuteQuery(context.Background(), "DELETE FROM logs")
	assert.True(t, res.Success)
	assert.Equal(t, int64(9), res.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery_BatchesReturningRows(t *testing.T) {
	batches := []string{
		"EXEC sp_who",
		"EXECUTE dbo.report @year = 2024",
		"SET NOCOUNT ON; SELECT name FROM sys.databases",
		"DECLARE @n INT = 1; SELECT @n AS n",
		"INSERT INTO dbo.users (name) OUTPUT inserted.* VALUES ('Ada')",
	}
	for _, batch := range batches {
		t.Run(batch, func(t *testing.T) {
			d, mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta(batch)).
				WillReturnRows(sqlmock.NewRows([]string{"spid", "status"}).AddRow(52, "runnable"))

			res := d.ExecuteQuery(context.Background(), batch)

			require.True(t, res.Success, res.Error)
			assert.Equal(t, []string{"spid", "status"}, res.Fields)
			require.Len(t, res.Rows, 1)
			assert.Equal(t, "52", res.Rows[0]["spid"])
			assert.Equal(t, int64(1), res.RowCount)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExecuteQuery_ProcedureWithoutResultSet(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("EXEC dbo.purge_logs")).
		WillReturnRows(sqlmock.NewRows(nil))

	res := d.ExecuteQuery(context.Background(), "EXEC dbo.purge_logs")

	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.Fields)
	assert.Empty(t, res.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableIntrospection(t *testing.T) {
	d, mock := newMock(t)

	// column comments come only from column-level extended properties
	mock.ExpectQuery(`COLUMNPROPERTY[\s\S]*ep\.class = 1 AND`).
		WithArgs("dbo", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}).
			AddRow("id", "int", "int", "NO", nil, nil, 10, 0, 1, "YES", nil, nil).
			AddRow("total", "decimal", "decimal", "NO", "((0))", nil, 10, 2, 2, "NO", nil, "Order total").
			AddRow("total_tax", "decimal", "decimal", "YES", nil, nil, 10, 2, 3, "NO", "([total]*(0.21))", nil))
	mock.ExpectQuery("PRIMARY KEY").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow("id"))
	mock.ExpectQuery("sys.foreign_keys").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "g"}).
			AddRow("FK_orders_users", "user_id", "dbo", "users", "id", "NO_ACTION", "SET_NULL"))
	mock.ExpectQuery("sys.indexes").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e"}).
			AddRow("PK_orders", "CLUSTERED", true, true, "id").
			AddRow("IX_orders_user", "NONCLUSTERED", false, false, "user_id"))

	info, err := d.GetTableIntrospection(context.Background(), "orders")
	require.NoError(t, err)

	require.Len(t, info.Columns, 3)
	assert.True(t, info.Columns[0].Identity())
	assert.Equal(t, "NEVER", info.Columns[0].IsGenerated)
	assert.Equal(t, "Order total", *info.Columns[1].ColumnComment)
	assert.Equal(t, "ALWAYS", info.Columns[2].IsGenerated)
	assert.Equal(t, "([total]*(0.21))", *info.Columns[2].GenerationExpression)

	assert.Equal(t, []string{"id"}, info.PrimaryKeys)
	require.Len(t, info.ForeignKeys, 1)
	assert.Equal(t, "NO ACTION", info.ForeignKeys[0].UpdateRule)
	assert.Equal(t, "SET NULL", info.ForeignKeys[0].DeleteRule)

	require.Len(t, info.Indexes, 2)
	assert.True(t, info.Indexes[0].IsPrimary)
	assert.Equal(t, "NONCLUSTERED", info.Indexes[1].IndexType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableType(t *testing.T) {
	d, mock := newMock(t)

	mock.ExpectQuery("SELECT TABLE_TYPE").
		WithArgs("reporting", "v_sales").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_TYPE"}).AddRow("VIEW"))
	mock.ExpectQuery("SELECT TABLE_TYPE").
		WithArgs("dbo", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_TYPE"}))

	tt, err := d.GetTableType(context.Background(), "reporting.v_sales")
	require.NoError(t, err)
	assert.Equal(t, database.TableTypeView, tt)

	tt, err = d.GetTableType(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, tt)
}

func TestDisconnect(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectClose()

	require.NoError(t, d.Disconnect())
	require.NoError(t, d.Disconnect())
	assert.NoError(t, mock.ExpectationsWereMet())
}
