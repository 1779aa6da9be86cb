package database

import (
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "active", "created_at", "note"}).
			AddRow(int64(1), []byte("Ada"), true, created, nil))

	rows, err := db.Query("SELECT * FROM users")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	fields, data, err := ScanRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "active", "created_at", "note"}, fields)
	require.Len(t, data, 1)
	assert.Equal(t, Row{
		"id": "1", "name": "Ada", "active": "true",
		"created_at": "2024-01-02T03:04:05.000Z", "note": "",
	}, data[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRows_Converter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("abc"))

	rows, err := db.Query("SELECT code FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	_, data, err := ScanRows(rows, func(_ *sql.ColumnType, v any) any {
		return "converted:" + Stringify(v)
	})
	require.NoError(t, err)
	assert.Equal(t, "converted:abc", data[0]["code"])
}

func TestNullable(t *testing.T) {
	assert.Nil(t, NullableString(sql.NullString{}))
	assert.Equal(t, "", *NullableString(sql.NullString{Valid: true}))
	assert.Nil(t, EmptyAsNull(sql.NullString{Valid: true}))
	assert.Equal(t, "x", *NullableString(sql.NullString{String: "x", Valid: true}))
	assert.Nil(t, NullableInt(sql.NullInt64{}))
	assert.Equal(t, int64(4), *NullableInt(sql.NullInt64{Int64: 4, Valid: true}))
}
