// Package postgres implements database.Connection on top of a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joacominatel/dbdeck/internal/database"
)

// Driver implements database.Connection for PostgreSQL.
type Driver struct {
	pool   *pgxpool.Pool
	dbName string
}

var _ database.Connection = (*Driver)(nil)

// rawTextTypes are decoded as the server's text representation instead of
// being parsed into Go values.
var rawTextTypes = []struct {
	name string
	oid  uint32
}{
	{"date", pgtype.DateOID},
	{"time", pgtype.TimeOID},
	{"timestamp", pgtype.TimestampOID},
	{"timestamptz", pgtype.TimestamptzOID},
	{"interval", pgtype.IntervalOID},
	{"json", pgtype.JSONOID},
	{"jsonb", pgtype.JSONBOID},
}

// New creates a new PostgreSQL driver.
func New() *Driver {
	return &Driver{}
}

// Connect establishes a connection pool to PostgreSQL.
func (d *Driver) Connect(ctx context.Context, dsn string) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		tm := conn.TypeMap()
		for _, t := range rawTextTypes {
			tm.RegisterType(&pgtype.Type{Name: t.name, OID: t.oid, Codec: pgtype.TextCodec{}})
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}

	d.pool = pool
	d.dbName = cfg.ConnConfig.Database
	return nil
}

// Engine returns database.EnginePostgres.
func (d *Driver) Engine() database.Engine { return database.EnginePostgres }

// DatabaseName returns the name of the connected database.
func (d *Driver) DatabaseName() string {
	return d.dbName
}

// Disconnect closes the connection pool.
func (d *Driver) Disconnect() error {
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	return nil
}

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	if d.pool == nil {
		return fmt.Errorf("not connected")
	}
	return d.pool.Ping(ctx)
}

func (d *Driver) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if d.pool == nil {
		return nil, fmt.Errorf("not connected")
	}
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// ExecuteQuery runs arbitrary SQL. Failures are reported in the result.
func (d *Driver) ExecuteQuery(ctx context.Context, query string) *database.QueryResult {
	conn, err := d.acquire(ctx)
	if err != nil {
		return database.FailedQuery(err)
	}
	defer conn.Release()

	// The simple protocol accepts several statements in one call.
	rows, err := conn.Query(ctx, query, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return database.FailedQuery(err)
	}
	fields, data, err := collectRows(rows)
	if err != nil {
		return database.FailedQuery(err)
	}

	result := &database.QueryResult{Success: true, Rows: data, Fields: fields, RowCount: int64(len(data))}
	if len(fields) == 0 {
		result.RowCount = rows.CommandTag().RowsAffected()
	}
	return result
}

// collectRows drains rows into stringified Rows and closes them.
func collectRows(rows pgx.Rows) ([]string, []database.Row, error) {
	defer rows.Close()

	descs := rows.FieldDescriptions()
	fields := make([]string, len(descs))
	for i, f := range descs {
		fields[i] = f.Name
	}

	data := []database.Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		data = append(data, database.StringifyRow(fields, values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return fields, data, nil
}

func queryRows(ctx context.Context, conn *pgxpool.Conn, query string, args []any) ([]database.Row, error) {
	slog.Debug("postgres query", "sql", query, "args", len(args))
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	_, data, err := collectRows(rows)
	return data, err
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
