package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/database/databasetest"
)

func TestSplitBatches_GO(t *testing.T) {
	script := `CREATE DATABASE testdb;
GO
USE testdb;
GO
-- people
CREATE TABLE people (id INT PRIMARY KEY);

INSERT INTO people VALUES (1);
go
CREATE TRIGGER trg ON people AFTER INSERT AS
BEGIN
  SELECT 1;
END
GO
`
	assert.Equal(t, []string{
		"CREATE TABLE people (id INT PRIMARY KEY);\nINSERT INTO people VALUES (1);",
		"CREATE TRIGGER trg ON people AFTER INSERT AS\nBEGIN\nSELECT 1;\nEND",
	}, SplitBatches(script))
}

func TestSplitBatches_IsolatesRoutinesWithoutGO(t *testing.T) {
	script := `CREATE TABLE a (id INT);
CREATE PROCEDURE list_a AS
SELECT * FROM a;
CREATE INDEX ix_a ON a (id);
CREATE TABLE b (id INT);
INSERT INTO b VALUES (1);`

	assert.Equal(t, []string{
		"CREATE TABLE a (id INT);",
		"CREATE PROCEDURE list_a AS\nSELECT * FROM a;\nCREATE INDEX ix_a ON a (id);",
		"CREATE TABLE b (id INT);\nINSERT INTO b VALUES (1);",
	}, SplitBatches(script))
}

func TestSplitBatches_Empty(t *testing.T) {
	assert.Empty(t, SplitBatches("-- nothing\n\nGO\n"))
}

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("login failed")
	}
	return nil
}

func TestWaitForReady(t *testing.T) {
	p := &flakyPinger{failures: 2}
	require.NoError(t, WaitForReady(context.Background(), p, 5, time.Millisecond))
	assert.Equal(t, 3, p.calls)
}

func TestWaitForReady_GivesUp(t *testing.T) {
	p := &flakyPinger{failures: 10}
	err := WaitForReady(context.Background(), p, 3, time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, 3, p.calls)
	assert.Contains(t, err.Error(), "login failed")
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	fake := databasetest.NewFake()
	fake.QueryResults["BROKEN"] = database.FailedQuery(errors.New("Incorrect syntax near 'BROKEN'"))

	report := Run(context.Background(), fake, []string{"CREATE TABLE a (id INT)", "BROKEN", "INSERT INTO a VALUES (1)"})
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Executed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 1, report.Failed[0].Index)
	assert.False(t, report.OK())
	assert.Len(t, fake.Queries, 3)
}
