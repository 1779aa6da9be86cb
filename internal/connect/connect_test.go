package connect

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbdeck/internal/config"
	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/database/databasetest"
)

var localPG = config.Connection{Name: "local", Engine: database.EnginePostgres, Host: "localhost"}

func countingOpen(calls *atomic.Int32, err error) OpenFunc {
	return func(context.Context, config.Connection) (database.Connection, error) {
		calls.Add(1)
		if err != nil {
			return nil, err
		}
		return databasetest.NewFake(), nil
	}
}

func TestProvider_Memoizes(t *testing.T) {
	var calls atomic.Int32
	p := NewProviderWith(localPG, countingOpen(&calls, nil))

	first, err := p.Connection(context.Background())
	require.NoError(t, err)
	second, err := p.Connection(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, first, p.Current())
}

func TestProvider_FailedOpenIsRetried(t *testing.T) {
	var calls atomic.Int32
	p := NewProviderWith(localPG, countingOpen(&calls, databasetest.ErrOpen))

	_, err := p.Connection(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, databasetest.ErrOpen)
	assert.Contains(t, err.Error(), "open postgres connection")
	assert.Nil(t, p.Current())

	_, err = p.Connection(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestProvider_ConcurrentCallersShareOneOpen(t *testing.T) {
	var calls atomic.Int32
	p := NewProviderWith(localPG, countingOpen(&calls, nil))

	var wg sync.WaitGroup
	conns := make([]database.Connection, 16)
	for i := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := p.Connection(context.Background())
			assert.NoError(t, err)
			conns[i] = c
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, c := range conns {
		assert.Same(t, conns[0], c)
	}
}

func TestProvider_DisconnectResets(t *testing.T) {
	var calls atomic.Int32
	p := NewProviderWith(localPG, countingOpen(&calls, nil))

	c, err := p.Connection(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Disconnect())
	assert.True(t, c.(*databasetest.Fake).Closed)
	assert.Nil(t, p.Current())

	_, err = p.Connection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	// closing twice is a no-op
	require.NoError(t, p.Disconnect())
	require.NoError(t, p.Disconnect())
}

func TestProvider_Reconfigure(t *testing.T) {
	var seen []config.Connection
	p := NewProviderWith(localPG, func(_ context.Context, cfg config.Connection) (database.Connection, error) {
		seen = append(seen, cfg)
		return databasetest.NewFake(), nil
	})

	_, err := p.Connection(context.Background())
	require.NoError(t, err)

	other := config.Connection{Name: "shop", Engine: database.EngineMySQL, Host: "db"}
	require.NoError(t, p.Reconfigure(other))
	assert.Nil(t, p.Current())
	assert.Equal(t, other, p.Config())

	_, err = p.Connection(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, database.EngineMySQL, seen[1].Engine)
}

func TestOpen_RejectsUnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), config.Connection{Engine: "oracle", Host: "db"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrUnsupportedEngine))
}

func TestOpen_RequiresHost(t *testing.T) {
	_, err := Open(context.Background(), config.Connection{Name: "x", Engine: database.EngineMySQL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
}
