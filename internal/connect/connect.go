// Package connect selects a database adapter from configuration and owns the
// process-wide connection.
package connect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joacominatel/dbdeck/internal/config"
	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/database/mssql"
	"github.com/joacominatel/dbdeck/internal/database/mysql"
	"github.com/joacominatel/dbdeck/internal/database/postgres"
)

// OpenFunc opens a connected adapter for a profile.
type OpenFunc func(ctx context.Context, conn config.Connection) (database.Connection, error)

// Open returns a connected adapter for the profile's engine.
func Open(ctx context.Context, conn config.Connection) (database.Connection, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("opening connection", "engine", conn.Engine, "host", conn.Host, "database", conn.Database)

	switch conn.Engine {
	case database.EnginePostgres:
		d := postgres.New()
		if err := d.Connect(ctx, conn.DSN()); err != nil {
			return nil, err
		}
		return d, nil

	case database.EngineMySQL:
		d, err := mysql.Connect(ctx, conn.DSN())
		if err != nil {
			return nil, err
		}
		return d, nil

	case database.EngineMSSQL:
		d := mssql.New(conn.DSN())
		if err := d.Ping(ctx); err != nil {
			return nil, err
		}
		return d, nil

	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedEngine, conn.Engine)
	}
}

// Provider lazily opens one connection and hands it to every caller until
// Disconnect or Reconfigure. A failed open is returned to the caller and
// retried on the next call. Safe for concurrent use.
type Provider struct {
	mu     sync.Mutex
	cfg    config.Connection
	open   OpenFunc
	active database.Connection
}

// NewProvider returns a Provider for cfg that opens with Open.
func NewProvider(cfg config.Connection) *Provider {
	return NewProviderWith(cfg, Open)
}

// NewProviderWith returns a Provider that opens with open.
func NewProviderWith(cfg config.Connection, open OpenFunc) *Provider {
	return &Provider{cfg: cfg, open: open}
}

// Connection returns the shared connection, opening it on first use.
func (p *Provider) Connection(ctx context.Context) (database.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		return p.active, nil
	}
	conn, err := p.open(ctx, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", p.cfg.Engine, err)
	}
	p.active = conn
	return conn, nil
}

// Current returns the open connection without opening one. It returns nil
// before the first successful Connection and after Disconnect.
func (p *Provider) Current() database.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Config returns the profile the provider connects with.
func (p *Provider) Config() config.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Disconnect closes the shared connection. The next call to Connection
// opens a new one.
func (p *Provider) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

// Reconfigure closes the current connection and switches to cfg.
func (p *Provider) Reconfigure(cfg config.Connection) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.closeLocked()
	p.cfg = cfg
	return err
}

func (p *Provider) closeLocked() error {
	if p.active == nil {
		return nil
	}
	err := p.active.Disconnect()
	p.active = nil
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
