package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/dbdeck/internal/database"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		conn Connection
		want string
	}{
		{
			"postgres",
			Connection{Engine: database.EnginePostgres, Host: "db", Port: 5433, Database: "app", Username: "u", Password: "p@ss", SSLMode: "disable"},
			"postgresql://u:p%40ss@db:5433/app?sslmode=disable",
		},
		{
			"postgres default port",
			Connection{Engine: database.EnginePostgres, Host: "db", Database: "app", Username: "u"},
			"postgresql://u@db:5432/app",
		},
		{
			"mysql",
			Connection{Engine: database.EngineMySQL, Host: "db", Database: "shop", Username: "root", Password: "secret"},
			"root:secret@tcp(db:3306)/shop?parseTime=true",
		},
		{
			"mssql",
			Connection{Engine: database.EngineMSSQL, Host: "db", Port: 1433, Database: "master", Username: "sa", Password: "Str0ng!", TrustServerCertificate: true},
			"sqlserver://sa:Str0ng%21@db:1433?TrustServerCertificate=true&database=master",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.conn.DSN())
		})
	}
}

func TestParseDSN(t *testing.T) {
	conn, err := ParseDSN("postgres://admin:pw@localhost/app?sslmode=require")
	require.NoError(t, err)
	assert.Equal(t, database.EnginePostgres, conn.Engine)
	assert.Equal(t, 5432, conn.Port)
	assert.Equal(t, "require", conn.SSLMode)
	assert.Equal(t, "pw", conn.Password)
	assert.Equal(t, "postgres-localhost-5432-app", conn.Name)

	conn, err = ParseDSN("mysql://root@db:3307/shop")
	require.NoError(t, err)
	assert.Equal(t, database.EngineMySQL, conn.Engine)
	assert.Equal(t, 3307, conn.Port)
	assert.Equal(t, "shop", conn.Database)

	conn, err = ParseDSN("sqlserver://sa:pw@db?database=sales&TrustServerCertificate=true")
	require.NoError(t, err)
	assert.Equal(t, database.EngineMSSQL, conn.Engine)
	assert.Equal(t, 1433, conn.Port)
	assert.Equal(t, "sales", conn.Database)
	assert.True(t, conn.TrustServerCertificate)
}

func TestParseDSN_Errors(t *testing.T) {
	_, err := ParseDSN("sqlite:///tmp/x.db")
	assert.ErrorIs(t, err, database.ErrUnsupportedEngine)

	_, err = ParseDSN("postgres:///app")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Connection{Engine: database.EngineMySQL, Host: "h"}.Validate())
	assert.ErrorIs(t, Connection{Engine: "oracle", Host: "h"}.Validate(), database.ErrUnsupportedEngine)
	assert.Error(t, Connection{Engine: database.EngineMySQL}.Validate())
}

func TestPutConnection(t *testing.T) {
	cfg := &Config{}
	cfg.PutConnection(Connection{Name: "a", Host: "one"})
	cfg.PutConnection(Connection{Name: "b", Host: "two"})
	cfg.PutConnection(Connection{Name: "a", Host: "three"})

	require.Len(t, cfg.Connections, 2)
	c, ok := cfg.Connection("a")
	require.True(t, ok)
	assert.Equal(t, "three", c.Host)

	cfg.AddConnection(Connection{Name: "b", Host: "ignored"})
	c, _ = cfg.Connection("b")
	assert.Equal(t, "two", c.Host)
}

func TestDefaultConnection(t *testing.T) {
	assert.Nil(t, DefaultConnection(&Config{}))

	cfg := &Config{
		Connections: []Connection{{Name: "a"}, {Name: "b"}},
		Preferences: Preferences{DefaultConnection: "b"},
	}
	assert.Equal(t, "b", DefaultConnection(cfg).Name)

	cfg.Preferences.DefaultConnection = "missing"
	assert.Equal(t, "a", DefaultConnection(cfg).Name)
}

func TestRemoveConnection(t *testing.T) {
	cfg := &Config{
		Connections: []Connection{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		Preferences: Preferences{DefaultConnection: "b"},
	}
	kept := cfg.Connections[:1]

	assert.True(t, cfg.RemoveConnection("b"))
	assert.False(t, cfg.RemoveConnection("b"))
	require.Len(t, cfg.Connections, 2)
	assert.Equal(t, "c", cfg.Connections[1].Name)
	assert.Empty(t, cfg.Preferences.DefaultConnection)
	assert.Equal(t, "a", kept[0].Name)
}
