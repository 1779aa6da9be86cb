package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/joacominatel/dbdeck/internal/database"
)

// EnvConnectionName names the profile built from environment variables.
const EnvConnectionName = "env"

// envKeys maps each engine to its variable names. The engines are checked in
// database.Engines order and the first one with a host set wins.
var envKeys = map[database.Engine]struct {
	host, port, database, user, password string
}{
	database.EnginePostgres: {"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_USER", "POSTGRES_PASSWORD"},
	database.EngineMySQL:    {"MYSQL_HOST", "MYSQL_PORT", "MYSQL_DATABASE", "MYSQL_USER", "MYSQL_PASSWORD"},
	database.EngineMSSQL:    {"MSSQL_HOST", "MSSQL_PORT", "MSSQL_DATABASE", "MSSQL_USER", "MSSQL_PASSWORD"},
}

// NewEnv returns a viper instance bound to the process environment.
func NewEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// FromEnv builds a connection profile from environment variables. It returns
// the profile and every engine whose host variable is set; when none is set
// the profile falls back to PostgreSQL on localhost.
func FromEnv(v *viper.Viper) (Connection, []database.Engine) {
	var configured []database.Engine
	for _, engine := range database.Engines {
		if strings.TrimSpace(v.GetString(envKeys[engine].host)) != "" {
			configured = append(configured, engine)
		}
	}

	engine := database.Engines[0]
	if len(configured) > 0 {
		engine = configured[0]
	}
	if len(configured) > 1 {
		slog.Warn("several database hosts configured, using the first",
			"engine", engine, "ignored", configured[1:])
	}

	keys := envKeys[engine]
	conn := Connection{
		Name:     EnvConnectionName,
		Engine:   engine,
		Host:     v.GetString(keys.host),
		Port:     v.GetInt(keys.port),
		Database: v.GetString(keys.database),
		Username: v.GetString(keys.user),
		Password: v.GetString(keys.password),
	}
	if conn.Host == "" {
		conn.Host = "localhost"
	}
	if conn.Port == 0 {
		conn.Port = DefaultPort(engine)
	}

	switch engine {
	case database.EnginePostgres:
		conn.SSLMode = v.GetString("POSTGRES_SSLMODE")
	case database.EngineMSSQL:
		conn.TrustServerCertificate = v.GetBool("MSSQL_TRUST_SERVER_CERTIFICATE")
	}
	return conn, configured
}
