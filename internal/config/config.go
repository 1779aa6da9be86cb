package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/joacominatel/dbdeck/internal/database"
)

// Config represents the application configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections" yaml:"connections"`
	Preferences Preferences  `mapstructure:"preferences" yaml:"preferences"`
}

// Connection represents a saved database connection profile.
type Connection struct {
	Name                   string          `mapstructure:"name" yaml:"name"`
	Engine                 database.Engine `mapstructure:"engine" yaml:"engine"`
	Host                   string          `mapstructure:"host" yaml:"host"`
	Port                   int             `mapstructure:"port" yaml:"port"`
	Database               string          `mapstructure:"database" yaml:"database"`
	Username               string          `mapstructure:"username" yaml:"username"`
	Password               string          `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode                string          `mapstructure:"sslmode" yaml:"sslmode,omitempty"`
	TrustServerCertificate bool            `mapstructure:"trust_server_certificate" yaml:"trust_server_certificate,omitempty"`
}

// Preferences holds user preferences.
type Preferences struct {
	Theme             string `mapstructure:"theme" yaml:"theme"`
	DefaultConnection string `mapstructure:"default_connection" yaml:"default_connection"`
	PageSize          int    `mapstructure:"page_size" yaml:"page_size"`
}

// DefaultPort returns the standard port of engine.
func DefaultPort(engine database.Engine) int {
	switch engine {
	case database.EngineMySQL:
		return 3306
	case database.EngineMSSQL:
		return 1433
	default:
		return 5432
	}
}

// Validate reports missing or unknown fields.
func (c Connection) Validate() error {
	if !c.Engine.Valid() {
		return fmt.Errorf("%w: %q", database.ErrUnsupportedEngine, c.Engine)
	}
	if c.Host == "" {
		return fmt.Errorf("connection %q: host is required", c.Name)
	}
	return nil
}

func (c Connection) port() int {
	if c.Port > 0 {
		return c.Port
	}
	return DefaultPort(c.Engine)
}

func (c Connection) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
}

// DSN builds the driver connection string for the profile's engine.
func (c Connection) DSN() string {
	switch c.Engine {
	case database.EngineMySQL:
		mc := gomysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.addr()
		mc.DBName = c.Database
		mc.ParseTime = true
		return mc.FormatDSN()

	case database.EngineMSSQL:
		u := &url.URL{Scheme: "sqlserver", Host: c.addr()}
		if c.Username != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		}
		q := url.Values{}
		if c.Database != "" {
			q.Set("database", c.Database)
		}
		if c.TrustServerCertificate {
			q.Set("TrustServerCertificate", "true")
		}
		u.RawQuery = q.Encode()
		return u.String()

	default:
		u := &url.URL{Scheme: "postgresql", Host: c.addr(), Path: "/" + c.Database}
		if c.Username != "" {
			if c.Password != "" {
				u.User = url.UserPassword(c.Username, c.Password)
			} else {
				u.User = url.User(c.Username)
			}
		}
		if c.SSLMode != "" {
			u.RawQuery = "sslmode=" + url.QueryEscape(c.SSLMode)
		}
		return u.String()
	}
}

// DisplayString returns a human-readable summary of the connection.
func (c Connection) DisplayString() string {
	s := c.Host
	if c.Port > 0 {
		s += ":" + strconv.Itoa(c.Port)
	}
	s += "/" + c.Database
	if c.Username != "" {
		s = c.Username + "@" + s
	}
	return string(c.Engine) + "://" + s
}

// ParseDSN parses a URL-style connection string into a Connection. The scheme
// selects the engine: postgres(ql)://, mysql:// or sqlserver://.
func ParseDSN(dsn string) (Connection, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Connection{}, fmt.Errorf("invalid DSN: %w", err)
	}

	conn := Connection{Host: u.Hostname()}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		conn.Engine = database.EnginePostgres
		conn.Database = strings.TrimPrefix(u.Path, "/")
		conn.SSLMode = u.Query().Get("sslmode")
	case "mysql":
		conn.Engine = database.EngineMySQL
		conn.Database = strings.TrimPrefix(u.Path, "/")
	case "sqlserver", "mssql":
		conn.Engine = database.EngineMSSQL
		conn.Database = u.Query().Get("database")
		trust, _ := strconv.ParseBool(u.Query().Get("TrustServerCertificate"))
		conn.TrustServerCertificate = trust
	default:
		return Connection{}, fmt.Errorf("invalid DSN: %w: %q", database.ErrUnsupportedEngine, u.Scheme)
	}
	if conn.Host == "" {
		return Connection{}, fmt.Errorf("invalid DSN: missing host")
	}

	if u.User != nil {
		conn.Username = u.User.Username()
		if p, ok := u.User.Password(); ok {
			conn.Password = p
		}
	}

	if portStr := u.Port(); portStr != "" {
		conn.Port, _ = strconv.Atoi(portStr)
	}
	if conn.Port == 0 {
		conn.Port = DefaultPort(conn.Engine)
	}

	conn.Name = fmt.Sprintf("%s-%s-%d-%s", conn.Engine, conn.Host, conn.Port, conn.Database)
	return conn, nil
}

// HasConnection checks if a connection with the given name already exists.
func (cfg *Config) HasConnection(name string) bool {
	_, ok := cfg.Connection(name)
	return ok
}

// Connection returns the saved profile called name.
func (cfg *Config) Connection(name string) (Connection, bool) {
	for _, c := range cfg.Connections {
		if c.Name == name {
			return c, true
		}
	}
	return Connection{}, false
}

// AddConnection appends a connection if it doesn't already exist.
func (cfg *Config) AddConnection(conn Connection) {
	if !cfg.HasConnection(conn.Name) {
		cfg.Connections = append(cfg.Connections, conn)
	}
}

// PutConnection adds conn or replaces the profile with the same name.
func (cfg *Config) PutConnection(conn Connection) {
	for i := range cfg.Connections {
		if cfg.Connections[i].Name == conn.Name {
			cfg.Connections[i] = conn
			return
		}
	}
	cfg.Connections = append(cfg.Connections, conn)
}

// RemoveConnection drops the profile called name and clears it as the
// default. It reports whether a profile was removed.
func (cfg *Config) RemoveConnection(name string) bool {
	for i, c := range cfg.Connections {
		if c.Name == name {
			cfg.Connections = append(cfg.Connections[:i:i], cfg.Connections[i+1:]...)
			if cfg.Preferences.DefaultConnection == name {
				cfg.Preferences.DefaultConnection = ""
			}
			return true
		}
	}
	return false
}
