package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	configDir  = ".dbdeck"
	configFile = "config"
	configType = "yaml"

	keyringService = "dbdeck"
)

// Dir returns ~/.dbdeck, where the configuration and log file live.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

// Load reads the configuration from ~/.dbdeck/config.yaml.
// Returns an empty config if the file does not exist.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.yaml from dir. Passwords missing from the file are
// looked up in the OS keyring.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	// Defaults
	v.SetDefault("preferences.theme", "default")
	v.SetDefault("preferences.page_size", 50)

	cfg := &Config{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			cfg.Preferences.Theme = "default"
			cfg.Preferences.PageSize = 50
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for i := range cfg.Connections {
		c := &cfg.Connections[i]
		if c.Password != "" {
			continue
		}
		pw, err := keyring.Get(keyringService, c.Name)
		if err != nil {
			if !errors.Is(err, keyring.ErrNotFound) {
				slog.Warn("keyring lookup failed", "connection", c.Name, "error", err)
			}
			continue
		}
		c.Password = pw
	}

	return cfg, nil
}

// Save writes the configuration to ~/.dbdeck/config.yaml.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	return SaveTo(dir, cfg)
}

// SaveTo writes config.yaml into dir. Passwords go to the OS keyring; a
// password is only written to the file when the keyring is unavailable.
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	conns := make([]Connection, len(cfg.Connections))
	for i, c := range cfg.Connections {
		if c.Password != "" {
			if err := keyring.Set(keyringService, c.Name, c.Password); err != nil {
				slog.Warn("keyring unavailable, storing password in config file", "connection", c.Name, "error", err)
			} else {
				c.Password = ""
			}
		}
		conns[i] = c
	}

	v := viper.New()
	v.Set("connections", conns)
	v.Set("preferences", cfg.Preferences)

	path := filepath.Join(dir, configFile+"."+configType)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// SaveConnection adds or replaces conn in the stored configuration.
func SaveConnection(conn Connection) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.PutConnection(conn)
	return Save(cfg)
}

// DeleteConnection removes the profile called name and its keyring entry.
func DeleteConnection(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if !cfg.RemoveConnection(name) {
		return fmt.Errorf("unknown profile %q", name)
	}
	if err := keyring.Delete(keyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Warn("keyring delete failed", "connection", name, "error", err)
	}
	return Save(cfg)
}

// DefaultConnection returns the default connection from config, or the first one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}

	if cfg.Preferences.DefaultConnection != "" {
		for i := range cfg.Connections {
			if cfg.Connections[i].Name == cfg.Preferences.DefaultConnection {
				return &cfg.Connections[i]
			}
		}
	}

	return &cfg.Connections[0]
}
