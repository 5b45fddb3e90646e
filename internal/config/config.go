// Package config provides configuration management for the gorepo CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all configuration for the gorepo CLI.
type Config struct {
	// Database contains connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Paging contains page size defaults applied to list requests.
	Paging PagingConfig `mapstructure:"paging"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Driver is one of sqlite, postgres, mysql (default: sqlite).
	Driver string `mapstructure:"driver"`
	// DSN is passed to the driver as-is. MySQL DSNs should set
	// clientFoundRows=true so updates of unchanged rows are not reported as conflicts.
	DSN string `mapstructure:"dsn"`
	// SlowThreshold marks statements slower than this as slow in the log.
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Format is json or console.
	Format string `mapstructure:"format"`
}

// PagingConfig holds page size limits.
type PagingConfig struct {
	// DefaultSize is used when a request does not specify a page size.
	DefaultSize int `mapstructure:"default_size"`
	// MaxSize caps requested page sizes.
	MaxSize int `mapstructure:"max_size"`
}

// Load reads configuration from defaults, an optional config file and
// GOREPO_* environment variables, in increasing order of precedence.
// An empty path searches for gorepo.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("GOREPO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gorepo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "file:gorepo.db?cache=shared")
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("paging.default_size", 10)
	v.SetDefault("paging.max_size", 100)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.Logging.Format)
	}

	if c.Paging.DefaultSize <= 0 {
		return fmt.Errorf("paging default_size must be positive, got %d", c.Paging.DefaultSize)
	}
	if c.Paging.MaxSize < c.Paging.DefaultSize {
		return fmt.Errorf("paging max_size (%d) must be >= default_size (%d)", c.Paging.MaxSize, c.Paging.DefaultSize)
	}

	return nil
}
