// Package config loads refsync configuration from environment variables
// with defaults, and validates it up front so misconfiguration fails before
// any source file or store is touched.
package config

import (
	"net"
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all refsync configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Source   SourceConfig
	Sync     SyncConfig
	Diff     DiffConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds sync hook server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds each request, including a table sync.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds store connection settings.
type DatabaseConfig struct {
	// Driver selects the store: postgres or sqlite (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `env:"SQLITE_PATH" default:"refsync.db"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SourceConfig locates the source files.
type SourceConfig struct {
	// DataDir is the directory holding the table source files (default: data)
	DataDir string `env:"DATA_DIR" default:"data"`
}

// SyncConfig holds seed and sync settings.
type SyncConfig struct {
	// Provenance is the tag stamped on written rows and used to scope
	// deprecation (default: seed)
	Provenance string `env:"SEED_PROVENANCE" default:"seed"`

	// SeedTimeout bounds a full seed run (default: 5m)
	SeedTimeout time.Duration `env:"SEED_TIMEOUT" default:"5m"`

	// SyncTimeout bounds a single table sync (default: 30s)
	SyncTimeout time.Duration `env:"SYNC_TIMEOUT" default:"30s"`
}

// DiffConfig bounds parity reports.
type DiffConfig struct {
	MaxRows   int `env:"DIFF_MAX_ROWS" default:"10"`
	MaxFields int `env:"DIFF_MAX_FIELDS" default:"5"`
}

// SecurityConfig holds proxy trust settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
