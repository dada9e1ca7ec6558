package types

import (
	"errors"
	"time"
)

// Config holds backend selection and connection parameters for cabinet.Open.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DSN is the driver data source name. Required for mysql; for sqlite it
	// overrides the default DataDir/cabinet.db path.
	DSN string `json:"dsn" yaml:"dsn"`

	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`

	// RateLimit caps statements per second; zero disables limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `json:"rate_burst" yaml:"rate_burst"`

	// SlowThreshold is the duration after which a statement is logged as a
	// warning. Zero means DefaultSlowThreshold.
	SlowThreshold time.Duration `json:"slow_threshold" yaml:"slow_threshold"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// DefaultSlowThreshold is used when Config.SlowThreshold is zero.
const DefaultSlowThreshold = 100 * time.Millisecond

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDSNEmpty       = errors.New("dsn must not be empty for this backend")
	ErrRateInvalid    = errors.New("rate limit must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMySQL:  true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendMySQL && c.DSN == "" {
		return ErrDSNEmpty
	}
	if c.RateLimit < 0 {
		return ErrRateInvalid
	}
	return nil
}

// GetSlowThreshold returns SlowThreshold or DefaultSlowThreshold when unset.
func (c Config) GetSlowThreshold() time.Duration {
	if c.SlowThreshold <= 0 {
		return DefaultSlowThreshold
	}
	return c.SlowThreshold
}
