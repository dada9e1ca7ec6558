package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/cabinet/internal/logging"
	"github.com/mesh-intelligence/cabinet/internal/paths"
	"github.com/mesh-intelligence/cabinet/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "CABINET"
)

// Config keys.
const (
	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyDSN             = "dsn"
	cfgKeySchema          = "schema"
	cfgKeyMaxOpenConns    = "max_open_conns"
	cfgKeyMaxIdleConns    = "max_idle_conns"
	cfgKeyConnMaxLifetime = "conn_max_lifetime"
	cfgKeyRateLimit       = "rate_limit"
	cfgKeyRateBurst       = "rate_burst"
	cfgKeySlowThreshold   = "slow_threshold"
	cfgKeyLogLevel        = "log_level"
	cfgKeyLogFormat       = "log_format"
	cfgKeyLogFile         = "log_file"
)

// envKeys may be overridden with CABINET_<KEY>. Directory and schema
// locations are resolved by the paths package instead.
var envKeys = []string{
	cfgKeyBackend, cfgKeyDSN,
	cfgKeyMaxOpenConns, cfgKeyMaxIdleConns, cfgKeyConnMaxLifetime,
	cfgKeyRateLimit, cfgKeyRateBurst, cfgKeySlowThreshold,
	cfgKeyLogLevel, cfgKeyLogFormat, cfgKeyLogFile,
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# cabinet configuration

# Backend: sqlite or mysql
backend: sqlite

# Data directory for sqlite (optional; overridable by --data-dir)
# data_dir:

# Data source name, required for mysql
# dsn: user:password@tcp(localhost:3306)/cabinet

# Entity declaration file, relative to this directory
# schema: schema.yaml

# Statements per second; 0 disables limiting
# rate_limit: 0
# rate_burst: 1

# Statements slower than this are logged as warnings
slow_threshold: 100ms

log_level: warn
log_format: text
# log_file:
`

// loadConfig reads config.yaml from configDir using viper, creating the
// directory and a default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := ensureFile(filepath.Join(configDir, paths.ConfigFileName), defaultConfigYAML); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySlowThreshold, types.DefaultSlowThreshold)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureFile writes content to path unless the file already exists.
func ensureFile(path, content string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// storeConfig builds the store configuration from v.
func storeConfig(v *viper.Viper, dataDir string) types.Config {
	return types.Config{
		Backend:         v.GetString(cfgKeyBackend),
		DataDir:         dataDir,
		DSN:             v.GetString(cfgKeyDSN),
		MaxOpenConns:    v.GetInt(cfgKeyMaxOpenConns),
		MaxIdleConns:    v.GetInt(cfgKeyMaxIdleConns),
		ConnMaxLifetime: v.GetDuration(cfgKeyConnMaxLifetime),
		RateLimit:       v.GetFloat64(cfgKeyRateLimit),
		RateBurst:       v.GetInt(cfgKeyRateBurst),
		SlowThreshold:   v.GetDuration(cfgKeySlowThreshold),
	}
}

// loggingConfig builds the logger configuration from v. Output goes to
// stderr unless log_file is set.
func loggingConfig(v *viper.Viper, stderr io.Writer) logging.Config {
	cfg := logging.Config{
		Level:      logging.ParseLevel(v.GetString(cfgKeyLogLevel)),
		Format:     v.GetString(cfgKeyLogFormat),
		OutputPath: v.GetString(cfgKeyLogFile),
	}
	if cfg.OutputPath == "" {
		cfg.Writer = stderr
	}
	return cfg
}
