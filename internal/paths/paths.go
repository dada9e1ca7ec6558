// Package paths resolves the configuration directory, the data directory and
// the schema file used by the cabinet CLI. Every resolver follows the same
// precedence: explicit flag, then config.yaml (where applicable), then the
// environment, then a default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "cabinet"

// Project-local directory and file names.
const (
	DefaultConfigDirName = ".cabinet"
	DefaultDataDirName   = ".cabinet-db"
	ConfigFileName       = "config.yaml"
	SchemaFileName       = "schema.yaml"
)

// Environment variable overrides.
const (
	EnvConfigDir  = "CABINET_CONFIG_DIR"
	EnvDataDir    = "CABINET_DATA_DIR"
	EnvSchemaFile = "CABINET_SCHEMA"
)

// platformDir holds platform lookups so tests can replace them.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/cabinet (fallback ~/.config/cabinet)
// macOS:   ~/Library/Application Support/cabinet
// Windows: %APPDATA%/cabinet
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// ResolveConfigDir returns the configuration directory:
// flag > CABINET_CONFIG_DIR > ./.cabinet if it exists > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, DefaultConfigDirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory:
// flag > data_dir in config.yaml > CABINET_DATA_DIR > ./.cabinet-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configValue, os.Getenv(EnvDataDir)); ok || err != nil {
		return dir, err
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveSchemaFile returns the entity declaration file:
// flag > schema in config.yaml > CABINET_SCHEMA > <configDir>/schema.yaml.
// A relative config value is taken relative to configDir.
func ResolveSchemaFile(flag, configValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		if !filepath.IsAbs(configValue) {
			configValue = filepath.Join(configDir, configValue)
		}
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvSchemaFile); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Join(configDir, SchemaFileName), nil
}

// firstAbs returns the first non-empty candidate as an absolute path.
func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c != "" {
			abs, err := filepath.Abs(c)
			return abs, true, err
		}
	}
	return "", false, nil
}
