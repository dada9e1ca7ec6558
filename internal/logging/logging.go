// Package logging holds the process-wide structured logger used by the
// mapping layer, the stores, and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	isInited bool
	explicit bool
)

// Level represents logging verbosity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config holds logger configuration.
type Config struct {
	Level Level

	// Writer receives log output when set. Otherwise OutputPath is used, and
	// stderr when both are empty.
	Writer     io.Writer
	OutputPath string

	// Format is "json" or "text".
	Format string
}

// ParseLevel maps a case-insensitive level name to a Level. Unknown names
// map to LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the global logger, replacing the lazily installed default.
// A second Init without an intervening Close returns an error.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if explicit {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	writer := config.Writer
	if writer == nil && config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return err
		}
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		writer = file
		logFile = file
	}
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	logger = slog.New(handler)
	isInited = true
	explicit = true
	return nil
}

// InitDefault installs a text logger at WARN level on stderr if no logger
// is installed yet.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	installDefault()
}

// installDefault requires loggerMu to be held for writing.
func installDefault() {
	if isInited {
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	isInited = true
}

// Close closes any open log file and uninstalls the logger. Safe to call
// multiple times.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	isInited = false
	explicit = false
	return err
}

// GetLogger returns the installed logger, lazily installing the default.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	installDefault()
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}
