// Package logging builds the *slog.Logger used by the driver and the
// transports from environment variables.
//
// Recognised variables:
//
//	MCP2210_LOG_LEVEL        trace, debug, info, warn or error (default warn)
//	MCP2210_LOG_FORMAT       text or json (default text)
//	MCP2210_LOG_FILE         log to a rotated file instead of stderr
//	MCP2210_LOG_MAX_SIZE     rotation size in megabytes (default 10)
//	MCP2210_LOG_MAX_BACKUPS  rotated files to keep (default 3)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is below slog.LevelDebug and is used for per-packet logging.
const LevelTrace = slog.Level(-8)

// Environment variable names.
const (
	EnvLevel      = "MCP2210_LOG_LEVEL"
	EnvFormat     = "MCP2210_LOG_FORMAT"
	EnvFile       = "MCP2210_LOG_FILE"
	EnvMaxSize    = "MCP2210_LOG_MAX_SIZE"
	EnvMaxBackups = "MCP2210_LOG_MAX_BACKUPS"
)

// Format is the log output encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config describes how to build a logger.
type Config struct {
	Level  slog.Level
	Format Format

	// File enables a rotated log file when non-empty
	File string

	// MaxSizeMB and MaxBackups control rotation of File
	MaxSizeMB  int
	MaxBackups int
}

// DefaultConfig returns the configuration used when no variables are set.
func DefaultConfig() Config {
	return Config{
		Level:      slog.LevelWarn,
		Format:     FormatText,
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// ConfigFromEnv reads Config from the MCP2210_LOG_* variables.
// Unset variables keep their defaults; malformed values are an error.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvLevel); v != "" {
		level, err := ParseLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.Level = level
	}

	switch v := strings.ToLower(os.Getenv(EnvFormat)); v {
	case "", "text":
	case "json":
		cfg.Format = FormatJSON
	default:
		return cfg, fmt.Errorf("%s: unknown format %q", EnvFormat, v)
	}

	cfg.File = os.Getenv(EnvFile)

	var err error
	if cfg.MaxSizeMB, err = envInt(EnvMaxSize, cfg.MaxSizeMB); err != nil {
		return cfg, err
	}
	if cfg.MaxBackups, err = envInt(EnvMaxBackups, cfg.MaxBackups); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("%s: invalid value %q", name, v)
	}
	return n, nil
}

// ParseLevel parses a level name, including "trace".
func ParseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return LevelTrace, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%s: %w", EnvLevel, err)
	}
	return level, nil
}

// New builds a logger writing to w.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		ReplaceAttr: replaceLevel,
	}
	if cfg.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewFromEnv builds a logger from the environment. Output goes to stderr
// unless MCP2210_LOG_FILE is set. On a configuration error the returned
// logger still works, using the settings parsed before the error.
func NewFromEnv() (*slog.Logger, error) {
	cfg, err := ConfigFromEnv()
	return New(writerFor(cfg), cfg), err
}

// Default returns a process-wide logger built by NewFromEnv on first use.
// Configuration errors fall back to the defaults.
var Default = sync.OnceValue(func() *slog.Logger {
	logger, _ := NewFromEnv()
	return logger
})

func writerFor(cfg Config) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
}

// replaceLevel prints LevelTrace as TRACE instead of DEBUG-4.
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
