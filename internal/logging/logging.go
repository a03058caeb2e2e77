// Package logging provides structured logging using Go's log/slog.
//
// Configuration is controlled via environment variables:
//   - CXREF_LOG_LEVEL: debug, info, warn, error (default: warn)
//   - CXREF_LOG_FORMAT: text, json (default: text)
//
// All logging goes to stderr; stdout is reserved for query results.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logging configuration.
type Config struct {
	Level  slog.Level
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stderr
	Source string    // component name for context
}

// DefaultConfig returns the defaults for the given source component.
// Indexing a large unit produces many per-cursor diagnostics, so the
// default level is warn.
func DefaultConfig(source string) Config {
	return Config{
		Level:  slog.LevelWarn,
		Format: "text",
		Output: os.Stderr,
		Source: source,
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// LoadConfigFromEnv returns DefaultConfig with overrides from
// CXREF_LOG_LEVEL and CXREF_LOG_FORMAT.
func LoadConfigFromEnv(source string) Config {
	cfg := DefaultConfig(source)

	if level, ok := ParseLevel(os.Getenv("CXREF_LOG_LEVEL")); ok {
		cfg.Level = level
	}
	if format := os.Getenv("CXREF_LOG_FORMAT"); format != "" {
		cfg.Format = strings.ToLower(format)
	}
	return cfg
}

// New creates a configured slog.Logger.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Source != "" {
		logger = logger.With("source", cfg.Source)
	}
	return logger
}

// Default returns a logger configured from the environment.
func Default(source string) *slog.Logger {
	return New(LoadConfigFromEnv(source))
}

// Nop returns a logger that discards all output.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
