// Package logging configures structured JSON logging for the coderef engine.
//
// The engine is an embeddable library: it never opens files or sockets on
// its own. Hosts pick the writer; components log through log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Writer receives log output. Nil means stderr.
	Writer io.Writer
	// AddSource includes source file/line in each record.
	AddSource bool
}

// DefaultConfig returns sensible defaults for embedded use.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Writer: os.Stderr,
	}
}

// DebugConfig returns configuration for debug mode.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup builds a structured JSON logger from the config.
func Setup(cfg Config) *slog.Logger {
	output := cfg.Writer
	if output == nil {
		output = os.Stderr
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	})

	return slog.New(handler)
}

// SetupDefault configures logging with defaults and installs it as the
// process default logger.
func SetupDefault() *slog.Logger {
	logger := Setup(DefaultConfig())
	slog.SetDefault(logger)
	return logger
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts string level to slog.Level.
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
