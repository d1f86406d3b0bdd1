// Package log builds the process-wide slog handler. Every binary calls
// Setup once at startup; packages then log through the slog default.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds handler configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"
	Output io.Writer
}

// DefaultConfig returns the handler settings used when the environment
// specifies nothing: human-readable text at Info on stdout.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Output: os.Stdout,
	}
}

// New builds a logger from the given configuration.
func New(config Config) *slog.Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: config.Level}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Setup builds a logger from level and format names and installs it as
// the slog default. Unknown names fall back to the defaults rather than
// failing startup.
func Setup(levelName, format string) *slog.Logger {
	config := DefaultConfig()
	if level, err := ParseLevel(levelName); err == nil {
		config.Level = level
	}
	if format != "" {
		config.Format = format
	}

	logger := New(config)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
