// Package logger builds the zerolog logger shared by the CLI, monitor and
// API server.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, format ("console" or "json") and output ("stdout",
// "stderr" or a file path).
type Config struct {
	Level  string
	Format string
	Output string
}

// New returns a logger writing to the configured output. Unknown levels
// are an error; an empty level means info.
func New(cfg Config) (zerolog.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}

	var out io.Writer
	switch cfg.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("could not open log file: %w", err)
		}
		out = f
	}
	return NewWithWriter(out, cfg.Format, level), nil
}

// NewWithWriter builds a logger over an arbitrary writer.
func NewWithWriter(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	switch format {
	case "console", "text", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
