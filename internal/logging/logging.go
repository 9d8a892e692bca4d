// Package logging builds the zerolog loggers used across coinboard and
// carries them through contexts so every component logs with consistent
// fields.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Config describes how the process logger is constructed.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Unparseable
	// values fall back to info.
	Level string
	// Format is "console" or "json".
	Format string
	// File, when non-empty, appends logs to the given path in addition to
	// stderr.
	File string
	// Caller enables caller annotation.
	Caller bool
}

// NewLogger constructs a zerolog.Logger from cfg. It never fails: an
// unwritable log file degrades to stderr-only output with a warning on the
// resulting logger.
func NewLogger(cfg Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Format == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	var fileErr error
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, f)
		}
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	logger := ctx.Logger()

	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("file", cfg.File).
			Msg("could not open log file, logging to stderr only")
	}

	return logger
}

// ComponentLogger returns a child logger tagged with a component field.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx, or a disabled logger when
// none was attached. Components should prefer this over package globals.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext attaches logger to ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// NewRequestID returns a fresh ULID for request correlation.
func NewRequestID() string {
	return ulid.Make().String()
}
