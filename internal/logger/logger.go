// Package logger builds the zerolog loggers used across recon.
package logger

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type contextKey struct{}

// Options configures New.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Console selects human-readable output instead of JSON lines.
	Console bool
}

// New creates a structured logger writing to w.
func New(w io.Writer, opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel resolves a level name such as "debug" or "warn".
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext retrieves the logger from the context, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return zerolog.Nop()
	}
	if l, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

// WithFields adds structured fields to a logger.
func WithFields(l zerolog.Logger, fields map[string]any) zerolog.Logger {
	ctx := l.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}
