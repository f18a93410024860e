// Package logging is the project's structured-logging seam. The vault and
// its background tasks log through this interface so the daemon can decide
// on the handler (JSON to stdout in production, discard in tests).
package logging

import (
	"context"
	"io"
	"log/slog"
)

// Logger is a context-aware structured logger. Variadic args are key-value
// pairs, e.g. log.Info(ctx, "record stored", "record_id", id).
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlog wraps an slog.Logger.
func NewSlog(l *slog.Logger) Logger { return &slogLogger{l: l} }

// NewJSON builds a JSON logger writing to w.
func NewJSON(w io.Writer) Logger {
	return &slogLogger{l: slog.New(slog.NewJSONHandler(w, nil))}
}

// Discard drops everything; used in tests.
func Discard() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (s *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}
