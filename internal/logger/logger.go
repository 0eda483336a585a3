// Package logger provides structured logging built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level is the minimum severity a record needs to be emitted.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// LoggerInterface is the logging contract used across modules.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// Logger wraps slog.Logger with a service-scoped attribute set.
type Logger struct {
	sl *slog.Logger
}

// ReplaceAttrFn rewrites attributes before they are emitted.
type ReplaceAttrFn func(groups []string, a slog.Attr) slog.Attr

// New creates a Logger writing text records to w at the given level.
// The service name is attached to every record.
func New(w io.Writer, level Level, service string, replace ReplaceAttrFn) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if replace != nil {
		opts.ReplaceAttr = replace
	}

	h := slog.NewTextHandler(w, opts)
	sl := slog.New(h)
	if service != "" {
		sl = sl.With("service", service)
	}

	return &Logger{sl: sl}
}

// NewJSON creates a Logger emitting JSON records, for log collectors.
func NewJSON(w io.Writer, level Level, service string, replace ReplaceAttrFn) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if replace != nil {
		opts.ReplaceAttr = replace
	}

	h := slog.NewJSONHandler(w, opts)
	sl := slog.New(h)
	if service != "" {
		sl = sl.With("service", service)
	}

	return &Logger{sl: sl}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.sl.DebugContext(ctx, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.sl.InfoContext(ctx, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.sl.WarnContext(ctx, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.sl.ErrorContext(ctx, msg, args...)
}

// With returns a Logger that includes the given attributes on every record.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{sl: l.sl.With(args...)}
}
