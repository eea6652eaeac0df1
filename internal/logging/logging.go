// Package logging wraps log/slog with trace correlation, attaching the
// active span's trace and span IDs to every log line.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the minimal correlation-aware logging surface used throughout
// the Brain service.
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...any)
	Info(ctx context.Context, msg string, attrs ...any)
	Warn(ctx context.Context, msg string, attrs ...any)
	Error(ctx context.Context, msg string, attrs ...any)
	With(attrs ...any) Logger
}

type correlatedLogger struct {
	base *slog.Logger
}

// New builds a Logger at the given level ("DEBUG", "INFO", "WARN", "ERROR"),
// writing structured text to stdout.
func New(level string) Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN", "WARNING":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return &correlatedLogger{base: slog.New(handler)}
}

func withTraceAttrs(ctx context.Context, attrs []any) []any {
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return attrs
	}
	return append(attrs,
		slog.String("trace_id", span.TraceID().String()),
		slog.String("span_id", span.SpanID().String()),
	)
}

func (l *correlatedLogger) Debug(ctx context.Context, msg string, attrs ...any) {
	l.base.DebugContext(ctx, msg, withTraceAttrs(ctx, attrs)...)
}

func (l *correlatedLogger) Info(ctx context.Context, msg string, attrs ...any) {
	l.base.InfoContext(ctx, msg, withTraceAttrs(ctx, attrs)...)
}

func (l *correlatedLogger) Warn(ctx context.Context, msg string, attrs ...any) {
	l.base.WarnContext(ctx, msg, withTraceAttrs(ctx, attrs)...)
}

func (l *correlatedLogger) Error(ctx context.Context, msg string, attrs ...any) {
	l.base.ErrorContext(ctx, msg, withTraceAttrs(ctx, attrs)...)
}

func (l *correlatedLogger) With(attrs ...any) Logger {
	return &correlatedLogger{base: l.base.With(attrs...)}
}
