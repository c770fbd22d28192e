// Package logging wraps log/slog behind a single process-wide logger,
// following the shape of a global logger obtained via a package-level
// accessor with With*-style helpers for attaching structured context.
package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	global *slog.Logger
)

// Get returns the process-wide logger, initialising it on first use to a
// text handler writing to stderr.
func Get() *slog.Logger {
	once.Do(func() {
		global = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	})
	return global
}

// SetDefault overrides the process-wide logger. Safe to call before or
// after the first Get().
func SetDefault(l *slog.Logger) {
	once.Do(func() {})
	global = l
}

// WithQuery attaches a query correlation id to the returned child logger.
func WithQuery(l *slog.Logger, queryID string) *slog.Logger {
	return l.With(slog.String("query_id", queryID))
}

// WithStage attaches the pipeline stage (parse/plan/physplan/exec) a log
// line originated from.
func WithStage(l *slog.Logger, stage string) *slog.Logger {
	return l.With(slog.String("stage", stage))
}

// WithOp attaches the physical operator name a log line originated from.
func WithOp(l *slog.Logger, op string) *slog.Logger {
	return l.With(slog.String("op", op))
}

type ctxKey struct{}

// IntoContext threads a logger through a context.Context, mirroring the
// pack's context-scoped logger helper pattern.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext recovers a logger stashed by IntoContext, falling back to the
// process-wide logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return Get()
}
