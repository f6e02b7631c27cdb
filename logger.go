package balltree

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with ball-tree specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithMetric adds the metric name to the logger.
func (l *Logger) WithMetric(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("metric", name),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogBuild logs a tree construction.
func (l *Logger) LogBuild(ctx context.Context, items, clusters int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"items", items,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"items", items,
			"clusters", clusters,
			"duration", duration,
		)
	}
}

// LogSearch logs a search. op names the query kind ("knn", "within", ...).
func (l *Logger) LogSearch(ctx context.Context, op string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"op", op,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"op", op,
			"results", results,
		)
	}
}

// LogSave logs a checkpoint write.
func (l *Logger) LogSave(ctx context.Context, target string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"target", target,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tree saved",
			"target", target,
		)
	}
}

// LogLoad logs a checkpoint read.
func (l *Logger) LogLoad(ctx context.Context, source string, items int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"source", source,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tree loaded",
			"source", source,
			"items", items,
		)
	}
}
