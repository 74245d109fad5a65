package rawmem

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with rawmem-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithBackend adds a backend field to the logger.
func (l *Logger) WithBackend(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("backend", name),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogGrow logs a capacity change caused by Grow.
func (l *Logger) LogGrow(ctx context.Context, oldCap, newCap int, err error) {
	if err != nil {
		l.WarnContext(ctx, "grow failed",
			"old_capacity", oldCap,
			"requested_capacity", newCap,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "grow completed",
			"old_capacity", oldCap,
			"new_capacity", newCap,
		)
	}
}

// LogShrink logs a Shrink.
func (l *Logger) LogShrink(ctx context.Context, removed, length int) {
	l.DebugContext(ctx, "shrink completed",
		"removed", removed,
		"length", length,
	)
}

// LogRemap logs a mapping resize.
func (l *Logger) LogRemap(ctx context.Context, oldBytes, newBytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remap failed",
			"old_bytes", oldBytes,
			"new_bytes", newBytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "remap completed",
			"old_bytes", oldBytes,
			"new_bytes", newBytes,
		)
	}
}

// LogRelease logs the release of a region's resources.
func (l *Logger) LogRelease(ctx context.Context, length int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "release failed",
			"length", length,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "released",
			"length", length,
		)
	}
}

// LogSync logs a write-back of dirty pages.
func (l *Logger) LogSync(ctx context.Context, pages, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sync failed",
			"pages", pages,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sync completed",
			"pages", pages,
			"bytes", bytes,
		)
	}
}
