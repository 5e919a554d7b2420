package biglist

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with biglist-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithName adds a name field to the logger (useful for tagging a list or blob).
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogGrow logs a capacity change of a list's segmented store.
func (l *Logger) LogGrow(from, to int64, segments int, err error) {
	if err != nil {
		l.Error("grow failed",
			"capacity", from,
			"requested", to,
			"error", err,
		)
		return
	}
	l.Debug("grow completed",
		"capacity", from,
		"new_capacity", to,
		"segments", segments,
	)
}

// LogTrim logs released capacity.
func (l *Logger) LogTrim(from, to int64, segments int) {
	l.Debug("trim completed",
		"capacity", from,
		"new_capacity", to,
		"segments", segments,
	)
}

// LogCompaction logs a bulk removal pass.
func (l *Logger) LogCompaction(scanned, removed int64) {
	l.Debug("compaction completed",
		"scanned", scanned,
		"removed", removed,
	)
}

// LogSave logs a persistence save.
func (l *Logger) LogSave(ctx context.Context, name string, count, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"count", count,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "list saved",
		"name", name,
		"count", count,
		"bytes", bytes,
	)
}

// LogLoad logs a persistence load.
func (l *Logger) LogLoad(ctx context.Context, name string, count, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "list loaded",
		"name", name,
		"count", count,
		"bytes", bytes,
	)
}

// LogPublish logs a commit pointer update.
func (l *Logger) LogPublish(ctx context.Context, name, version string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"name", name,
			"version", version,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "version published",
		"name", name,
		"version", version,
	)
}
