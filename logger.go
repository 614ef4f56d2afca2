package gridcache

import (
	"log/slog"
	"os"

	"github.com/hupe1980/gridcache/bus"
)

// Logger wraps slog.Logger with gridcache-specific helpers so lifecycle
// and invalidation events log with consistent field names.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCache adds a cache name field to the logger.
func (l *Logger) WithCache(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("cache", name),
	}
}

// WithKind adds an event kind field to the logger.
func (l *Logger) WithKind(kind bus.Kind) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", kind.String()),
	}
}

// LogRegister logs a cache registering with the substrate.
func (l *Logger) LogRegister(name string, subscriptions int) {
	l.Debug("cache registered",
		"cache", name,
		"subscriptions", subscriptions,
	)
}

// LogPublishError logs a failed event publication.
func (l *Logger) LogPublishError(kind bus.Kind, err error) {
	l.Error("invalidation publish failed",
		"kind", kind.String(),
		"error", err,
	)
}

// LogSubscribeError logs a failed bus subscription.
func (l *Logger) LogSubscribeError(name string, kind bus.Kind, err error) {
	l.Error("bus subscribe failed",
		"cache", name,
		"kind", kind.String(),
		"error", err,
	)
}

// LogClearAll logs a bulk clear across all registered caches.
func (l *Logger) LogClearAll(handles int) {
	l.Info("all caches cleared",
		"handles", handles,
	)
}
