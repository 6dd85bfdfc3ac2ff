// Package logging provides structured logging for the pipeline,
// built on Go's log/slog the way the teacher's internal/logging
// package wraps slog for its own services.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// CompilationIDKey is the context key for a compilation's UUID,
	// attached so every log line emitted while driving one document
	// through the pipeline can be correlated.
	CompilationIDKey ContextKey = "compilation_id"
)

var defaultLogger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatJSON)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// InitLogger (re)initializes the global logger with the given level
// and format. Called from this package's init with info/JSON, again
// by cmd/jamplate when --verbose is set, and by tests.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithCompilationID attaches a compilation UUID to ctx.
func WithCompilationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CompilationIDKey, id)
}

// CompilationID retrieves the compilation UUID from ctx, if any.
func CompilationID(ctx context.Context) string {
	if id, ok := ctx.Value(CompilationIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if id := CompilationID(ctx); id != "" {
		logger = logger.With("compilation_id", id)
	}
	return logger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// Pass logs one fixed-point pass of the parse/analyze phases: which
// phase, which pass number, whether it changed anything, and how
// long it took.
func Pass(phase string, pass int, changed bool, elapsed time.Duration) {
	defaultLogger.Debug("pipeline_pass",
		"phase", phase,
		"pass", pass,
		"changed", changed,
		"duration_us", elapsed.Microseconds(),
	)
}

// CompileFailure logs a CompileError at warn level with the
// offending source, matching spec.md §7's "every error carries the
// offending tree" requirement surfaced as a structured log line in
// addition to the returned error value.
func CompileFailure(document string, position, length int, kind, message string) {
	defaultLogger.Warn("compile_error",
		"document", document,
		"position", position,
		"length", length,
		"kind", kind,
		"message", message,
	)
}

// ExecFailure logs an ExecutionException at error level.
func ExecFailure(document string, position, length int, kind, message string) {
	defaultLogger.Error("execution_error",
		"document", document,
		"position", position,
		"length", length,
		"kind", kind,
		"message", message,
	)
}

// CacheEvent logs a compile-cache hit or miss.
func CacheEvent(event, document, hash string) {
	defaultLogger.Debug("compile_cache",
		"event", event,
		"document", document,
		"hash", hash,
	)
}

// WatchEvent logs a file-watch recompile/broadcast cycle.
func WatchEvent(event, document string, clientCount int, args ...any) {
	allArgs := []any{
		"event", event,
		"document", document,
		"client_count", clientCount,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("watch_event", allArgs...)
}
