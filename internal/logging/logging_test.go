package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output emitted while f runs by
// temporarily swapping the package's logger for one writing to a
// buffer at the given slog level, then restoring the original logger.
func captureLogOutput(level slog.Level, f func()) string {
	var buf bytes.Buffer
	old := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	f()
	defaultLogger = old
	return buf.String()
}

func TestInitLoggerSelectsLevelAndFormat(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{"debug json", LevelDebug, FormatJSON},
		{"info text", LevelInfo, FormatText},
		{"warn json", LevelWarn, FormatJSON},
		{"error text", LevelError, FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Fatal("expected InitLogger to install a non-nil logger")
			}
		})
	}
	InitLogger(LevelInfo, FormatJSON)
}

func TestDebugIsSuppressedBelowConfiguredLevel(t *testing.T) {
	out := captureLogOutput(slog.LevelWarn, func() {
		Debug("should not appear")
	})
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected debug line to be suppressed at warn level, got %q", out)
	}
}

func TestCompileFailureLogsStructuredFields(t *testing.T) {
	out := captureLogOutput(slog.LevelDebug, func() {
		CompileFailure("tpl.jam", 4, 2, "directive:if", "missing condition")
	})
	for _, want := range []string{"compile_error", "tpl.jam", "directive:if", "missing condition"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got %q", want, out)
		}
	}
}

func TestCacheEventLogsHitOrMiss(t *testing.T) {
	out := captureLogOutput(slog.LevelDebug, func() {
		CacheEvent("hit", "tpl.jam", "deadbeef")
	})
	for _, want := range []string{"compile_cache", "hit", "tpl.jam", "deadbeef"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got %q", want, out)
		}
	}
}

func TestWatchEventLogsClientCountAndExtraArgs(t *testing.T) {
	out := captureLogOutput(slog.LevelDebug, func() {
		WatchEvent("broadcast", "tpl.jam", 3, "reason", "content_changed")
	})
	for _, want := range []string{"watch_event", "broadcast", "tpl.jam", "reason", "content_changed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got %q", want, out)
		}
	}
}

func TestCompilationIDRoundTripsThroughContext(t *testing.T) {
	ctx := WithCompilationID(context.Background(), "abc-123")
	if got := CompilationID(ctx); got != "abc-123" {
		t.Fatalf("CompilationID = %q, want abc-123", got)
	}
	if got := CompilationID(context.Background()); got != "" {
		t.Fatalf("expected empty compilation id on a bare context, got %q", got)
	}
}

func TestLoggerFromContextAttachesCompilationID(t *testing.T) {
	ctx := WithCompilationID(context.Background(), "xyz-789")
	out := captureLogOutput(slog.LevelDebug, func() {
		InfoContext(ctx, "something happened")
	})
	if !strings.Contains(out, "xyz-789") {
		t.Fatalf("expected compilation_id to be attached to the log line, got %q", out)
	}
}

func TestPassLogsPhasePassAndDuration(t *testing.T) {
	out := captureLogOutput(slog.LevelDebug, func() {
		Pass("parse", 2, true, 150*time.Microsecond)
	})
	for _, want := range []string{"pipeline_pass", "parse", "\"changed\":true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got %q", want, out)
		}
	}
}
