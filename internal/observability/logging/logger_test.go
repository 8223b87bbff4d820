package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLogger_DefaultLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	logger := NewLogger()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info level enabled by default")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level disabled by default")
	}
}

func TestNewLogger_DebugLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := NewLogger()
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level enabled when LOG_LEVEL=debug")
	}
}

func TestNewTextLogger(t *testing.T) {
	logger := NewTextLogger()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithItem(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	itemLogger := WithItem(base, "https://n.news.naver.com/mnews/article/001/0001", "001", "0001", "fetch", "success")
	itemLogger.Info("fetched")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	for _, field := range []string{"url", "oid", "aid", "stage", "outcome"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("expected field %q in log entry, got %v", field, entry)
		}
	}
}

func TestWithErrorKind(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	errLogger := WithErrorKind(base, "network-transient")
	errLogger.Warn("fetch failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry["error_kind"] != "network-transient" {
		t.Errorf("expected error_kind=network-transient, got %v", entry["error_kind"])
	}
}

func TestWithLoggerAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), custom)
	got := FromContext(ctx)

	got.Info("hello")
	if buf.Len() == 0 {
		t.Error("expected the context-stored logger to be used")
	}
}

func TestFromContext_NoLoggerFallsBackToDefault(t *testing.T) {
	got := FromContext(context.Background())
	if got != slog.Default() {
		t.Error("expected slog.Default() when no logger is stored in context")
	}
}
