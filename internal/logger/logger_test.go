package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewWithWriterJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithField("category", "image/neko/").Info("image uploaded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry["message"] != "image uploaded" {
		t.Errorf("expected message key, got %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected level info, got %v", entry["level"])
	}
	if entry["category"] != "image/neko/" {
		t.Errorf("expected category field, got %v", entry["category"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp key in output")
	}
}

func TestWarnLevelRenamed(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("keyword table empty")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["level"] != "warning" {
		t.Errorf("expected level warning, got %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}

	log.Error("should pass")
	if buf.Len() == 0 {
		t.Error("expected output at error level")
	}
}

func TestNewWithBetterstackWithoutToken(t *testing.T) {
	log := NewWithBetterstack("info", "")
	if log == nil {
		t.Fatal("NewWithBetterstack returned nil")
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var a, b bytes.Buffer
	ha := slog.NewJSONHandler(&a, nil)
	hb := slog.NewJSONHandler(&b, nil)

	log := slog.New(NewMultiHandler(ha, hb))
	log.Info("fan out")

	if a.Len() == 0 || b.Len() == 0 {
		t.Error("expected both handlers to receive the record")
	}
}

func TestMultiHandlerSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(nil, slog.NewJSONHandler(&buf, nil))

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected handler to be enabled")
	}
}
