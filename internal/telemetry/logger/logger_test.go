package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"text format", Config{Level: "debug", Format: "text"}, false},
		{"console format", Config{Level: "info", Format: "console"}, false},
		{"unknown format", Config{Format: "xml"}, true},
		{"unknown level", Config{Level: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() > 0 {
		t.Error("Debug/Info messages should be filtered when level is warn")
	}

	l.Warn("warn message")
	if buf.Len() == 0 {
		t.Error("Warn message should be logged")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "error", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("info message")
	if buf.Len() > 0 {
		t.Error("Info should be filtered at error level")
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	l.Info("info message after level change")
	if buf.Len() == 0 {
		t.Error("Info should be logged after level changed to debug")
	}
	if level := GetLevel(); level != "debug" {
		t.Errorf("GetLevel() = %q, want %q", level, "debug")
	}

	if err := SetLevel("nonsense"); err == nil {
		t.Error("SetLevel should reject unknown levels")
	}
	if level := GetLevel(); level != "debug" {
		t.Errorf("failed SetLevel changed level to %q", level)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogger_RequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithRequestID(context.Background(), "01HZX0REQ")
	l.With("component", "http").InfoContext(ctx, "handled")

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "01HZX0REQ" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["component"] != "http" {
		t.Errorf("component = %v", entry["component"])
	}

	buf.Reset()
	l.InfoContext(context.Background(), "no id")
	entry = decodeLine(t, &buf)
	if _, ok := entry["request_id"]; ok {
		t.Error("request_id should be absent without a context value")
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("config loaded",
		"backup_passphrase", "hunter2hunter2",
		"empty_secret", "",
		slog.Group("backup", slog.String("passphrase", "nested")),
		"dir", "/var/lib/rollcall")

	out := buf.String()
	if strings.Contains(out, "hunter2hunter2") || strings.Contains(out, "nested") {
		t.Errorf("secret leaked into log: %s", out)
	}

	entry := decodeLine(t, &buf)
	if entry["backup_passphrase"] != redactedValue {
		t.Errorf("backup_passphrase = %v", entry["backup_passphrase"])
	}
	if entry["empty_secret"] != "" {
		t.Errorf("empty values should pass through, got %v", entry["empty_secret"])
	}
	if entry["dir"] != "/var/lib/rollcall" {
		t.Errorf("dir = %v", entry["dir"])
	}
}
