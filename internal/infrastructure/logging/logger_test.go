package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not a JSON entry: %v (%q)", err, buf.String())
	}
	return entry
}

func TestNew_Outputs(t *testing.T) {
	for _, output := range []string{"", "stdout", "STDERR"} {
		l, err := New(config.LoggingConfig{Output: output}, "1.0.0")
		if err != nil {
			t.Fatalf("New(output=%q) error = %v", output, err)
		}
		if err := l.Close(); err != nil {
			t.Errorf("Close() on %q output error = %v", output, err)
		}
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	l, err := New(config.LoggingConfig{Level: "debug", Output: path}, "1.2.3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Debug("sampler tick", "resource", "gda/system/perf")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"sampler tick"`) {
		t.Errorf("log file = %q, want the debug entry", raw)
	}
}

func TestNew_FileOutputUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "gateway.log")

	if _, err := New(config.LoggingConfig{Output: path}, "1.0.0"); err == nil {
		t.Error("New() with a missing directory returned nil error")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := levelFromString(tt.in); got != tt.want {
			t.Errorf("levelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_DefaultFields(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter(&buf, config.LoggingConfig{Level: "info"}, "test")
	l.Info("sensor message received", "resource", "cda/sensor")

	entry := decodeEntry(t, &buf)
	want := map[string]any{
		"service":  ServiceName,
		"version":  "test",
		"msg":      "sensor message received",
		"resource": "cda/sensor",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %v", k, entry[k], v)
		}
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter(&buf, config.LoggingConfig{Level: "warn", Format: "text"}, "test")
	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "service="+ServiceName) {
		t.Errorf("text output = %q", out)
	}
}

func TestNewWithWriter_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter(&buf, config.LoggingConfig{}, "test")
	l.Info("connector configured",
		"smtp_password", "hunter2",
		"Token", "influx-token",
		"client_secret", "s3cr3t",
		"username", "gateway",
	)

	entry := decodeEntry(t, &buf)
	for _, k := range []string{"smtp_password", "Token", "client_secret"} {
		if entry[k] != redacted {
			t.Errorf("entry[%q] = %v, want %q", k, entry[k], redacted)
		}
	}
	if entry["username"] != "gateway" {
		t.Errorf("entry[username] = %v, want unredacted", entry["username"])
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer

	parent := NewWithWriter(&buf, config.LoggingConfig{}, "test")
	child := parent.With("component", "mqtt_client")
	if child == parent {
		t.Fatal("With() returned the parent")
	}

	child.Info("connected")
	entry := decodeEntry(t, &buf)
	if entry["component"] != "mqtt_client" || entry["service"] != ServiceName {
		t.Errorf("child entry = %v", entry)
	}
	if err := child.Close(); err != nil {
		t.Errorf("child Close() error = %v", err)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() = nil")
	}
}
