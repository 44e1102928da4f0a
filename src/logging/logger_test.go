package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	logger.Info("request handled", FieldStatusCode, 200)

	out := buf.String()
	if !strings.Contains(out, "component=http") {
		t.Errorf("output %q missing component", out)
	}
	if !strings.Contains(out, "status_code=200") {
		t.Errorf("output %q missing status code", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentStorage, JSON: true, Output: &buf})

	logger.Error("query failed", FieldError, "timeout")
	if !strings.Contains(buf.String(), `"component":"storage"`) {
		t.Errorf("json output %q missing component", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	child := base.WithComponent(ComponentCache)
	if child.Component() != ComponentCache {
		t.Errorf("Component() = %q, want %q", child.Component(), ComponentCache)
	}
	child.Info("evicted")
	if !strings.Contains(buf.String(), "component=cache") {
		t.Errorf("output %q missing child component", buf.String())
	}
}
