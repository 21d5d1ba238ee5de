package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	return out
}

func TestSetupLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(&buf, "WARN")

	Debug("quiet")
	Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("below-level output was written: %s", buf.String())
	}

	Warn("loud")
	out := decodeLine(t, &buf)
	if out["msg"] != "loud" {
		t.Errorf("Expected msg 'loud', got %v", out["msg"])
	}
}

func TestLastSetupWins(t *testing.T) {
	var first, second bytes.Buffer
	SetupWithWriter(&first, "INFO")
	SetupWithWriter(&second, "INFO")

	Info("hello")
	if first.Len() != 0 {
		t.Fatalf("replaced logger still received output: %s", first.String())
	}
	if second.Len() == 0 {
		t.Fatal("current logger received nothing")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(&buf, "DEBUG")

	WithComponent("test-comp").Info("hello")

	out := decodeLine(t, &buf)
	if out["component"] != "test-comp" {
		t.Errorf("Expected component 'test-comp', got %v", out["component"])
	}
	if out["msg"] != "hello" {
		t.Errorf("Expected msg 'hello', got %v", out["msg"])
	}
}

func TestWithListener(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(&buf, "DEBUG")

	WithListener("my-listener").Info("listener msg")

	out := decodeLine(t, &buf)
	if out["listener"] != "my-listener" {
		t.Errorf("Expected listener 'my-listener', got %v", out["listener"])
	}
}

func TestWithWorker(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(&buf, "DEBUG")

	WithWorker("worker-123").Info("worker msg")

	out := decodeLine(t, &buf)
	if out["worker_id"] != "worker-123" {
		t.Errorf("Expected worker_id 'worker-123', got %v", out["worker_id"])
	}
}
