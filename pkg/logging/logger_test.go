package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" info ", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"invalid", InfoLevel}, // Default
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("row dropped", RelType("HAS_SYMPTOM"), Line(4))
	logger.Error("load failed", Error(errors.New("boom")))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[0].Message != "row dropped" {
		t.Errorf("Unexpected first entry %+v", entries[0])
	}
	if entries[0].Fields["rel_type"] != "HAS_SYMPTOM" || entries[0].Fields["line"] != float64(4) {
		t.Errorf("Unexpected fields %v", entries[0].Fields)
	}
	if entries[1].Fields["error"] != "boom" {
		t.Errorf("Expected error field, got %v", entries[1].Fields)
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(RunID("run-1"), Component("loader"))

	child.Info("started", Label("Disease"))
	parent.Info("plain")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Fields["run_id"] != "run-1" || entries[0].Fields["component"] != "loader" || entries[0].Fields["label"] != "Disease" {
		t.Errorf("Child fields missing: %v", entries[0].Fields)
	}
	if entries[1].Fields != nil {
		t.Errorf("Parent must not inherit child fields, got %v", entries[1].Fields)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	timer := StartTimer(logger, "phase complete", Phase("nodes"))
	time.Sleep(time.Millisecond)
	if d := timer.End(Count(3)); d <= 0 {
		t.Errorf("Expected positive duration, got %v", d)
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].Fields
	if fields["phase"] != "nodes" || fields["count"] != float64(3) || fields["latency"] == nil {
		t.Errorf("Unexpected fields %v", fields)
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	if _, ok := logger.With(Count(1)).(NopLogger); !ok {
		t.Error("NopLogger.With should return a NopLogger")
	}
}
