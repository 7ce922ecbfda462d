package log

import (
	"errors"
	"testing"
	"time"
)

func TestHelpers(t *testing.T) {
	tests := []struct {
		name string
		kv   any
		key  string
		val  any
	}{
		{"Str", Str("path", "/auth/me"), "path", "/auth/me"},
		{"Int", Int("attempt", 2), "attempt", 2},
		{"Dur", Dur("delay", time.Second), "delay", time.Second},
		{"Bool", Bool("silent", true), "silent", true},
		{"Any", Any("role", "ADMIN"), "role", "ADMIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slice, ok := tt.kv.([]any)
			if !ok {
				t.Fatalf("%s should return []any", tt.name)
			}
			if len(slice) != 2 {
				t.Fatalf("expected 2 elements, got %d", len(slice))
			}
			if slice[0] != tt.key || slice[1] != tt.val {
				t.Fatalf("got %v, want [%v %v]", slice, tt.key, tt.val)
			}
		})
	}
}

// recordingLogger is a test implementation of the Logger interface
type recordingLogger struct {
	messages []string
}

func (m *recordingLogger) With(kv ...any) Logger { return m }
func (m *recordingLogger) Debug(msg string, kv ...any) {
	m.messages = append(m.messages, msg)
}
func (m *recordingLogger) Info(msg string, kv ...any) {
	m.messages = append(m.messages, msg)
}
func (m *recordingLogger) Warn(msg string, kv ...any) {
	m.messages = append(m.messages, msg)
}
func (m *recordingLogger) Error(err error, msg string, kv ...any) {
	m.messages = append(m.messages, msg)
}

func TestLoggerInterface(t *testing.T) {
	var logger Logger = &recordingLogger{}

	logger.Debug("debug message", Str("key", "value"))
	logger.Info("info message", Int("count", 1))
	logger.Warn("warn message", Dur("latency", time.Second))
	logger.Error(errors.New("x"), "error message")

	got := logger.(*recordingLogger).messages
	want := []string{"debug message", "info message", "warn message", "error message"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d messages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected message %q, got %q", want[i], got[i])
		}
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.With("k", "v").Info("ignored")
	logger.Error(errors.New("x"), "ignored")
}
