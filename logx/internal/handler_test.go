package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHandler_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		level    slog.Level
		minLevel slog.Level
		want     bool
	}{
		{"debug below info", slog.LevelDebug, slog.LevelInfo, false},
		{"info at info", slog.LevelInfo, slog.LevelInfo, true},
		{"warn above info", slog.LevelWarn, slog.LevelInfo, true},
		{"debug at debug", slog.LevelDebug, slog.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(Options{Level: tt.minLevel}, &bytes.Buffer{})
			if got := handler.Enabled(context.Background(), tt.level); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestHandler_Handle(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewHandler(Options{Format: "logfmt", Level: slog.LevelInfo}, buf)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "probe settled", 0)
	record.AddAttrs(slog.String("path", "/auth/me"))

	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `msg="probe settled"`) {
		t.Errorf("missing message: %q", output)
	}
	if !strings.Contains(output, `path="/auth/me"`) {
		t.Errorf("missing attr: %q", output)
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewHandler(Options{Format: "logfmt"}, buf)

	child := handler.WithAttrs([]slog.Attr{slog.String("component", "gateway")}).(*Handler)
	if child == handler {
		t.Fatal("WithAttrs should return a new handler")
	}
	grouped := child.WithGroup("http").(*Handler)
	grouped.LogRecord(slog.LevelInfo, "sent", []slog.Attr{slog.Int("status", 200)})

	output := buf.String()
	if !strings.Contains(output, `http.component="gateway"`) {
		t.Errorf("missing grouped attr: %q", output)
	}
	if !strings.Contains(output, "http.status=200") {
		t.Errorf("missing grouped status: %q", output)
	}
	if len(handler.attrs) != 0 {
		t.Error("parent handler must not be mutated")
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewHandler(Options{Format: "logfmt", Level: slog.LevelWarn}, buf)

	handler.LogRecord(slog.LevelDebug, "debug message", nil)
	handler.LogRecord(slog.LevelInfo, "info message", nil)
	handler.LogRecord(slog.LevelWarn, "warn message", nil)
	handler.LogRecord(slog.LevelError, "error message", nil)

	output := buf.String()
	for _, dropped := range []string{"debug message", "info message"} {
		if strings.Contains(output, dropped) {
			t.Errorf("%q should be filtered out", dropped)
		}
	}
	for _, kept := range []string{"warn message", "error message"} {
		if !strings.Contains(output, kept) {
			t.Errorf("%q should be included", kept)
		}
	}
}

func TestFormatLogfmt(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewHandler(Options{Format: "logfmt"}, buf)

	handler.LogRecord(slog.LevelInfo, "retry scheduled", []slog.Attr{
		slog.Int("attempt", 2),
		slog.Duration("delay", 2*time.Second),
		slog.Bool("silent", true),
	})

	output := buf.String()
	for _, want := range []string{"level=INFO", `msg="retry scheduled"`, "attempt=2", "delay=2000", "silent=true"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %q", want, output)
		}
	}
	if strings.Contains(output, "time=") {
		t.Errorf("timestamp should be off by default: %q", output)
	}
}

func TestFormatLogfmt_WithTimestamp(t *testing.T) {
	buf := &bytes.Buffer{}
	NewHandler(Options{Format: "logfmt", Timestamp: true}, buf).LogRecord(slog.LevelInfo, "x", nil)

	if !strings.HasPrefix(buf.String(), "time=") {
		t.Errorf("expected leading timestamp, got %q", buf.String())
	}
}

func TestFormatLogfmt_WithColor(t *testing.T) {
	buf := &bytes.Buffer{}
	NewHandler(Options{Format: "logfmt", Color: true}, buf).LogRecord(slog.LevelInfo, "x", nil)

	if !strings.Contains(buf.String(), "\033[36mINFO\033[0m") {
		t.Errorf("expected colored level, got %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewHandler(Options{Format: "json", SensitiveFields: []string{"password"}}, buf)

	handler.LogRecord(slog.LevelWarn, "login failed", []slog.Attr{
		slog.String("username", "mia"),
		slog.String("password", "hunter2"),
		slog.Any("error", errors.New("bad credentials")),
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "WARN" || entry["msg"] != "login failed" {
		t.Errorf("unexpected header fields: %v", entry)
	}
	if entry["password"] != redacted {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
	if entry["error"] != "bad credentials" {
		t.Errorf("error = %v", entry["error"])
	}
}

func TestSortAttrs(t *testing.T) {
	attrs := []slog.Attr{
		slog.String("zebra", "value"),
		slog.String("apple", "value"),
		slog.String("banana", "value"),
	}

	sorted := SortAttrs(attrs)

	want := []string{"apple", "banana", "zebra"}
	for i, key := range want {
		if sorted[i].Key != key {
			t.Errorf("sorted[%d] = %q, want %q", i, sorted[i].Key, key)
		}
	}
	if attrs[0].Key != "zebra" {
		t.Error("SortAttrs must not reorder its input")
	}
}

func TestKVToAttrs(t *testing.T) {
	tests := []struct {
		name string
		kv   []any
		want int
	}{
		{"simple pairs", []any{"key1", "value1", "key2", "value2"}, 2},
		{"nested slice pairs", []any{[]any{"key1", "value1"}}, 1},
		{"mixed pairs", []any{"key1", "value1", []any{"key2", "value2"}}, 2},
		{"odd length", []any{"key1", "value1", "key2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(KVToAttrs(tt.kv)); got != tt.want {
				t.Errorf("KVToAttrs() len = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	opts := Options{SensitiveFields: []string{"token"}, PayloadMaxBytes: 4}

	tests := []struct {
		name  string
		key   string
		value slog.Value
		want  string
	}{
		{"string", "k", slog.StringValue("abc"), `"abc"`},
		{"truncated", "k", slog.StringValue("abcdefgh"), `"abcd...(truncated)"`},
		{"int", "k", slog.Int64Value(42), "42"},
		{"uint", "k", slog.Uint64Value(7), "7"},
		{"float", "k", slog.Float64Value(3.5), "3.5"},
		{"duration ms", "k", slog.DurationValue(1500 * time.Millisecond), "1500"},
		{"sensitive", "Token", slog.StringValue("abc"), `"***REDACTED***"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.key, tt.value, opts); got != tt.want {
				t.Errorf("FormatValue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := map[slog.Level]string{
		slog.LevelDebug:     "DEBUG",
		slog.LevelInfo:      "INFO",
		slog.LevelWarn:      "WARN",
		slog.LevelError:     "ERROR",
		slog.LevelError + 4: "ERROR",
	}
	for level, want := range tests {
		if got := LevelString(level); got != want {
			t.Errorf("LevelString(%v) = %q, want %q", level, got, want)
		}
	}
}

func TestHandler_ConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewHandler(Options{Format: "logfmt"}, buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.WithAttrs(nil).(*Handler).LogRecord(slog.LevelInfo, "line", nil)
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 20 {
		t.Errorf("expected 20 lines, got %d", got)
	}
}
