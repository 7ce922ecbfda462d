// Package testingx provides test doubles shared by the barcircle packages.
//
// Overview:
//   - Responsibility: Mock logger, notice recorder, fake envelope backend, sleep recorder
//   - Key Types: MockLogger, NoticeRecorder, Backend, RecordingSleeper
//   - Concurrency Model: Every double is safe for concurrent use
//   - Error Semantics: Assertion helpers report through testing.T
//   - Performance Notes: Backend runs on httptest loopback listeners
//
// Usage:
//
//	backend := testingx.NewBackend(t)
//	backend.OK(http.MethodGet, "/auth/me", user)
//	notices := testingx.NewNoticeRecorder()
package testingx

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/log"
)

// MockLogger records entries in memory.
type MockLogger struct {
	t      testing.TB
	fields []any
	sink   *logSink
}

type logSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry represents a single log entry.
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
	Error   error
}

// Field returns the value logged under key, or nil.
func (e LogEntry) Field(key string) any {
	for i := 0; i+1 < len(e.Fields); i += 2 {
		if k, ok := e.Fields[i].(string); ok && k == key {
			return e.Fields[i+1]
		}
	}
	return nil
}

// NewMockLogger creates a new mock logger.
func NewMockLogger(t testing.TB) *MockLogger {
	return &MockLogger{t: t, sink: &logSink{}}
}

// With returns a logger sharing the same entries with kv prepended to every entry.
func (m *MockLogger) With(kv ...any) log.Logger {
	return &MockLogger{
		t:      m.t,
		fields: append(append([]any{}, m.fields...), flatten(kv)...),
		sink:   m.sink,
	}
}

// Debug logs a debug message.
func (m *MockLogger) Debug(msg string, kv ...any) { m.log("DEBUG", msg, nil, kv) }

// Info logs an info message.
func (m *MockLogger) Info(msg string, kv ...any) { m.log("INFO", msg, nil, kv) }

// Warn logs a warning message.
func (m *MockLogger) Warn(msg string, kv ...any) { m.log("WARN", msg, nil, kv) }

// Error logs an error message.
func (m *MockLogger) Error(err error, msg string, kv ...any) { m.log("ERROR", msg, err, kv) }

func (m *MockLogger) log(level, msg string, err error, kv []any) {
	fields := append(append([]any{}, m.fields...), flatten(kv)...)
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.entries = append(m.sink.entries, LogEntry{Level: level, Message: msg, Fields: fields, Error: err})
}

// flatten expands pairs built by the core/log helpers.
func flatten(kv []any) []any {
	out := make([]any, 0, len(kv))
	for _, item := range kv {
		if pair, ok := item.([]any); ok && len(pair) == 2 {
			out = append(out, pair...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// Entries returns all log entries.
func (m *MockLogger) Entries() []LogEntry {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	return append([]LogEntry(nil), m.sink.entries...)
}

// Find returns the first entry with the given level and message.
func (m *MockLogger) Find(level, msg string) (LogEntry, bool) {
	for _, entry := range m.Entries() {
		if entry.Level == level && entry.Message == msg {
			return entry, true
		}
	}
	return LogEntry{}, false
}

// AssertLogged asserts that a message was logged.
func (m *MockLogger) AssertLogged(level, msg string) {
	m.t.Helper()
	if _, ok := m.Find(level, msg); !ok {
		m.t.Errorf("expected log message not found: level=%s msg=%q\n%s", level, msg, m.dump())
	}
}

// AssertNotLogged asserts that no entry with level and msg exists.
func (m *MockLogger) AssertNotLogged(level, msg string) {
	m.t.Helper()
	if _, ok := m.Find(level, msg); ok {
		m.t.Errorf("unexpected log message: level=%s msg=%q", level, msg)
	}
}

func (m *MockLogger) dump() string {
	var b strings.Builder
	for _, e := range m.Entries() {
		fmt.Fprintf(&b, "  %s %q %v\n", e.Level, e.Message, e.Fields)
	}
	return b.String()
}

// Clear clears all log entries.
func (m *MockLogger) Clear() {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.entries = nil
}

// NewContextWithUser creates a context carrying user.
func NewContextWithUser(t testing.TB, user *identity.User) context.Context {
	t.Helper()
	return identity.WithUser(context.Background(), user)
}

// NewContextWithMeta creates a context with request metadata for testing.
func NewContextWithMeta(t testing.TB, meta *identity.RequestMeta) context.Context {
	t.Helper()
	ctx := context.Background()
	if meta != nil {
		ctx = identity.WithMeta(ctx, meta)
	}
	return ctx
}

// AssertError asserts that an error has the expected code.
func AssertError(t testing.TB, err error, expectedCode errors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", expectedCode)
	}
	if code := errors.CodeOf(err); code != expectedCode {
		t.Errorf("expected error code %s, got %s (%v)", expectedCode, code, err)
	}
}

// AssertNoError asserts that no error occurred.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}
