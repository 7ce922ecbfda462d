// Package log defines the logging contract used across the barcircle front-end core.
//
// Overview:
//   - Responsibility: Stable structured logging interface plus key-value helpers
//   - Key Types: Logger interface, Nop implementation
//   - Concurrency Model: Logger implementations must be safe for concurrent use
//   - Error Semantics: Error takes the error as its first parameter
//   - Performance Notes: Helpers allocate one small slice per pair
//
// Usage:
//
//	logger.Info("request settled", log.Str("path", "/auth/me"), log.Int("attempts", 1))
package log

import "time"

// Logger defines a structured logging interface compatible with slog concepts.
// Implementations must be safe for concurrent use.
type Logger interface {
	// With returns a Logger that attaches kv to every entry.
	With(kv ...any) Logger

	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)

	// Error logs err under the "error" key followed by kv.
	Error(err error, msg string, kv ...any)
}

// Str creates a string key-value pair.
func Str(k, v string) any {
	return []any{k, v}
}

// Int creates an integer key-value pair.
func Int(k string, v int) any {
	return []any{k, v}
}

// Dur creates a duration key-value pair.
func Dur(k string, v time.Duration) any {
	return []any{k, v}
}

// Bool creates a boolean key-value pair.
func Bool(k string, v bool) any {
	return []any{k, v}
}

// Any creates a key-value pair with an arbitrary value.
func Any(k string, v any) any {
	return []any{k, v}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}

type nop struct{}

func (n nop) With(kv ...any) Logger                  { return n }
func (n nop) Debug(msg string, kv ...any)            {}
func (n nop) Info(msg string, kv ...any)             {}
func (n nop) Warn(msg string, kv ...any)             {}
func (n nop) Error(err error, msg string, kv ...any) {}
