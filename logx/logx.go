// Package logx provides a structured logging implementation based on slog.
//
// Overview:
//   - Responsibility: Unified logging with logfmt/JSON output, field sorting, and colorization
//   - Key Types: Logger implementation, Options for configuration
//   - Concurrency Model: All loggers are safe for concurrent use
//   - Error Semantics: No errors returned; encode failures become an ERROR line
//   - Performance Notes: Sorting happens per entry; payload truncation is optional
//
// Usage:
//
//	logger := logx.New(logx.WithFormat(logx.FormatLogfmt), logx.WithColor(true))
//	logger.Info("session loaded", log.Str("role", "USER"))
package logx

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/logx/internal"
)

// Format specifies the output format for logs.
type Format string

const (
	// FormatLogfmt outputs logs in logfmt format (key=value pairs).
	FormatLogfmt Format = "logfmt"
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = "json"
)

// DefaultSensitiveFields are masked unless WithSensitiveFields overrides them.
var DefaultSensitiveFields = []string{"password", "token", "authorization", "cookie"}

// Options configures the logger behavior.
type Options struct {
	Format          Format     // Output format: logfmt or json
	Level           slog.Level // Minimum log level
	Color           bool       // Enable colorization for level field only
	Writer          io.Writer  // Output writer (default: os.Stderr)
	PayloadMaxBytes int        // Maximum bytes to log for large payloads (0 = unlimited)
	SensitiveFields []string   // Field names to mask
	Timestamp       bool       // Prefix entries with an RFC3339 timestamp
}

// Logger implements the core/log.Logger interface.
type Logger struct {
	handler *internal.Handler
	attrs   []slog.Attr
}

// New creates a new Logger with the given options.
func New(opts ...Option) log.Logger {
	return newLogger(opts...)
}

func newLogger(opts ...Option) *Logger {
	options := Options{
		Format:          FormatLogfmt,
		Level:           slog.LevelInfo,
		Writer:          os.Stderr,
		SensitiveFields: DefaultSensitiveFields,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Writer == nil {
		options.Writer = os.Stderr
	}

	handler := internal.NewHandler(internal.Options{
		Format:          string(options.Format),
		Level:           options.Level,
		Color:           options.Color,
		PayloadMaxBytes: options.PayloadMaxBytes,
		SensitiveFields: options.SensitiveFields,
		Timestamp:       options.Timestamp,
	}, options.Writer)

	return &Logger{handler: handler}
}

// Option configures logger behavior.
type Option func(*Options)

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithColor enables colorization for the level field only.
func WithColor(enabled bool) Option {
	return func(o *Options) {
		o.Color = enabled
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.Writer = w
	}
}

// WithPayloadLimit sets the maximum bytes to log for large payloads.
func WithPayloadLimit(maxBytes int) Option {
	return func(o *Options) {
		o.PayloadMaxBytes = maxBytes
	}
}

// WithSensitiveFields replaces the masked field names.
func WithSensitiveFields(fields ...string) Option {
	return func(o *Options) {
		o.SensitiveFields = fields
	}
}

// WithTimestamp toggles the leading timestamp.
func WithTimestamp(enabled bool) Option {
	return func(o *Options) {
		o.Timestamp = enabled
	}
}

// ParseFormat parses "logfmt" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatLogfmt, FormatJSON:
		return f, nil
	case "":
		return FormatLogfmt, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// ParseLevel parses debug, info, warn or error, or a numeric slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return slog.Level(n), nil
}

// With returns a new Logger with the given key-value pairs attached.
func (l *Logger) With(kv ...any) log.Logger {
	attrs := internal.KVToAttrs(kv)
	newAttrs := append([]slog.Attr{}, l.attrs...)
	newAttrs = append(newAttrs, attrs...)

	return &Logger{
		handler: l.handler,
		attrs:   newAttrs,
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(slog.LevelDebug, msg, kv...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, kv ...any) {
	l.log(slog.LevelInfo, msg, kv...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(slog.LevelWarn, msg, kv...)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string, kv ...any) {
	attrs := internal.KVToAttrs(kv)
	if err != nil {
		attrs = append([]slog.Attr{slog.Any("error", err)}, attrs...)
	}
	l.logWithAttrs(slog.LevelError, msg, attrs)
}

func (l *Logger) log(level slog.Level, msg string, kv ...any) {
	l.logWithAttrs(level, msg, internal.KVToAttrs(kv))
}

func (l *Logger) logWithAttrs(level slog.Level, msg string, attrs []slog.Attr) {
	allAttrs := append([]slog.Attr{}, l.attrs...)
	allAttrs = append(allAttrs, attrs...)

	l.handler.LogRecord(level, msg, allAttrs)
}

// Slog exposes the logger as a *slog.Logger for libraries that take one.
// Loggers not created by this package are bridged through their Info/Warn/Error methods.
func Slog(base log.Logger) *slog.Logger {
	if l, ok := base.(*Logger); ok {
		return slog.New(l.handler.WithAttrs(l.attrs))
	}
	return slog.New(&bridge{base: base})
}

// StdLogger returns a *log.Logger writing at the given level, for http.Server.ErrorLog.
func StdLogger(base log.Logger, level slog.Level) *stdlog.Logger {
	return slog.NewLogLogger(Slog(base).Handler(), level)
}

// FromContext creates a logger with context-injected fields (request_id, page, user_id).
func FromContext(ctx context.Context, base log.Logger) log.Logger {
	var attrs []any

	if meta, ok := identity.MetaFrom(ctx); ok {
		if meta.RequestID != "" {
			attrs = append(attrs, "request_id", meta.RequestID)
		}
		if meta.Page != "" {
			attrs = append(attrs, "page", meta.Page)
		}
	}

	if user, ok := identity.UserFrom(ctx); ok && user.ID != 0 {
		attrs = append(attrs, "user_id", user.ID)
	}

	if len(attrs) > 0 {
		return base.With(attrs...)
	}
	return base
}

type bridge struct {
	base  log.Logger
	attrs []any
}

func (b *bridge) Enabled(context.Context, slog.Level) bool { return true }

func (b *bridge) Handle(_ context.Context, r slog.Record) error {
	kv := append([]any{}, b.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		kv = append(kv, a.Key, a.Value.Any())
		return true
	})
	switch {
	case r.Level >= slog.LevelError:
		b.base.Error(nil, r.Message, kv...)
	case r.Level >= slog.LevelWarn:
		b.base.Warn(r.Message, kv...)
	case r.Level >= slog.LevelInfo:
		b.base.Info(r.Message, kv...)
	default:
		b.base.Debug(r.Message, kv...)
	}
	return nil
}

func (b *bridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	kv := append([]any{}, b.attrs...)
	for _, a := range attrs {
		kv = append(kv, a.Key, a.Value.Any())
	}
	return &bridge{base: b.base, attrs: kv}
}

func (b *bridge) WithGroup(string) slog.Handler { return b }
