// Package internal provides the record encoder behind logx.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures the encoder.
type Options struct {
	Format          string // "logfmt" or "json"
	Level           slog.Level
	Color           bool
	PayloadMaxBytes int
	SensitiveFields []string
	Timestamp       bool
}

// Handler writes records as logfmt or JSON lines with keys sorted.
// Handlers derived through WithAttrs share the writer lock.
type Handler struct {
	opts   Options
	mu     *sync.Mutex
	writer io.Writer
	attrs  []slog.Attr
	group  string
}

// NewHandler creates a Handler writing to w.
func NewHandler(opts Options, w io.Writer) *Handler {
	return &Handler{opts: opts, mu: &sync.Mutex{}, writer: w}
}

// LogRecord encodes and writes one entry.
func (h *Handler) LogRecord(level slog.Level, msg string, attrs []slog.Attr) {
	if level < h.opts.Level {
		return
	}

	all := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	all = append(all, h.attrs...)
	all = append(all, attrs...)
	all = SortAttrs(all)

	var line string
	if h.opts.Format == "json" {
		line = h.encodeJSON(level, msg, all)
	} else {
		line = h.encodeLogfmt(level, msg, all)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	io.WriteString(h.writer, line)
}

func (h *Handler) encodeLogfmt(level slog.Level, msg string, attrs []slog.Attr) string {
	var buf strings.Builder

	if h.opts.Timestamp {
		buf.WriteString("time=")
		buf.WriteString(time.Now().Format(time.RFC3339))
		buf.WriteByte(' ')
	}

	lvl := LevelString(level)
	buf.WriteString("level=")
	if h.opts.Color {
		buf.WriteString(ColorizeLevel(lvl))
	} else {
		buf.WriteString(lvl)
	}

	buf.WriteString(" msg=")
	buf.WriteString(strconv.Quote(msg))

	for _, attr := range attrs {
		buf.WriteByte(' ')
		buf.WriteString(h.key(attr.Key))
		buf.WriteByte('=')
		buf.WriteString(FormatValue(attr.Key, attr.Value, h.opts))
	}

	buf.WriteByte('\n')
	return buf.String()
}

func (h *Handler) encodeJSON(level slog.Level, msg string, attrs []slog.Attr) string {
	// encoding/json sorts map keys.
	entry := make(map[string]any, len(attrs)+3)
	if h.opts.Timestamp {
		entry["time"] = time.Now().Format(time.RFC3339)
	}
	entry["level"] = LevelString(level)
	entry["msg"] = msg

	for _, attr := range attrs {
		key := h.key(attr.Key)
		if isSensitive(attr.Key, h.opts.SensitiveFields) {
			entry[key] = redacted
			continue
		}
		entry[key] = jsonValue(attr.Value, h.opts.PayloadMaxBytes)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","msg":%q}`+"\n", "log encode failed: "+err.Error())
	}
	return string(data) + "\n"
}

func (h *Handler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	h.LogRecord(r.Level, r.Message, attrs)
	return nil
}

// WithAttrs returns a Handler with attrs attached to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a Handler that prefixes keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}
	clone.group = name
	return &clone
}

// KVToAttrs converts loose key-value pairs to attributes.
// Pairs built by core/log helpers ([]any{k, v}) are flattened first.
func KVToAttrs(kv []any) []slog.Attr {
	flat := make([]any, 0, len(kv))
	for _, item := range kv {
		if pair, ok := item.([]any); ok && len(pair) == 2 {
			flat = append(flat, pair[0], pair[1])
			continue
		}
		flat = append(flat, item)
	}

	attrs := make([]slog.Attr, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		attrs = append(attrs, slog.Any(fmt.Sprint(flat[i]), flat[i+1]))
	}
	return attrs
}

// SortAttrs returns a copy of attrs sorted by key.
func SortAttrs(attrs []slog.Attr) []slog.Attr {
	sorted := make([]slog.Attr, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	return sorted
}

const redacted = "***REDACTED***"

func isSensitive(key string, fields []string) bool {
	for _, f := range fields {
		if strings.EqualFold(key, f) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max] + "...(truncated)"
	}
	return s
}

// FormatValue renders v for logfmt output.
func FormatValue(key string, v slog.Value, opts Options) string {
	if isSensitive(key, opts.SensitiveFields) {
		return strconv.Quote(redacted)
	}

	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return strconv.Quote(truncate(v.String(), opts.PayloadMaxBytes))
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return strconv.FormatInt(v.Duration().Milliseconds(), 10)
	case slog.KindTime:
		return strconv.Quote(v.Time().Format(time.RFC3339))
	default:
		if err, ok := v.Any().(error); ok {
			return strconv.Quote(truncate(err.Error(), opts.PayloadMaxBytes))
		}
		return strconv.Quote(truncate(fmt.Sprint(v.Any()), opts.PayloadMaxBytes))
	}
}

func jsonValue(v slog.Value, max int) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return truncate(v.String(), max)
	case slog.KindDuration:
		return v.Duration().Milliseconds()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return truncate(err.Error(), max)
		}
		if s, ok := v.Any().(fmt.Stringer); ok {
			return truncate(s.String(), max)
		}
		return v.Any()
	default:
		return v.Any()
	}
}

// LevelString returns the string representation of a log level.
func LevelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ColorizeLevel adds ANSI color codes to the level value only.
func ColorizeLevel(level string) string {
	const (
		reset   = "\033[0m"
		red     = "\033[31m"
		yellow  = "\033[33m"
		cyan    = "\033[36m"
		magenta = "\033[35m"
	)

	switch level {
	case "DEBUG":
		return magenta + level + reset
	case "INFO":
		return cyan + level + reset
	case "WARN":
		return yellow + level + reset
	case "ERROR":
		return red + level + reset
	default:
		return level
	}
}
