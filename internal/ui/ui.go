// Package ui formats command-line output for the barcircle CLI.
//
// Overview:
//   - Responsibility: Level-prefixed messages, JSON output mode, notice rendering
//   - Key Types: Console, Message
//   - Concurrency Model: Console methods are safe for concurrent use
//   - Error Semantics: Encoding failures are reported on the error stream
//   - Performance Notes: One write per message
//
// Usage:
//
//	c := ui.New(os.Stdout, os.Stderr)
//	c.Success("signed in as %s", name)
//	gw, _ := clientx.New(url, clientx.WithNotifier(c))
package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.barcircle.dev/web/core/notice"
)

// OutputLevel represents the severity level of a message.
type OutputLevel string

const (
	LevelDebug   OutputLevel = "debug"
	LevelInfo    OutputLevel = "info"
	LevelWarning OutputLevel = "warning"
	LevelError   OutputLevel = "error"
	LevelSuccess OutputLevel = "success"
)

// Message is one line of output in JSON mode.
type Message struct {
	Level     OutputLevel `json:"level"`
	Text      string      `json:"text"`
	Data      any         `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Console writes messages to an output and an error stream.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	err     io.Writer
	verbose bool
	json    bool
}

// New creates a Console. Errors go to errOut, everything else to out.
func New(out, errOut io.Writer) *Console {
	return &Console{out: out, err: errOut}
}

// SetVerbose enables debug messages.
func (c *Console) SetVerbose(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbose = enabled
}

// SetJSON switches to one JSON object per message.
func (c *Console) SetJSON(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.json = enabled
}

func (c *Console) output(level OutputLevel, data any, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if level == LevelDebug && !c.verbose {
		return
	}
	text := fmt.Sprintf(format, args...)

	if c.json {
		msg := Message{Level: level, Text: text, Data: data, Timestamp: time.Now()}
		if err := sonic.ConfigStd.NewEncoder(c.out).Encode(msg); err != nil {
			fmt.Fprintf(c.err, "failed to encode output: %v\n", err)
		}
		return
	}

	w := c.out
	if level == LevelError {
		w = c.err
	}
	var prefix string
	switch level {
	case LevelDebug:
		prefix = "DEBUG:"
	case LevelInfo:
		prefix = "INFO:"
	case LevelWarning:
		prefix = "WARN:"
	case LevelError:
		prefix = "ERROR:"
	case LevelSuccess:
		prefix = "OK:"
	}
	fmt.Fprintf(w, "%s %s\n", prefix, text)

	if data != nil {
		enc := sonic.ConfigStd.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintf(c.err, "failed to encode output: %v\n", err)
		}
	}
}

// Debug outputs a message shown only in verbose mode.
func (c *Console) Debug(format string, args ...any) { c.output(LevelDebug, nil, format, args...) }

// Info outputs an informational message.
func (c *Console) Info(format string, args ...any) { c.output(LevelInfo, nil, format, args...) }

// Warning outputs a warning.
func (c *Console) Warning(format string, args ...any) { c.output(LevelWarning, nil, format, args...) }

// Error outputs an error on the error stream.
func (c *Console) Error(format string, args ...any) { c.output(LevelError, nil, format, args...) }

// Success outputs a success message.
func (c *Console) Success(format string, args ...any) { c.output(LevelSuccess, nil, format, args...) }

// Result outputs an informational message followed by data, indented in text mode.
func (c *Console) Result(data any, format string, args ...any) {
	c.output(LevelInfo, data, format, args...)
}

// Notify renders a notice at the matching level. Console satisfies notice.Notifier.
func (c *Console) Notify(_ context.Context, n notice.Notice) {
	switch n.Kind {
	case notice.KindError:
		c.Error("%s", n.Message)
	case notice.KindWarning:
		c.Warning("%s", n.Message)
	case notice.KindSuccess:
		c.Success("%s", n.Message)
	default:
		c.Info("%s", n.Message)
	}
}
