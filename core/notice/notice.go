// Package notice models user-visible notifications emitted by the gateway and the guard.
//
// Overview:
//   - Responsibility: Notification value type, delivery interface, placeholder filtering
//   - Key Types: Notice, Kind, Notifier
//   - Concurrency Model: Notifier implementations must be safe for concurrent use
//   - Error Semantics: Delivery never fails from the caller's point of view
//   - Performance Notes: Clean scans the message once
//
// Usage:
//
//	notifier.Notify(ctx, notice.Error("network error, please retry later"))
package notice

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Kind classifies notice presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notice is one user-visible message.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Error creates an error notice.
func Error(msg string) Notice {
	return Notice{Kind: KindError, Message: msg}
}

// Warning creates a warning notice.
func Warning(msg string) Notice {
	return Notice{Kind: KindWarning, Message: msg}
}

// Success creates a success notice.
func Success(msg string) Notice {
	return Notice{Kind: KindSuccess, Message: msg}
}

// Notifier delivers notices to whatever surface shows them.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

// Discard returns a Notifier that drops every notice.
func Discard() Notifier {
	return NotifierFunc(func(context.Context, Notice) {})
}

// Clean trims msg and reports whether it is fit for display.
// Empty messages and messages that went through a broken encoding
// (runs of '?', U+FFFD, invalid UTF-8) are rejected.
func Clean(msg string) (string, bool) {
	msg = strings.TrimSpace(msg)
	if msg == "" || !utf8.ValidString(msg) {
		return "", false
	}
	if strings.ContainsRune(msg, utf8.RuneError) || strings.Contains(msg, "??") {
		return "", false
	}
	return msg, true
}

// Pick returns the first displayable message among candidates, then fallback.
func Pick(fallback string, candidates ...string) string {
	for _, c := range candidates {
		if clean, ok := Clean(c); ok {
			return clean
		}
	}
	return fallback
}
