package testingx

import (
	"context"
	"sync"
	"testing"

	"go.barcircle.dev/web/core/notice"
)

// NoticeRecorder is a notice.Notifier that keeps everything it receives.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []notice.Notice
}

// NewNoticeRecorder creates an empty recorder.
func NewNoticeRecorder() *NoticeRecorder {
	return &NoticeRecorder{}
}

// Notify implements notice.Notifier.
func (r *NoticeRecorder) Notify(_ context.Context, n notice.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *NoticeRecorder) Notices() []notice.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notice.Notice(nil), r.notices...)
}

// Count returns the number of recorded notices.
func (r *NoticeRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

// AssertNone fails if anything was recorded.
func (r *NoticeRecorder) AssertNone(t testing.TB) {
	t.Helper()
	if got := r.Notices(); len(got) != 0 {
		t.Errorf("expected no notices, got %v", got)
	}
}

// AssertOnly fails unless exactly one notice with kind and message was recorded.
func (r *NoticeRecorder) AssertOnly(t testing.TB, kind notice.Kind, message string) {
	t.Helper()
	got := r.Notices()
	if len(got) != 1 {
		t.Fatalf("expected exactly one notice, got %d: %v", len(got), got)
	}
	if got[0].Kind != kind || got[0].Message != message {
		t.Errorf("notice = {%s %q}, want {%s %q}", got[0].Kind, got[0].Message, kind, message)
	}
}
