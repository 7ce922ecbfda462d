package testingx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	bcerrors "go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/core/notice"
)

func TestMockLogger_WithSharesEntries(t *testing.T) {
	logger := NewMockLogger(t)
	child := logger.With("component", "guard")

	child.Info("decided", log.Str("path", "/messages"))
	logger.Error(errors.New("x"), "failed")

	entries := logger.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Field("component") != "guard" || entries[0].Field("path") != "/messages" {
		t.Errorf("child fields missing: %v", entries[0].Fields)
	}
	if entries[1].Field("component") != nil {
		t.Error("parent must not inherit child fields")
	}
	logger.AssertLogged("ERROR", "failed")
	logger.AssertNotLogged("WARN", "failed")

	logger.Clear()
	if len(logger.Entries()) != 0 {
		t.Error("Clear should drop entries")
	}
}

func TestNoticeRecorder(t *testing.T) {
	rec := NewNoticeRecorder()
	rec.AssertNone(t)

	rec.Notify(context.Background(), notice.Error("boom"))
	rec.AssertOnly(t, notice.KindError, "boom")
	if rec.Count() != 1 {
		t.Errorf("Count() = %d", rec.Count())
	}
}

func TestRecordingSleeper(t *testing.T) {
	var s RecordingSleeper
	_ = s.Sleep(context.Background(), time.Second)
	_ = s.Sleep(context.Background(), 2*time.Second)

	if s.Total() != 3*time.Second {
		t.Errorf("Total() = %v", s.Total())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v", err)
	}
}

func TestBackend(t *testing.T) {
	b := NewBackend(t)
	b.OK(http.MethodGet, "/auth/me", map[string]any{"id": 7})

	resp, err := http.Get(b.URL + "/api/auth/me")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env struct {
		Code int            `json:"code"`
		Data map[string]int `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Code != 200 || env.Data["id"] != 7 {
		t.Errorf("unexpected envelope %+v", env)
	}
	if b.Hits(http.MethodGet, "/auth/me") != 1 {
		t.Errorf("Hits() = %d", b.Hits(http.MethodGet, "/auth/me"))
	}

	missing, err := http.Get(b.URL + "/api/nope")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("unregistered route status = %d", missing.StatusCode)
	}
}

func TestRefusedURL(t *testing.T) {
	client := &http.Client{Timeout: 2 * time.Second}
	if _, err := client.Get(RefusedURL(t)); err == nil {
		t.Error("expected connection failure")
	}
}

func TestAssertError(t *testing.T) {
	AssertError(t, bcerrors.New(bcerrors.CodeApplication, "boom"), bcerrors.CodeApplication)
	AssertNoError(t, nil)
}
