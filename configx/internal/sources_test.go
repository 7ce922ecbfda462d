package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvSource_Prefix(t *testing.T) {
	src := NewEnvSource(EnvOptions{Prefix: "BARCIRCLE_"})
	src.environ = func() []string {
		return []string{"BARCIRCLE_BACKEND_URL=http://api", "HOME=/root", "BARCIRCLE_=x", "BROKEN"}
	}

	got, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["BACKEND_URL"] != "http://api" {
		t.Errorf("BACKEND_URL = %q", got["BACKEND_URL"])
	}
	if _, ok := got["HOME"]; ok {
		t.Error("unprefixed keys must be filtered")
	}
	if len(got) != 1 {
		t.Errorf("expected 1 key, got %v", got)
	}
}

func TestDotenvSource(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	writeFile(t, first, "BARCIRCLE_LOG_LEVEL=info\nBARCIRCLE_RETRY_COUNT=3\n")
	writeFile(t, second, "BARCIRCLE_LOG_LEVEL=debug\n")

	src := NewDotenvSource("BARCIRCLE_", first, filepath.Join(dir, "missing.env"), second)
	got, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["LOG_LEVEL"] != "debug" {
		t.Errorf("later file should win, LOG_LEVEL = %q", got["LOG_LEVEL"])
	}
	if got["RETRY_COUNT"] != "3" {
		t.Errorf("RETRY_COUNT = %q", got["RETRY_COUNT"])
	}
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barcircle.yaml")
	writeFile(t, path, `
backend:
  url: http://localhost:8080
  timeout: 30s
retry:
  count: 3
  silent-paths:
    - /auth/me
    - /circle/feed
breaker:
  enabled: false
empty:
`)

	got, err := NewFileSource(path, FileOptions{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]string{
		"BACKEND_URL":        "http://localhost:8080",
		"BACKEND_TIMEOUT":    "30s",
		"RETRY_COUNT":        "3",
		"RETRY_SILENT_PATHS": "/auth/me,/circle/feed",
		"BREAKER_ENABLED":    "false",
		"EMPTY":              "",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestFileSource_Missing(t *testing.T) {
	got, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml"), FileOptions{}).Load(context.Background())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty snapshot, got %v", got)
	}
}

func TestFileSource_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "backend: [unclosed")

	if _, err := NewFileSource(path, FileOptions{}).Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileSource_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barcircle.yaml")
	writeFile(t, path, "log:\n  level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewFileSource(path, FileOptions{Watch: true, Interval: 10 * time.Millisecond})
	updates, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	later := time.Now().Add(2 * time.Second)
	writeFile(t, path, "log:\n  level: debug\n")
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	select {
	case snap := <-updates:
		if snap["LOG_LEVEL"] != "debug" {
			t.Errorf("LOG_LEVEL = %q, want debug", snap["LOG_LEVEL"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
	}
}

func TestIdleWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := NewEnvSource(EnvOptions{}).Watch(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("env watch should never publish")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
