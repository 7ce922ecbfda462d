package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"go.barcircle.dev/web/testingx"
)

func run(t *testing.T, backend *testingx.Backend, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("BARCIRCLE_BACKEND_URL", backend.URL)
	t.Setenv("BARCIRCLE_RETRY_MAX", "0")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestNavSharesOneProbe(t *testing.T) {
	backend := testingx.NewBackend(t)
	backend.Reply(http.MethodGet, "/auth/me", http.StatusUnauthorized, http.StatusUnauthorized, "unauthorized", nil)

	out, _, err := run(t, backend, "nav", "/user/profile", "/circle", "/nope", "/login")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"/user/profile -> /login?redirect=%2Fuser%2Fprofile (login)",
		"/circle -> Circle",
		"/nope -> not found",
		"/login -> Login",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if hits := backend.Hits(http.MethodGet, "/auth/me"); hits != 1 {
		t.Errorf("probe hits = %d, want 1", hits)
	}
}

func TestLogin(t *testing.T) {
	backend := testingx.NewBackend(t)
	backend.OK(http.MethodPost, "/auth/login", map[string]any{"user": map[string]any{"id": 1, "username": "alice", "role": "SELLER"}})

	out, _, err := run(t, backend, "login", "-u", "alice", "-p", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "OK: signed in as alice (SELLER)") {
		t.Errorf("output = %q", out)
	}
}

func TestLoginRequiresUsername(t *testing.T) {
	backend := testingx.NewBackend(t)
	if _, _, err := run(t, backend, "login"); err == nil {
		t.Error("expected an error without --username")
	}
}

func TestLoginRejected(t *testing.T) {
	backend := testingx.NewBackend(t)
	backend.Reply(http.MethodPost, "/auth/login", http.StatusOK, http.StatusBadRequest, "wrong password", nil)

	_, errOut, err := run(t, backend, "login", "-u", "alice", "-p", "bad")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errOut, "ERROR: wrong password") {
		t.Errorf("stderr = %q, want the notice", errOut)
	}
}

func TestWhoamiAnonymous(t *testing.T) {
	backend := testingx.NewBackend(t)
	backend.Reply(http.MethodGet, "/auth/me", http.StatusUnauthorized, http.StatusUnauthorized, "unauthorized", nil)

	out, _, err := run(t, backend, "whoami")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "INFO: not signed in") {
		t.Errorf("output = %q", out)
	}
}

func TestFeed(t *testing.T) {
	backend := testingx.NewBackend(t)
	backend.OK(http.MethodGet, "/recommend/posts", map[string]any{
		"records": []map[string]any{{"id": 1, "content": "cheers"}},
		"total":   1,
	})

	out, _, err := run(t, backend, "feed", "--size", "3")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "1 of 1 posts") || !strings.Contains(out, "cheers") {
		t.Errorf("output = %q", out)
	}
	if q := backend.LastRequest(http.MethodGet, "/recommend/posts").URL.Query(); q.Get("size") != "3" {
		t.Errorf("query = %v", q)
	}
}

func TestVersion(t *testing.T) {
	backend := testingx.NewBackend(t)
	out, _, err := run(t, backend, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "barcircle version") {
		t.Errorf("output = %q", out)
	}
}

func TestConfig(t *testing.T) {
	backend := testingx.NewBackend(t)

	out, _, err := run(t, backend, "config", "backend_url")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "BACKEND_URL="+backend.URL) {
		t.Errorf("output = %q", out)
	}

	if _, _, err := run(t, backend, "config", "NOT_A_KEY"); err == nil {
		t.Error("expected an error for an unset key")
	}
}
