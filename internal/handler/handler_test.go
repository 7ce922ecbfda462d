package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/httpx"
	"go.barcircle.dev/web/internal/client"
	"go.barcircle.dev/web/internal/flash"
	"go.barcircle.dev/web/internal/guard"
	"go.barcircle.dev/web/internal/routes"
	"go.barcircle.dev/web/internal/session"
	"go.barcircle.dev/web/testingx"
)

type fixture struct {
	backend *testingx.Backend
	store   *session.Store
	queue   *flash.Queue
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := testingx.NewBackend(t)
	store := session.New(session.Options{})
	queue := flash.NewQueue(0)

	gw, err := clientx.New(backend.URL, clientx.WithNotifier(queue), clientx.WithAuthState(store))
	if err != nil {
		t.Fatal(err)
	}
	api := client.New(gw)
	table := routes.MustDefault()
	g := guard.New(store, table, api.Auth.Me, guard.WithNotifier(queue))

	return &fixture{
		backend: backend,
		store:   store,
		queue:   queue,
		handler: New(api, g, table, queue, nil).Routes(nil),
	}
}

func (f *fixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) anonymous() {
	f.backend.Reply(http.MethodGet, "/auth/me", http.StatusUnauthorized, http.StatusUnauthorized, "unauthorized", nil)
}

func (f *fixture) signIn(t *testing.T, role identity.Role) {
	t.Helper()
	f.backend.OK(http.MethodPost, "/auth/login", map[string]any{
		"user": map[string]any{"id": 7, "username": "alice", "role": string(role)},
	})
	rec := f.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var v View
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func TestPublicPageAnonymous(t *testing.T) {
	f := newFixture(t)
	f.anonymous()

	rec := f.do(http.MethodGet, "/beverages/12", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	v := decodeView(t, rec)
	if v.Route != routes.BeverageDetail || v.Params["id"] != "12" {
		t.Errorf("view = %+v", v)
	}
	if !v.Session.Initialized || v.Session.User != nil {
		t.Errorf("session = %+v", v.Session)
	}
	if len(v.Notices) != 0 {
		t.Errorf("notices = %v, want none", v.Notices)
	}
	if rec.Header().Get(httpx.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	f.do(http.MethodGet, "/circle", nil)
	if hits := f.backend.Hits(http.MethodGet, "/auth/me"); hits != 1 {
		t.Errorf("probe hits = %d, want 1", hits)
	}
}

func TestProtectedPageRedirectsToLogin(t *testing.T) {
	f := newFixture(t)
	f.anonymous()

	rec := f.do(http.MethodGet, "/user/profile", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?redirect=%2Fuser%2Fprofile" {
		t.Errorf("Location = %q", loc)
	}
}

func TestLoginThenProtectedPage(t *testing.T) {
	f := newFixture(t)
	f.backend.OK(http.MethodPost, "/auth/login", map[string]any{"id": 7, "username": "alice", "role": "USER"})

	rec := f.do(http.MethodPost, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw"},
		"redirect": {"/user/profile"},
	})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/user/profile" {
		t.Fatalf("login = %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = f.do(http.MethodGet, "/user/profile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	v := decodeView(t, rec)
	if v.Route != routes.UserProfile || v.Session.User == nil || v.Session.User.Username != "alice" {
		t.Errorf("view = %+v", v)
	}
	if f.backend.Hits(http.MethodGet, "/auth/me") != 0 {
		t.Error("login response carried the user; no probe expected")
	}
}

func TestLoginRedirectIsSanitized(t *testing.T) {
	f := newFixture(t)
	f.backend.OK(http.MethodPost, "/auth/login", map[string]any{"id": 7, "username": "alice"})

	rec := f.do(http.MethodPost, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw"},
		"redirect": {"//evil.example"},
	})
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestLoginFailures(t *testing.T) {
	t.Run("missing password", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/login", url.Values{"username": {"alice"}})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if f.backend.Hits(http.MethodPost, "/auth/login") != 0 {
			t.Error("invalid form must not reach the backend")
		}
	})

	t.Run("rejected by backend", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Reply(http.MethodPost, "/auth/login", http.StatusOK, http.StatusBadRequest, "wrong password", nil)

		rec := f.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"x"}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}

		rec = f.do(http.MethodGet, NoticesPath, nil)
		var body struct {
			Notices []notice.Notice `json:"notices"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if len(body.Notices) != 1 || body.Notices[0].Message != "wrong password" {
			t.Errorf("notices = %+v", body.Notices)
		}
		if f.queue.Len() != 0 {
			t.Error("notices endpoint should drain the queue")
		}
	})
}

func TestRoleMismatchRedirectsHome(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, identity.RoleUser)

	rec := f.do(http.MethodGet, "/seller", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = f.do(http.MethodGet, "/", nil)
	v := decodeView(t, rec)
	if len(v.Notices) != 1 || v.Notices[0].Kind != notice.KindWarning {
		t.Errorf("notices = %+v", v.Notices)
	}
	if v.Session.User == nil {
		t.Error("role mismatch must keep the identity")
	}
}

func TestNav(t *testing.T) {
	f := newFixture(t)
	f.anonymous()

	rec := f.do(http.MethodGet, NavPath+"?path="+url.QueryEscape("/admin/moderation"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var d guard.Decision
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if d.Action != guard.ActionRedirect || d.Reason != guard.ReasonLogin {
		t.Errorf("decision = %+v", d)
	}

	if rec := f.do(http.MethodGet, NavPath, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d, want 400", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, identity.RoleAdmin)
	f.backend.OK(http.MethodPost, "/auth/logout", nil)

	rec := f.do(http.MethodPost, LogoutPath, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	snap := f.store.Snapshot()
	if snap.User != nil || !snap.Initialized {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestUnknownPath(t *testing.T) {
	f := newFixture(t)
	f.anonymous()

	rec := f.do(http.MethodGet, "/no/such/page", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if v := decodeView(t, rec); v.Route != "not_found" {
		t.Errorf("route = %q", v.Route)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodDelete, "/circle", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
