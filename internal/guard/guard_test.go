package guard

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/internal/routes"
	"go.barcircle.dev/web/internal/session"
	"go.barcircle.dev/web/testingx"
)

var (
	userBob   = &identity.User{ID: 2, Username: "bob", Role: identity.RoleUser}
	adminAnna = &identity.User{ID: 1, Username: "anna", Role: identity.RoleAdmin}
)

type fixture struct {
	guard   *Guard
	store   *session.Store
	notices *testingx.NoticeRecorder
	probes  *atomic.Int32
}

func newFixture(t *testing.T, fetch session.FetchFunc) *fixture {
	t.Helper()
	probes := &atomic.Int32{}
	store := session.New(session.Options{MaxWait: 5 * time.Second})
	notices := testingx.NewNoticeRecorder()
	counted := func(ctx context.Context) (*identity.User, error) {
		probes.Add(1)
		return fetch(ctx)
	}
	g := New(store, routes.MustDefault(), counted,
		WithNotifier(notices),
		WithLogger(testingx.NewMockLogger(t)),
	)
	return &fixture{guard: g, store: store, notices: notices, probes: probes}
}

func probeReturns(u *identity.User, err error) session.FetchFunc {
	return func(context.Context) (*identity.User, error) { return u, err }
}

var unauthorized = errors.Build(errors.CodeHTTPStatus).WithStatus(401).Err()

func TestEvaluate_Admission(t *testing.T) {
	tests := []struct {
		name       string
		user       *identity.User
		probeErr   error
		target     string
		wantAction Action
		wantTarget string
		wantReason string
	}{
		{"public without identity", nil, unauthorized, "/beverages", ActionAdmit, "/beverages", ""},
		{"protected without identity", nil, unauthorized, "/messages?tab=unread", ActionRedirect, "/login?redirect=%2Fmessages%3Ftab%3Dunread", ReasonLogin},
		{"login page without identity", nil, unauthorized, "/login?redirect=/messages", ActionAdmit, "/login?redirect=/messages", ""},
		{"protected with identity", userBob, nil, "/user/profile", ActionAdmit, "/user/profile", ""},
		{"admin route with user", userBob, nil, "/admin/moderation", ActionRedirect, "/", ReasonRole},
		{"admin route with admin", adminAnna, nil, "/admin/moderation", ActionAdmit, "/admin/moderation", ""},
		{"seller route with admin", adminAnna, nil, "/seller", ActionRedirect, "/", ReasonRole},
		{"unknown path", userBob, nil, "/nowhere", ActionNotFound, "/nowhere", ""},
		{"relative path", userBob, nil, "circle", ActionAdmit, "/circle", ""},
		{"network failure, protected", nil, errors.Wrap(errors.CodeConnection, "GET /auth/me", stderrors.New("refused")), "/messages", ActionRedirect, "/login?redirect=%2Fmessages", ReasonLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, probeReturns(tt.user, tt.probeErr))

			d, err := f.guard.Evaluate(context.Background(), tt.target)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if d.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", d.Action, tt.wantAction)
			}
			if d.Target != tt.wantTarget {
				t.Errorf("Target = %q, want %q", d.Target, tt.wantTarget)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
			if !d.Session.Initialized {
				t.Error("session should be resolved after evaluation")
			}
			if f.probes.Load() != 1 {
				t.Errorf("probes = %d, want 1", f.probes.Load())
			}
		})
	}
}

func TestEvaluate_RoleDeniedKeepsIdentityAndWarns(t *testing.T) {
	f := newFixture(t, probeReturns(userBob, nil))

	d, err := f.guard.Evaluate(context.Background(), "/admin/moderation")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Action != ActionRedirect || d.Target != "/" {
		t.Errorf("decision = %+v, want redirect to /", d)
	}
	f.notices.AssertOnly(t, notice.KindWarning, DefaultDeniedMessage)
	if snap := f.store.Snapshot(); snap.User == nil || snap.User.ID != userBob.ID {
		t.Errorf("identity must be kept, got %+v", snap.User)
	}
}

func TestEvaluate_SingleProbeUnderConcurrency(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, func(context.Context) (*identity.User, error) {
		<-release
		return userBob, nil
	})

	targets := []string{"/", "/messages", "/user/profile", "/circle", "/admin/moderation", "/activities/create"}
	var wg sync.WaitGroup
	decisions := make([]Decision, len(targets))
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			decisions[i], _ = f.guard.Evaluate(context.Background(), target)
		}(i, target)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := f.probes.Load(); got != 1 {
		t.Fatalf("probes = %d, want exactly 1", got)
	}
	for i, d := range decisions {
		want := ActionAdmit
		if targets[i] == "/admin/moderation" {
			want = ActionRedirect
		}
		if d.Action != want {
			t.Errorf("%s: Action = %q, want %q", targets[i], d.Action, want)
		}
	}
}

func TestEvaluate_IdempotentOnResolvedSession(t *testing.T) {
	f := newFixture(t, probeReturns(userBob, nil))
	ctx := context.Background()

	first, _ := f.guard.Evaluate(ctx, "/messages")
	second, _ := f.guard.Evaluate(ctx, "/messages")

	if first.Action != second.Action || first.Target != second.Target {
		t.Errorf("decisions differ: %+v vs %+v", first, second)
	}
	if f.probes.Load() != 1 {
		t.Errorf("probes = %d, want 1", f.probes.Load())
	}
}

func TestEvaluate_NetworkFailureKeepsCachedIdentity(t *testing.T) {
	f := newFixture(t, probeReturns(nil, errors.Wrap(errors.CodeConnection, "GET /auth/me", stderrors.New("refused"))))
	f.store.SetUser(userBob)

	if _, err := f.guard.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() should surface the probe error")
	}

	d, _ := f.guard.Evaluate(context.Background(), "/messages")
	if d.Action != ActionAdmit {
		t.Errorf("Action = %q, want admit with the cached identity", d.Action)
	}
}

func TestEvaluate_CancelledDuringBootstrap(t *testing.T) {
	f := newFixture(t, func(ctx context.Context) (*identity.User, error) {
		<-ctx.Done()
		return nil, errors.Wrap(errors.CodeConnection, "GET /auth/me", ctx.Err())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.guard.Evaluate(ctx, "/messages"); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Evaluate() error = %v, want deadline exceeded", err)
	}
}

func TestRefresh_ForcesProbe(t *testing.T) {
	f := newFixture(t, probeReturns(adminAnna, nil))
	ctx := context.Background()

	f.guard.Evaluate(ctx, "/")
	snap, err := f.guard.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if f.probes.Load() != 2 {
		t.Errorf("probes = %d, want 2", f.probes.Load())
	}
	if snap.Role != identity.RoleAdmin {
		t.Errorf("Role = %q, want ADMIN", snap.Role)
	}
}

func TestEvaluate_ProbeThroughGateway(t *testing.T) {
	backend := testingx.NewBackend(t)
	backend.Reply(http.MethodGet, clientx.ProbePath, http.StatusUnauthorized, http.StatusUnauthorized, "not logged in", nil)

	store := session.New(session.Options{})
	notices := testingx.NewNoticeRecorder()
	gw, err := clientx.New(backend.URL, clientx.WithAuthState(store), clientx.WithNotifier(notices))
	if err != nil {
		t.Fatal(err)
	}
	probe := func(ctx context.Context) (*identity.User, error) {
		u, err := clientx.Do[identity.User](ctx, gw, clientx.Get(clientx.ProbePath, nil))
		if err != nil {
			return nil, err
		}
		return &u, nil
	}
	g := New(store, routes.MustDefault(), probe, WithNotifier(notices))

	d, err := g.Evaluate(context.Background(), "/user/profile")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if d.Action != ActionRedirect || d.Target != "/login?redirect=%2Fuser%2Fprofile" {
		t.Errorf("decision = %+v", d)
	}
	if !d.Session.Initialized || d.Session.Authenticated() {
		t.Errorf("session = %+v, want resolved and anonymous", d.Session)
	}
	notices.AssertNone(t)
	if backend.Hits(http.MethodGet, clientx.ProbePath) != 1 {
		t.Errorf("probe hits = %d, want 1", backend.Hits(http.MethodGet, clientx.ProbePath))
	}
}

func TestMiddleware(t *testing.T) {
	f := newFixture(t, probeReturns(userBob, nil))

	var seen *identity.User
	var decision Decision
	handler := f.guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = identity.UserFrom(r.Context())
		decision, _ = DecisionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bars/3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != userBob.ID {
		t.Errorf("user in context = %+v", seen)
	}
	if decision.Route == nil || decision.Route.Name != routes.BarDetail || decision.Params["id"] != "3" {
		t.Errorf("decision = %+v", decision)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/moderation", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Errorf("admin route: status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}
}
