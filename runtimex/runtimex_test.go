package runtimex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.barcircle.dev/web/testingx"
)

type mockService struct {
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
}

func (m *mockService) Start(ctx context.Context) error {
	m.started.Store(true)
	return m.startErr
}

func (m *mockService) Stop(ctx context.Context) error {
	m.stopped.Store(true)
	return nil
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestStart_MissingLogger(t *testing.T) {
	_, err := Start(context.Background(), nil, Options{HTTP: &Endpoint{Addr: "127.0.0.1:0"}})
	if err == nil {
		t.Fatal("expected error for missing logger")
	}
}

func TestStart_ServesEndpoints(t *testing.T) {
	t.Cleanup(ClearHealthCheckers)
	logger := testingx.NewMockLogger(t)
	svc := &mockService{}

	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "app")
	})

	rt, err := Start(context.Background(), []Service{svc}, Options{
		Logger:          logger,
		HTTP:            &Endpoint{Addr: "127.0.0.1:0", Handler: app},
		Health:          &Endpoint{Addr: "127.0.0.1:0"},
		Metrics:         &Endpoint{Addr: "127.0.0.1:0"},
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !svc.started.Load() {
		t.Error("service should have been started")
	}

	if status, body := get(t, "http://"+rt.Addr("http")+"/"); status != http.StatusOK || body != "app" {
		t.Errorf("app server = %d %q", status, body)
	}
	if status, _ := get(t, "http://"+rt.Addr("health")+"/healthz"); status != http.StatusOK {
		t.Errorf("health server status = %d", status)
	}
	if status, _ := get(t, "http://"+rt.Addr("metrics")+"/metrics"); status != http.StatusOK {
		t.Errorf("metrics server status = %d", status)
	}

	if err := rt.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !svc.stopped.Load() {
		t.Error("service should have been stopped")
	}
	logger.AssertLogged("INFO", "runtime stopped")
}

func TestStart_ServiceFailure(t *testing.T) {
	svc := &mockService{startErr: errors.New("boom")}

	_, err := Start(context.Background(), []Service{svc}, Options{
		Logger: testingx.NewMockLogger(t),
		HTTP:   &Endpoint{Addr: "127.0.0.1:0"},
	})
	if err == nil {
		t.Fatal("expected service start failure")
	}
}

func TestStart_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	_, err = Start(context.Background(), nil, Options{
		Logger: testingx.NewMockLogger(t),
		Health: &Endpoint{Addr: "127.0.0.1:0"},
		HTTP:   &Endpoint{Addr: ln.Addr().String()},
	})
	if err == nil {
		t.Fatal("expected bind failure for an address in use")
	}
}

func TestRun_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &mockService{}

	errChan := make(chan error, 1)
	go func() {
		errChan <- Run(ctx, []Service{svc}, Options{
			Logger:          testingx.NewMockLogger(t),
			HTTP:            &Endpoint{Addr: "127.0.0.1:0"},
			ShutdownTimeout: time.Second,
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
	if !svc.stopped.Load() {
		t.Error("service should have been stopped")
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checkErr   error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, "ok"},
		{"unhealthy", errors.New("backend unreachable"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ClearHealthCheckers()
			t.Cleanup(ClearHealthCheckers)
			RegisterHealthChecker(NewHealthChecker("backend", func(ctx context.Context) error {
				return tt.checkErr
			}))

			rec := httptest.NewRecorder()
			HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Status string        `json:"status"`
				Checks []CheckResult `json:"checks"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantBody)
			}
			if len(body.Checks) != 1 || body.Checks[0].Name != "backend" {
				t.Errorf("checks = %+v", body.Checks)
			}
		})
	}
}
