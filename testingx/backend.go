package testingx

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Backend is a fake API server speaking the {code,message,data} envelope under /api.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	last     map[string]*http.Request
}

// NewBackend starts a Backend closed automatically when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
		last:     make(map[string]*http.Request),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api"
	path := r.URL.Path
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		WriteEnvelope(w, http.StatusNotFound, http.StatusNotFound, "not under /api", nil)
		return
	}
	key := routeKey(r.Method, path[len(prefix):])

	b.mu.Lock()
	h, ok := b.handlers[key]
	b.hits[key]++
	b.last[key] = r.Clone(r.Context())
	b.mu.Unlock()

	if !ok {
		WriteEnvelope(w, http.StatusNotFound, http.StatusNotFound, "no route "+key, nil)
		return
	}
	h(w, r)
}

// Handle registers h for method and path (relative to /api).
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[routeKey(method, path)] = h
}

// Reply registers a fixed envelope response.
func (b *Backend) Reply(method, path string, status, code int, message string, data any) {
	b.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteEnvelope(w, status, code, message, data)
	})
}

// OK registers a successful envelope carrying data.
func (b *Backend) OK(method, path string, data any) {
	b.Reply(method, path, http.StatusOK, http.StatusOK, "success", data)
}

// Hits returns how many requests reached method and path.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[routeKey(method, path)]
}

// LastRequest returns the most recent request for method and path, or nil.
func (b *Backend) LastRequest(method, path string) *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last[routeKey(method, path)]
}

// WriteEnvelope writes {code,message,data} with the given transport status.
func WriteEnvelope(w http.ResponseWriter, status, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

// RefusedURL returns a loopback URL on which nothing listens.
func RefusedURL(t testing.TB) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return "http://" + addr
}
