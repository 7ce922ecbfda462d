// Package runtimex provides server lifecycle management for the front-end shell.
//
// Overview:
//   - Responsibility: Run the app, health and metrics listeners plus background services
//   - Key Types: Service interface, Options for configuration, Endpoint for address binding
//   - Concurrency Model: Services start concurrently; servers bind before Run blocks
//   - Error Semantics: Bind and start failures are returned; serve errors are logged
//   - Performance Notes: Servers carry read-header and idle timeouts
//
// Usage:
//
//	err := runtimex.Run(ctx, nil, runtimex.Options{
//	  Logger:  logger,
//	  HTTP:    &runtimex.Endpoint{Addr: ":8080", Handler: router},
//	  Health:  &runtimex.Endpoint{Addr: ":8081"},
//	  Metrics: &runtimex.Endpoint{Addr: ":9091", Handler: provider.PrometheusHandler()},
//	})
package runtimex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/logx"
	"go.barcircle.dev/web/runtimex/internal"
)

// Service defines the interface for background work started alongside the servers.
type Service interface {
	// Start begins the service operation and must not block.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the service, honoring the context deadline.
	Stop(ctx context.Context) error
}

// Endpoint represents a listener address and the handler served on it.
type Endpoint struct {
	Addr    string       // Network address (e.g., ":8081", "localhost:9091")
	Handler http.Handler // Optional for health and metrics endpoints
}

// Options holds configuration for the runtime.
type Options struct {
	Logger          log.Logger    // Logger for runtime operations
	HTTP            *Endpoint     // Application server
	Health          *Endpoint     // Health endpoint, defaults to HealthHandler
	Metrics         *Endpoint     // Metrics endpoint, defaults to the Prometheus default registry
	ShutdownTimeout time.Duration // Graceful shutdown timeout (default: 15s)
}

// HealthChecker reports the health of one dependency.
type HealthChecker = internal.HealthChecker

// CheckResult is the outcome of one health checker.
type CheckResult = internal.CheckResult

// RegisterHealthChecker adds a checker consulted by HealthHandler.
func RegisterHealthChecker(checker HealthChecker) {
	internal.RegisterHealthChecker(checker)
}

// ClearHealthCheckers removes all registered checkers (intended for testing).
func ClearHealthCheckers() {
	internal.ClearHealthCheckers()
}

// CheckHealth runs all registered checkers.
func CheckHealth(ctx context.Context) ([]CheckResult, bool) {
	return internal.CheckHealth(ctx)
}

type checkerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkerFunc) Name() string                    { return c.name }
func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// NewHealthChecker adapts a function to the HealthChecker interface.
func NewHealthChecker(name string, fn func(ctx context.Context) error) HealthChecker {
	return checkerFunc{name: name, fn: fn}
}

// HealthHandler answers 200 when every registered checker passes and 503 otherwise.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results, healthy := internal.CheckHealth(ctx)
		body := struct {
			Status string        `json:"status"`
			Checks []CheckResult `json:"checks"`
		}{Status: "ok", Checks: results}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
			body.Status = "unhealthy"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

// Runtime is a started set of servers and services.
type Runtime struct {
	rt *internal.Runtime
}

// Start binds every configured endpoint and starts services without blocking.
func Start(ctx context.Context, services []Service, opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 15 * time.Second
	}

	internalServices := make([]internal.Service, len(services))
	for i, service := range services {
		internalServices[i] = service
	}

	rt := internal.NewRuntime(opts.Logger, internalServices, shutdownTimeout)
	errorLog := logx.StdLogger(opts.Logger.With("component", "http"), slog.LevelError)

	add := func(name string, ep *Endpoint, fallback http.Handler) {
		if ep == nil {
			return
		}
		handler := ep.Handler
		if handler == nil {
			handler = fallback
		}
		rt.AddServer(name, &http.Server{
			Addr:              ep.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ErrorLog:          errorLog,
		})
	}
	add("http", opts.HTTP, http.NotFoundHandler())
	add("health", opts.Health, HealthHandler())
	add("metrics", opts.Metrics, promhttp.Handler())

	if err := rt.Start(ctx); err != nil {
		return nil, fmt.Errorf("runtime start failed: %w", err)
	}
	return &Runtime{rt: rt}, nil
}

// Addr returns the bound address of "http", "health" or "metrics".
func (r *Runtime) Addr(name string) string {
	return r.rt.Addr(name)
}

// Stop shuts servers down gracefully, then stops services.
func (r *Runtime) Stop(ctx context.Context) error {
	if err := r.rt.Stop(ctx); err != nil {
		return fmt.Errorf("runtime stop failed: %w", err)
	}
	return nil
}

// Run starts all servers and services and blocks until ctx is cancelled.
func Run(ctx context.Context, services []Service, opts Options) error {
	rt, err := Start(ctx, services, opts)
	if err != nil {
		return err
	}

	<-ctx.Done()

	return rt.Stop(context.Background())
}
