// Package obsx provides Prometheus-backed OpenTelemetry metrics.
//
// Overview:
//   - Responsibility: Bootstrap an OpenTelemetry meter provider exported through Prometheus
//   - Key Types: Options for configuration, Provider for managing lifecycle
//   - Concurrency Model: Provider is safe for concurrent use
//   - Error Semantics: NewProvider returns error for initialization failures
//   - Performance Notes: Metrics are gathered on scrape; no push exporter
//
// Usage:
//
//	provider, err := obsx.NewProvider(ctx, obsx.Options{ServiceName: "barcircle-web"})
//	metrics, err := clientx.NewMetrics(provider)
//	mux.Handle("/metrics", provider.PrometheusHandler())
//	defer provider.Shutdown(ctx)
package obsx

import (
	"context"
	"net/http"

	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"go.barcircle.dev/web/obsx/internal"
)

// Options holds configuration for the metrics provider.
type Options struct {
	ServiceName    string            // Service name for metrics
	ServiceVersion string            // Service version
	ResourceAttrs  map[string]string // Additional resource attributes
}

// Provider manages the meter provider and its Prometheus registry.
// The provider must be shut down when no longer needed.
type Provider struct {
	impl *internal.Provider
}

// NewProvider creates a new metrics provider with Prometheus export.
func NewProvider(ctx context.Context, opts Options) (*Provider, error) {
	impl, err := internal.NewProvider(ctx, internal.ProviderOptions{
		ServiceName:    opts.ServiceName,
		ServiceVersion: opts.ServiceVersion,
		ResourceAttrs:  opts.ResourceAttrs,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{impl: impl}, nil
}

// MeterProvider returns the OpenTelemetry meter provider.
func (p *Provider) MeterProvider() *metric.MeterProvider {
	return p.impl.MeterProvider
}

// Meter returns a named meter for creating instruments.
func (p *Provider) Meter(name string, opts ...api.MeterOption) api.Meter {
	return p.impl.MeterProvider.Meter(name, opts...)
}

// PrometheusHandler serves the registry in Prometheus text format.
//
//	mux.Handle("/metrics", provider.PrometheusHandler())
func (p *Provider) PrometheusHandler() http.Handler {
	return p.impl.PrometheusHandler()
}

// EnableRuntimeMetrics registers Go runtime and process collectors. Calling it twice is harmless.
func (p *Provider) EnableRuntimeMetrics() error {
	return p.impl.EnableRuntimeMetrics()
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.impl.Shutdown(ctx)
}
