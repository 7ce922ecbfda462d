package clientx

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meterer is satisfied by obsx.Provider and the OpenTelemetry SDK MeterProvider.
type Meterer interface {
	Meter(name string, opts ...metric.MeterOption) metric.Meter
}

// Metrics holds the gateway instruments.
type Metrics struct {
	requests metric.Int64Counter
	retries  metric.Int64Counter
	notices  metric.Int64Counter
	resets   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics registers the gateway instruments. A nil provider disables collection.
//
// Metrics:
//   - api_client_requests_total{method,outcome}
//   - api_client_retries_total{method}
//   - api_client_notices_total{kind}
//   - api_client_session_resets_total
//   - api_client_request_duration_seconds{method,outcome}, retries and backoff included
func NewMetrics(provider Meterer) (*Metrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter("go.barcircle.dev/web/clientx")
	m := &Metrics{}
	var err error

	if m.requests, err = meter.Int64Counter(
		"api_client_requests_total",
		metric.WithDescription("Settled gateway calls by outcome"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.retries, err = meter.Int64Counter(
		"api_client_retries_total",
		metric.WithDescription("Retries scheduled after connection failures"),
		metric.WithUnit("{retry}"),
	); err != nil {
		return nil, err
	}
	if m.notices, err = meter.Int64Counter(
		"api_client_notices_total",
		metric.WithDescription("User-visible notices raised by the gateway"),
		metric.WithUnit("{notice}"),
	); err != nil {
		return nil, err
	}
	if m.resets, err = meter.Int64Counter(
		"api_client_session_resets_total",
		metric.WithDescription("Session resets caused by a 401 on the probe endpoint"),
		metric.WithUnit("{reset}"),
	); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram(
		"api_client_request_duration_seconds",
		metric.WithDescription("Gateway call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) settled(ctx context.Context, method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) retried(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

func (m *Metrics) noticed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.notices.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) reset(ctx context.Context) {
	if m == nil {
		return
	}
	m.resets.Add(ctx, 1)
}
