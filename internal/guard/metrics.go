package guard

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meterer is satisfied by obsx.Provider and the OpenTelemetry SDK MeterProvider.
type Meterer interface {
	Meter(name string, opts ...metric.MeterOption) metric.Meter
}

// Metrics holds the guard instruments.
type Metrics struct {
	evaluations metric.Int64Counter
	redirects   metric.Int64Counter
}

// NewMetrics registers guard_evaluations_total{action} and guard_redirects_total{reason}.
// A nil provider disables collection.
func NewMetrics(provider Meterer) (*Metrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter("go.barcircle.dev/web/internal/guard")

	evaluations, err := meter.Int64Counter("guard_evaluations_total",
		metric.WithDescription("Navigation evaluations by resulting action"))
	if err != nil {
		return nil, err
	}
	redirects, err := meter.Int64Counter("guard_redirects_total",
		metric.WithDescription("Navigations redirected by the guard"))
	if err != nil {
		return nil, err
	}
	return &Metrics{evaluations: evaluations, redirects: redirects}, nil
}

func (m *Metrics) evaluated(ctx context.Context, d Decision) {
	if m == nil {
		return
	}
	m.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(d.Action))))
	if d.Action == ActionRedirect {
		m.redirects.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", d.Reason)))
	}
}
