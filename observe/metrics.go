package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Unit outcomes recorded by the fan-out harness.
const (
	OutcomePass    = "pass"
	OutcomeFail    = "fail"
	OutcomeSkipped = "skipped"
)

// Metrics records service metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: recording must not panic.
type Metrics interface {
	// RecordRequest records one served HTTP request.
	RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration)

	// RecordUnit records the outcome of one harness unit of work.
	RecordUnit(ctx context.Context, phase, outcome string)

	// ObserveCache registers a gauge reporting the live entry count.
	ObserveCache(entries func() int64) error
}

type metricsImpl struct {
	meter        metric.Meter
	requests     metric.Int64Counter
	errors       metric.Int64Counter
	durationHist metric.Float64Histogram
	units        metric.Int64Counter
}

// NewMetrics creates the service instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	requests, err := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"http.server.errors",
		metric.WithDescription("HTTP responses with a 4xx or 5xx status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"http.server.duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	units, err := meter.Int64Counter(
		"fanout.units",
		metric.WithDescription("Harness units of work by phase and outcome"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		requests:     requests,
		errors:       errorCount,
		durationHist: durationHist,
		units:        units,
	}, nil
}

func (m *metricsImpl) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
	)

	m.requests.Add(ctx, 1, opt)
	if status >= 400 {
		m.errors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordUnit(ctx context.Context, phase, outcome string) {
	m.units.Add(ctx, 1, metric.WithAttributes(
		attribute.String("fanout.phase", phase),
		attribute.String("fanout.outcome", outcome),
	))
}

func (m *metricsImpl) ObserveCache(entries func() int64) error {
	_, err := m.meter.Int64ObservableGauge(
		"cache.entries",
		metric.WithDescription("Entries held by the TTL store"),
		metric.WithUnit("{entry}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(entries())
			return nil
		}),
	)
	return err
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(context.Context, string, string, int, time.Duration) {}
func (nopMetrics) RecordUnit(context.Context, string, string)                        {}
func (nopMetrics) ObserveCache(func() int64) error                                   { return nil }
