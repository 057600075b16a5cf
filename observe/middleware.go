package observe

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RouteFunc names the route a request was matched to. It must return a
// bounded set of values; it is used as a metric attribute.
type RouteFunc func(r *http.Request) string

// Middleware wraps HTTP handling with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Handler returns a handler safe for concurrent use.
//   - Context: the request context passed downstream carries the span.
//   - Ownership: request and response bodies pass through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	route   RouteFunc
}

// NewMiddleware creates HTTP middleware from t. A nil route labels every
// request with its URL path.
func NewMiddleware(t Telemetry, route RouteFunc) *Middleware {
	t = t.OrNop()
	if route == nil {
		route = func(r *http.Request) string { return r.URL.Path }
	}
	return &Middleware{
		tracer:  t.Tracer,
		metrics: t.Metrics,
		logger:  t.Logger.With(F("component", "http")),
		route:   route,
	}
}

// Handler wraps next.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := m.route(r)

		ctx, span := m.tracer.StartSpan(r.Context(), Op{
			Component: "http",
			Name:      route,
			Kind:      trace.SpanKindServer,
			Attrs: []attribute.KeyValue{
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			},
		})

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		status := rec.Status()

		span.SetAttributes(attribute.Int("http.response.status_code", status))
		var err error
		if status >= http.StatusInternalServerError {
			err = fmt.Errorf("http status %d", status)
		}
		m.tracer.EndSpan(span, err)

		m.metrics.RecordRequest(ctx, r.Method, route, status, duration)

		fields := []Field{
			F("method", r.Method),
			F("route", route),
			F("status", status),
			F("duration_ms", float64(duration.Microseconds())/1000),
		}
		switch {
		case status >= http.StatusInternalServerError:
			m.logger.Error(ctx, "request failed", fields...)
		case status >= http.StatusBadRequest:
			m.logger.Warn(ctx, "request rejected", fields...)
		default:
			m.logger.Debug(ctx, "request completed", fields...)
		}
	})
}

// statusRecorder remembers the status code written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Status returns the written status, or 200 if the handler wrote nothing.
func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
