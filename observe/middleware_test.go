package observe

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddleware_RecordsRequest(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	metrics, reader := newTestMetrics(t)
	var logs bytes.Buffer

	mw := NewMiddleware(Telemetry{
		Tracer:  tracer,
		Metrics: metrics,
		Logger:  NewLoggerWithWriter("debug", &logs),
	}, func(*http.Request) string { return "GET /healthz" })

	var sawSpan bool
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanContextFromContext(r.Context()).IsValid()
		_, _ = w.Write([]byte(`{"content":"foo"}`))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != `{"content":"foo"}` {
		t.Errorf("body = %q, middleware must not alter it", rec.Body.String())
	}
	if !sawSpan {
		t.Error("downstream handler should see the request span")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "http.GET /healthz" {
		t.Errorf("span name = %q", spans[0].Name())
	}

	requests := findMetric(collect(t, reader), "http.server.requests")
	if requests == nil || sumValue(t, requests) != 1 {
		t.Error("expected one recorded request")
	}

	entries := decodeLines(t, &logs)
	if len(entries) != 1 || entries[0]["msg"] != "request completed" {
		t.Errorf("unexpected log entries: %v", entries)
	}
}

func TestMiddleware_ServerErrorMarksSpan(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	var logs bytes.Buffer

	mw := NewMiddleware(Telemetry{
		Tracer: tracer,
		Logger: NewLoggerWithWriter("info", &logs),
	}, nil)

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/boom", nil))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", s.Status().Code)
	}
	if s.Name() != "http./boom" {
		t.Errorf("default route label should be the path, got span %q", s.Name())
	}

	entries := decodeLines(t, &logs)
	if len(entries) != 1 || entries[0]["level"] != "error" {
		t.Errorf("expected one error entry, got %v", entries)
	}
}

func TestMiddleware_ClientErrorLogsWarn(t *testing.T) {
	var logs bytes.Buffer
	mw := NewMiddleware(Telemetry{Logger: NewLoggerWithWriter("info", &logs)}, nil)

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/healthz", nil))

	entries := decodeLines(t, &logs)
	if len(entries) != 1 || entries[0]["level"] != "warn" {
		t.Errorf("expected one warn entry, got %v", entries)
	}
	if entries[0]["status"] != float64(http.StatusBadRequest) {
		t.Errorf("status field = %v", entries[0]["status"])
	}
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	if rec.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want 200 when nothing written", rec.Status())
	}

	rec.WriteHeader(http.StatusTeapot)
	rec.WriteHeader(http.StatusOK)
	if rec.Status() != http.StatusTeapot {
		t.Errorf("Status() = %d, first WriteHeader wins", rec.Status())
	}
}
