package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Op describes a traced operation.
type Op struct {
	Component string // e.g. "http", "fanout"
	Name      string // e.g. "GET /healthz", "populate"
	Kind      trace.SpanKind
	Attrs     []attribute.KeyValue
}

// SpanName returns the deterministic span name: <component>.<name>, or just
// the name when Component is empty.
func (o Op) SpanName() string {
	if o.Component == "" {
		return o.Name
	}
	return o.Component + "." + o.Name
}

// Tracer wraps OpenTelemetry span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for op.
	StartSpan(ctx context.Context, op Op) (context.Context, trace.Span)

	// EndSpan ends the span, recording err if non-nil.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer on top of an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, op Op) (context.Context, trace.Span) {
	kind := op.Kind
	if kind == trace.SpanKindUnspecified {
		kind = trace.SpanKindInternal
	}

	attrs := make([]attribute.KeyValue, 0, len(op.Attrs)+1)
	if op.Component != "" {
		attrs = append(attrs, attribute.String("component", op.Component))
	}
	attrs = append(attrs, op.Attrs...)

	return t.tracer.Start(ctx, op.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans record nothing.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
