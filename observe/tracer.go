package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// StreamMeta identifies an instrumented stream.
type StreamMeta struct {
	ID        string   // Fully qualified stream ID (namespace.name or just name)
	Namespace string   // Stream namespace (may be empty)
	Name      string   // Stream name (required)
	Operator  string   // Operator producing the stream, e.g. catch, retry, serve
	Tags      []string // Free-form tags (optional)
}

// SpanName returns the deterministic span name for this stream.
// Format: rx.<operator>.<namespace>.<name> or rx.<operator>.<name>.
// An empty operator is reported as "stream".
func (m StreamMeta) SpanName() string {
	op := m.Operator
	if op == "" {
		op = "stream"
	}
	if m.Namespace != "" {
		return "rx." + op + "." + m.Namespace + "." + m.Name
	}
	return "rx." + op + "." + m.Name
}

// StreamID returns the fully qualified stream identifier.
func (m StreamMeta) StreamID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

func (m StreamMeta) fields() []Field {
	fields := []Field{
		{Key: "stream.id", Value: m.StreamID()},
		{Key: "stream.name", Value: m.Name},
	}
	if m.Namespace != "" {
		fields = append(fields, Field{Key: "stream.namespace", Value: m.Namespace})
	}
	if m.Operator != "" {
		fields = append(fields, Field{Key: "stream.operator", Value: m.Operator})
	}
	return fields
}

func (m StreamMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("stream.id", m.StreamID()),
		attribute.String("stream.name", m.Name),
	}
	if m.Namespace != "" {
		attrs = append(attrs, attribute.String("stream.namespace", m.Namespace))
	}
	if m.Operator != "" {
		attrs = append(attrs, attribute.String("stream.operator", m.Operator))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with one span per subscription.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan and AddRecovery must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts the span covering a subscription's lifetime.
	StartSpan(ctx context.Context, meta StreamMeta) (context.Context, trace.Span)

	// AddRecovery records a recovered failure as a span event.
	AddRecovery(span trace.Span, attempt int, delay time.Duration, err error)

	// EndSpan ends the span with the given outcome, recording err if present.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

// Outcome describes how a subscription ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeError     Outcome = "error"
	OutcomeDisposed  Outcome = "disposed"
)

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta StreamMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("stream.tags", meta.Tags))
	}
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) AddRecovery(span trace.Span, attempt int, delay time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("rx.attempt", attempt),
		attribute.Int64("rx.backoff_ms", delay.Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("rx.error", err.Error()))
	}
	span.AddEvent("rx.recovered", trace.WithAttributes(attrs...))
}

func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	span.SetAttributes(attribute.String("rx.outcome", string(outcome)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta StreamMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) AddRecovery(trace.Span, int, time.Duration, error) {}

func (t *noopTracer) EndSpan(span trace.Span, _ Outcome, _ error) {
	span.End()
}
