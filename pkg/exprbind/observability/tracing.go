package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of exprbind spans.
const TracerName = "exprbind"

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer(TracerName)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCheckpointSpan starts a span covering one checkpoint.
	StartCheckpointSpan(ctx context.Context, observers int) (context.Context, trace.Span)

	// StartWriteSpan starts a span for a two-way write through expr.
	StartWriteSpan(ctx context.Context, expr string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartCheckpointSpan starts a span covering one checkpoint.
func (m *otelSpanManager) StartCheckpointSpan(ctx context.Context, observers int) (context.Context, trace.Span) {
	return StartCheckpointSpan(ctx, observers)
}

// StartWriteSpan starts a span for a two-way write.
func (m *otelSpanManager) StartWriteSpan(ctx context.Context, expr string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "exprbind.write",
		trace.WithAttributes(attribute.String("expr", expr)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartCheckpointSpan starts a checkpoint span on the global tracer.
func StartCheckpointSpan(ctx context.Context, observers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "exprbind.checkpoint",
		trace.WithAttributes(attribute.Int("observers", observers)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
