package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var noopTracer = noop.NewTracerProvider().Tracer("")

// TurnSpan wraps the span covering one conversation turn.
type TurnSpan struct {
	span trace.Span
}

// StartTurn opens the span for a turn that begins in state.
func (o *Observability) StartTurn(ctx context.Context, state string) (context.Context, *TurnSpan) {
	tracer := noopTracer
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	ctx, span := tracer.Start(ctx, "agent.turn", trace.WithAttributes(attribute.String("agent.state", state)))
	return ctx, &TurnSpan{span: span}
}

// End records the classified label and outcome; any outcome other than "ok"
// marks the span as failed.
func (s *TurnSpan) End(label, outcome string) {
	s.span.SetAttributes(
		attribute.String("agent.label", label),
		attribute.String("agent.outcome", outcome),
	)
	if outcome != "ok" {
		s.span.SetStatus(codes.Error, outcome)
	}
	s.span.End()
}

// TraceID returns the hex trace id of the span in ctx, or "" when none is recording.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
