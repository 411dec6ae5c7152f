package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/inbox"

// Tracer provides OpenTelemetry tracing for the inbox.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new inbox tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartReceiveSpan starts a new span for a receipt attempt.
func (t *Tracer) StartReceiveSpan(ctx context.Context, webhookID, eventType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "inbox.receive",
		trace.WithAttributes(
			attribute.String("inbox.webhook_id", webhookID),
			attribute.String("inbox.event_type", eventType),
		),
	)
}

// EndReceiveSpan ends a receive span with its outcome.
func (t *Tracer) EndReceiveSpan(span trace.Span, accepted bool, message string) {
	span.SetAttributes(attribute.Bool("inbox.accepted", accepted))
	if !accepted {
		span.SetAttributes(attribute.String("inbox.reject_reason", message))
	}
	span.End()
}
