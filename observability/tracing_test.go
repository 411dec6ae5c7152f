package observability

import (
	"context"
	"testing"
)

func TestReceiveSpanLifecycle(t *testing.T) {
	// Without a registered tracer provider otel hands back no-op spans,
	// so the full start/end cycle must run without side effects.
	tr := NewTracer()

	ctx, span := tr.StartReceiveSpan(context.Background(), "whk_abc123def456", "message.received")
	if ctx == nil {
		t.Fatal("expected a context back from StartReceiveSpan")
	}
	if span == nil {
		t.Fatal("expected a span back from StartReceiveSpan")
	}

	tr.EndReceiveSpan(span, true, "")
}

func TestReceiveSpanRejected(t *testing.T) {
	tr := NewTracer()

	_, span := tr.StartReceiveSpan(context.Background(), "whk_abc123def456", "message.received")
	tr.EndReceiveSpan(span, false, "Invalid signature")
}
