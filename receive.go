package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/inbox/delivery"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
	"github.com/xraph/inbox/signature"
)

// ReceiveInput is the logical inbound receipt: what a transport hands over
// after reading one webhook request.
type ReceiveInput struct {
	// WebhookID is the target registration.
	WebhookID id.ID

	// Payload is the request body, byte for byte. The signature is verified
	// over exactly these bytes.
	Payload json.RawMessage

	// Signature is the sender's hex HMAC-SHA256 digest of Payload.
	Signature string

	// Timestamp is the sender's event time in RFC 3339 form.
	Timestamp string

	// EventType is the sender-declared type ("message.received").
	EventType string

	// RemoteIP is the sender's address, when the transport knows it.
	RemoteIP string
}

// ReceiveResult reports the outcome of one receipt attempt. Message is
// always set; the IDs only on success.
type ReceiveResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	EventID    id.ID  `json:"eventId,omitempty"`
	DeliveryID id.ID  `json:"deliveryId,omitempty"`
}

// Receipt outcome classes for metrics.
const (
	receiptAccepted = "accepted"
	receiptRejected = "rejected"
	receiptError    = "error"
)

// Receive runs one inbound event through the full reception pipeline and
// reports the outcome. It never returns a Go error: policy rejections and
// unexpected storage failures alike come back as a negative result with a
// human-readable message.
//
// The checks run strictly in order, stopping at the first failure:
//  1. The registration must exist.
//  2. It must be active (paused registrations reject everything).
//  3. The per-webhook rate limit must have room.
//  4. The timestamp must be within the configured clock-drift bound.
//  5. The signature must verify over the raw payload bytes.
//  6. The event type must pass the registration's filter.
//  7. Persist the event (pending) and its delivery record, then bump the
//     registration's counters.
//
// Nothing is persisted on any failure path.
func (in *Inbox) Receive(ctx context.Context, input ReceiveInput) *ReceiveResult {
	started := time.Now()

	var span trace.Span
	if in.tracer != nil {
		ctx, span = in.tracer.StartReceiveSpan(ctx, input.WebhookID.String(), input.EventType)
	}

	res, outcome := in.receive(ctx, input)

	if in.metrics != nil {
		in.metrics.RecordReceipt(outcome, time.Since(started).Seconds())
	}
	if span != nil {
		in.tracer.EndReceiveSpan(span, res.Success, res.Message)
	}

	return res
}

func (in *Inbox) receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, string) {
	if !in.config.Enabled {
		return &ReceiveResult{Message: "Webhook processing is disabled"}, receiptRejected
	}

	// 1. Load the registration.
	reg, err := in.store.LoadRegistration(ctx, input.WebhookID)
	if err != nil {
		if errors.Is(err, ErrRegistrationNotFound) {
			return &ReceiveResult{Message: "Webhook not found"}, receiptRejected
		}
		in.logger.ErrorContext(ctx, "registration load failed",
			"webhook_id", input.WebhookID, "error", err)
		return &ReceiveResult{Message: "Failed to load registration: " + err.Error()}, receiptError
	}

	// 2. Only active registrations receive.
	if reg.Status != registration.StatusActive {
		in.logger.DebugContext(ctx, "event rejected, webhook not active",
			"webhook_id", reg.ID, "status", reg.Status)
		return &ReceiveResult{Message: "Webhook is not active"}, receiptRejected
	}

	// 3. Rate limit.
	if !in.limiter.Allow(reg.ID.String(), in.config.Security.RateLimitPerMinute) {
		in.logger.WarnContext(ctx, "event rejected, rate limit exceeded",
			"webhook_id", reg.ID)
		return &ReceiveResult{Message: "Rate limit exceeded"}, receiptRejected
	}

	// 4. Timestamp freshness, inclusive at the bound.
	if !signature.IsTimestampFresh(input.Timestamp, in.config.Security.MaxTimestampAge) {
		return &ReceiveResult{Message: "Timestamp too old or invalid"}, receiptRejected
	}

	// 5. Signature over the raw payload bytes.
	if !signature.Verify(input.Payload, input.Signature, reg.Secret) {
		in.logger.WarnContext(ctx, "event rejected, invalid signature",
			"webhook_id", reg.ID)
		return &ReceiveResult{Message: "Invalid signature"}, receiptRejected
	}

	// 6. Event type filter.
	if !reg.Accepts(input.EventType) {
		return &ReceiveResult{
			Message: fmt.Sprintf("Event type %q is not accepted by this webhook", input.EventType),
		}, receiptRejected
	}

	// 7. Persist: the event first, then its delivery record, then the
	// registration counters.
	ts, _ := signature.ParseTimestamp(input.Timestamp) // fresh implies parseable
	now := time.Now().UTC()

	evt := &event.Event{
		ID:        id.NewEventID(),
		WebhookID: reg.ID,
		Source:    reg.Source,
		EventType: input.EventType,
		Payload:   input.Payload,
		Timestamp: ts,
		Signature: input.Signature,
		Status:    event.StatusPending,
	}
	if err := in.store.SaveEvent(ctx, evt); err != nil {
		in.logger.ErrorContext(ctx, "event store failed",
			"webhook_id", reg.ID, "event_id", evt.ID, "error", err)
		return &ReceiveResult{Message: "Failed to store event: " + err.Error()}, receiptError
	}

	dlv := &delivery.Delivery{
		ID:         id.NewDeliveryID(),
		WebhookID:  reg.ID,
		EventID:    evt.ID,
		ReceivedAt: now,
		Status:     delivery.StatusAccepted,
		HTTPStatus: 200,
		RemoteIP:   input.RemoteIP,
	}
	if err := in.store.SaveDelivery(ctx, dlv); err != nil {
		in.logger.ErrorContext(ctx, "delivery record failed",
			"webhook_id", reg.ID, "delivery_id", dlv.ID, "error", err)
		return &ReceiveResult{Message: "Failed to record delivery: " + err.Error()}, receiptError
	}

	reg.DeliveryCount++
	reg.LastDeliveryAt = &now
	reg.Touch()
	if err := in.store.SaveRegistration(ctx, reg); err != nil {
		in.logger.ErrorContext(ctx, "registration counter update failed",
			"webhook_id", reg.ID, "error", err)
		return &ReceiveResult{Message: "Failed to update registration: " + err.Error()}, receiptError
	}

	in.logger.InfoContext(ctx, "event received",
		"webhook_id", reg.ID,
		"event_id", evt.ID,
		"event_type", input.EventType,
	)

	return &ReceiveResult{
		Success:    true,
		Message:    "Event received",
		EventID:    evt.ID,
		DeliveryID: dlv.ID,
	}, receiptAccepted
}

// SendTestEvent builds a synthetic payload, signs it with the registration's
// own secret and the current time, and routes it through the identical
// reception pipeline. A passing test event proves the whole path, signature
// check included.
func (in *Inbox) SendTestEvent(ctx context.Context, webhookID id.ID) *ReceiveResult {
	reg, err := in.store.LoadRegistration(ctx, webhookID)
	if err != nil {
		if errors.Is(err, ErrRegistrationNotFound) {
			return &ReceiveResult{Message: "Webhook not found"}
		}
		return &ReceiveResult{Message: "Failed to load registration: " + err.Error()}
	}

	now := time.Now().UTC()
	payload, err := json.Marshal(struct {
		Test    bool   `json:"test"`
		Message string `json:"message"`
		SentAt  string `json:"sentAt"`
	}{
		Test:    true,
		Message: "Test event for " + reg.Name,
		SentAt:  now.Format(time.RFC3339),
	})
	if err != nil {
		return &ReceiveResult{Message: "Failed to build test payload: " + err.Error()}
	}

	eventType := "test.ping"
	if len(reg.EventsFilter) > 0 {
		eventType = reg.EventsFilter[0]
	}

	return in.Receive(ctx, ReceiveInput{
		WebhookID: webhookID,
		Payload:   payload,
		Signature: signature.Sign(payload, reg.Secret),
		Timestamp: now.Format(time.RFC3339),
		EventType: eventType,
	})
}
