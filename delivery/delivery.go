package delivery

import (
	"time"

	"github.com/xraph/inbox/id"
)

// Status is the outcome recorded for a receipt attempt.
type Status string

const (
	// StatusAccepted indicates the event passed every check and was stored.
	StatusAccepted Status = "accepted"

	// StatusRejected indicates a policy check turned the event away.
	StatusRejected Status = "rejected"

	// StatusError indicates an internal failure while handling the receipt.
	StatusError Status = "error"
)

// Delivery is the audit record of one accepted receipt. Written exactly
// once at acceptance time, never mutated or deleted by this core. Rejected
// receipts are not recorded, so the audit trail covers accepted events only.
type Delivery struct {
	// ID is the unique identifier for this delivery (dlv_ prefix).
	ID id.ID `json:"id"`

	// WebhookID is the registration the receipt was for.
	WebhookID id.ID `json:"webhookId"`

	// EventID is the event stored by this receipt.
	EventID id.ID `json:"eventId"`

	// ReceivedAt is when the receipt was accepted.
	ReceivedAt time.Time `json:"receivedAt"`

	// Status is the recorded outcome.
	Status Status `json:"status"`

	// Error carries the failure detail for non-accepted outcomes.
	Error string `json:"error,omitempty"`

	// HTTPStatus is the status code the transport answered with.
	HTTPStatus int `json:"httpStatus"`

	// RemoteIP is the sender's address, when the transport knew it.
	RemoteIP string `json:"remoteIp,omitempty"`
}
