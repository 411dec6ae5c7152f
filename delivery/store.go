package delivery

import (
	"context"

	"github.com/xraph/inbox/id"
)

// Store defines the persistence contract for receipt audit records.
type Store interface {
	// SaveDelivery persists a delivery record. Called exactly once per
	// accepted receipt.
	SaveDelivery(ctx context.Context, d *Delivery) error

	// ListDeliveries returns a webhook's deliveries sorted newest-first at
	// read time. limit caps the result; 0 means no cap.
	ListDeliveries(ctx context.Context, webhookID id.ID, limit int) ([]*Delivery, error)
}
