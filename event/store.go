package event

import (
	"context"
	"time"

	"github.com/xraph/inbox/id"
)

// Store defines the persistence contract for received events and their
// per-webhook indices.
type Store interface {
	// SaveEvent persists an event and prepends its summary to the webhook's
	// index (most-recent-first), advancing totalEvents and, for pending
	// events, pendingCount.
	SaveEvent(ctx context.Context, evt *Event) error

	// LoadEvent returns an event by ID. A missing file and an unreadable
	// file both report not-found: corruption reads as absence.
	LoadEvent(ctx context.Context, webhookID, eventID id.ID) (*Event, error)

	// UpdateEventStatus rewrites the event and its index entry in place.
	// pendingCount drops exactly once, when the prior status was pending
	// and the new one is not. injectedAt is recorded when non-nil.
	UpdateEventStatus(ctx context.Context, webhookID, eventID id.ID, status Status, injectedAt *time.Time) error

	// ListEvents returns events for a webhook in index order
	// (most-recent-first), optionally capped or restricted to pending.
	ListEvents(ctx context.Context, webhookID id.ID, opts ListOpts) ([]*Event, error)

	// EventIndex returns the webhook's current event index.
	EventIndex(ctx context.Context, webhookID id.ID) (*Index, error)

	// CleanupEvents deletes events strictly older than maxAgeDays, rewrites
	// the index without them, and recomputes pendingCount from what remains.
	// Returns the number of events deleted.
	CleanupEvents(ctx context.Context, webhookID id.ID, maxAgeDays int) (int, error)

	// EnforceMaxEvents evicts the oldest events by event timestamp (not
	// insertion order) until at most max remain, with the same recompute
	// discipline. Returns the number of events evicted.
	EnforceMaxEvents(ctx context.Context, webhookID id.ID, max int) (int, error)
}
