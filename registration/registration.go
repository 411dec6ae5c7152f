package registration

import (
	"slices"
	"time"

	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/internal/entity"
)

// Status is the lifecycle state of a webhook registration.
type Status string

const (
	// StatusActive indicates the registration accepts inbound events.
	StatusActive Status = "active"

	// StatusPaused indicates the registration rejects all inbound events
	// without being removed.
	StatusPaused Status = "paused"

	// StatusDeleted is a declared terminal state. Deletion currently removes
	// the record outright, so no stored registration carries it; the receive
	// path still rejects it like any other non-active status.
	StatusDeleted Status = "deleted"
)

// Registration is a named, secret-bearing webhook endpoint that external
// sources push events against.
type Registration struct {
	entity.Entity

	// ID is the unique identifier for this registration (whk_ prefix).
	ID id.ID `json:"id"`

	// Name is a human-readable label ("Gmail", "GitHub Issues").
	Name string `json:"name"`

	// Source identifies the sending system ("gmail", "github"). Copied onto
	// every accepted event.
	Source string `json:"source"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// Secret is the HMAC signing secret (whsec_ prefix). Persisted with the
	// registration; transport layers must take care not to echo it back.
	Secret string `json:"secret"`

	// EventsFilter is the set of accepted event types. Empty means accept
	// all types.
	EventsFilter []string `json:"eventsFilter"`

	// Status is the lifecycle state. Only active registrations accept events.
	Status Status `json:"status"`

	// DeliveryCount is the number of accepted receipts. Advances only on
	// acceptance, monotonically.
	DeliveryCount int `json:"deliveryCount"`

	// LastDeliveryAt is the time of the most recent accepted receipt.
	LastDeliveryAt *time.Time `json:"lastDeliveryAt,omitempty"`
}

// Accepts reports whether this registration's filter admits the given event
// type. An empty filter admits everything; a non-empty filter is an exact
// membership test, not a pattern match.
func (r *Registration) Accepts(eventType string) bool {
	if len(r.EventsFilter) == 0 {
		return true
	}

	return slices.Contains(r.EventsFilter, eventType)
}

// Summarize returns the denormalized index entry for this registration.
func (r *Registration) Summarize() Summary {
	return Summary{
		ID:             r.ID,
		Name:           r.Name,
		Source:         r.Source,
		Status:         r.Status,
		DeliveryCount:  r.DeliveryCount,
		CreatedAt:      r.CreatedAt,
		LastDeliveryAt: r.LastDeliveryAt,
	}
}

// Summary is the denormalized registration entry kept in the global index.
type Summary struct {
	ID             id.ID      `json:"id"`
	Name           string     `json:"name"`
	Source         string     `json:"source"`
	Status         Status     `json:"status"`
	DeliveryCount  int        `json:"deliveryCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastDeliveryAt *time.Time `json:"lastDeliveryAt,omitempty"`
}

// Index is the global registration index: a derived, rebuildable projection
// of every registration file as of the last write.
type Index struct {
	Webhooks    []Summary `json:"webhooks"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Upsert inserts or replaces the summary for its ID. Replacement preserves
// the entry's original position; new entries are inserted at the front.
func (ix *Index) Upsert(s Summary) {
	for i := range ix.Webhooks {
		if ix.Webhooks[i].ID == s.ID {
			ix.Webhooks[i] = s
			ix.LastUpdated = time.Now().UTC()
			return
		}
	}

	ix.Webhooks = append([]Summary{s}, ix.Webhooks...)
	ix.LastUpdated = time.Now().UTC()
}

// Remove deletes the entry for the given ID, reporting whether it existed.
func (ix *Index) Remove(regID id.ID) bool {
	for i := range ix.Webhooks {
		if ix.Webhooks[i].ID == regID {
			ix.Webhooks = append(ix.Webhooks[:i], ix.Webhooks[i+1:]...)
			ix.LastUpdated = time.Now().UTC()
			return true
		}
	}

	return false
}
