package event

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/xraph/inbox/id"
)

// Status is the lifecycle state of a received event.
type Status string

const (
	// StatusPending indicates the event has been accepted but not yet
	// surfaced to a consumer.
	StatusPending Status = "pending"

	// StatusInjected indicates the event was handed to a consumer's context.
	StatusInjected Status = "injected"

	// StatusProcessed indicates a consumer finished acting on the event.
	StatusProcessed Status = "processed"

	// StatusFailed indicates a consumer gave up on the event.
	StatusFailed Status = "failed"
)

// previewLen is the maximum preview length in characters before truncation.
const previewLen = 100

// Event is one received push notification tied to a registration.
// Append-only except for status transitions.
type Event struct {
	// ID is the unique identifier for this event (evt_ prefix).
	ID id.ID `json:"id"`

	// WebhookID is the registration this event was received against.
	WebhookID id.ID `json:"webhookId"`

	// Source is copied from the registration at acceptance time.
	Source string `json:"source"`

	// EventType is the sender-declared type ("message.received").
	EventType string `json:"eventType"`

	// Payload is the event body as received. Kept as raw bytes so field
	// order and unknown fields survive persistence.
	Payload json.RawMessage `json:"payload"`

	// Timestamp is the sender-supplied event time.
	Timestamp time.Time `json:"timestamp"`

	// Signature is the sender's HMAC hex digest, as received.
	Signature string `json:"signature"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// InjectedAt is when the event was marked injected.
	InjectedAt *time.Time `json:"injectedAt,omitempty"`
}

// Preview returns the payload's JSON serialization truncated to 100
// characters, with an ellipsis marker when cut. The cut is rune-safe.
func (e *Event) Preview() string {
	s := string(e.Payload)
	if len(s) <= previewLen {
		return s
	}

	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}

	return string(r[:previewLen]) + "..."
}

// Summarize returns the denormalized index entry for this event.
func (e *Event) Summarize() Summary {
	return Summary{
		ID:        e.ID,
		Source:    e.Source,
		EventType: e.EventType,
		Preview:   e.Preview(),
		Timestamp: e.Timestamp,
		Status:    e.Status,
	}
}

// Summary is the denormalized event entry kept in a per-webhook index.
type Summary struct {
	ID        id.ID     `json:"id"`
	Source    string    `json:"source"`
	EventType string    `json:"eventType"`
	Preview   string    `json:"preview"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}

// Index is the per-webhook event index: a derived, rebuildable projection.
// PendingCount must always equal the number of indexed pending entries.
type Index struct {
	Events       []Summary `json:"events"`
	LastUpdated  time.Time `json:"lastUpdated"`
	TotalEvents  int       `json:"totalEvents"`
	PendingCount int       `json:"pendingCount"`
}

// Prepend inserts a new summary at the front (most-recent-first order) and
// advances the counters.
func (ix *Index) Prepend(s Summary) {
	ix.Events = append([]Summary{s}, ix.Events...)
	ix.TotalEvents++
	if s.Status == StatusPending {
		ix.PendingCount++
	}
	ix.LastUpdated = time.Now().UTC()
}

// SetStatus rewrites the status of the entry for eventID in place,
// decrementing PendingCount exactly once when the entry leaves pending.
// Reports whether the entry was found.
func (ix *Index) SetStatus(eventID id.ID, status Status) bool {
	for i := range ix.Events {
		if ix.Events[i].ID != eventID {
			continue
		}

		prior := ix.Events[i].Status
		ix.Events[i].Status = status
		if prior == StatusPending && status != StatusPending {
			ix.PendingCount--
		}
		ix.LastUpdated = time.Now().UTC()

		return true
	}

	return false
}

// PruneOlderThan removes entries whose timestamp is strictly before cutoff
// and recomputes the counters. Surviving entries keep their order. Returns
// the removed IDs; an untouched index returns none and stays unmodified.
func (ix *Index) PruneOlderThan(cutoff time.Time) []id.ID {
	kept := ix.Events[:0:0]
	var removed []id.ID
	for _, s := range ix.Events {
		if s.Timestamp.Before(cutoff) {
			removed = append(removed, s.ID)
			continue
		}
		kept = append(kept, s)
	}

	if len(removed) == 0 {
		return nil
	}

	ix.Events = kept
	ix.Recount()
	return removed
}

// EvictOverflow removes the oldest entries by event timestamp until at most
// max remain, then recomputes the counters. Surviving entries keep their
// order. Returns the evicted IDs; an index within the cap stays unmodified.
func (ix *Index) EvictOverflow(max int) []id.ID {
	if len(ix.Events) <= max {
		return nil
	}

	// Oldest-first copy, built back to front so entries with equal
	// timestamps evict in insertion order.
	byAge := make([]Summary, 0, len(ix.Events))
	for i := len(ix.Events) - 1; i >= 0; i-- {
		byAge = append(byAge, ix.Events[i])
	}
	sort.SliceStable(byAge, func(i, j int) bool {
		return byAge[i].Timestamp.Before(byAge[j].Timestamp)
	})

	overflow := len(ix.Events) - max
	victims := make(map[id.ID]struct{}, overflow)
	evicted := make([]id.ID, 0, overflow)
	for _, s := range byAge[:overflow] {
		victims[s.ID] = struct{}{}
		evicted = append(evicted, s.ID)
	}

	kept := ix.Events[:0:0]
	for _, s := range ix.Events {
		if _, out := victims[s.ID]; !out {
			kept = append(kept, s)
		}
	}

	ix.Events = kept
	ix.Recount()
	return evicted
}

// Recount recomputes TotalEvents and PendingCount from the entries that
// remain. Batch removals call this instead of patching counters.
func (ix *Index) Recount() {
	ix.TotalEvents = len(ix.Events)

	pending := 0
	for i := range ix.Events {
		if ix.Events[i].Status == StatusPending {
			pending++
		}
	}
	ix.PendingCount = pending

	ix.LastUpdated = time.Now().UTC()
}

// ListOpts configures filtering for event listing.
type ListOpts struct {
	// Limit caps the number of results. 0 means no cap.
	Limit int

	// PendingOnly keeps only events still in the pending state.
	PendingOnly bool
}
