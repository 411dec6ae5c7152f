// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/delivery"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
	inboxstore "github.com/xraph/inbox/store"
)

// compile-time interface check.
var _ inboxstore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	registrations map[string]*registration.Registration // keyed by ID string
	globalIndex   registration.Index
	events        map[string]map[string]*event.Event // webhook ID -> event ID
	eventIndexes  map[string]*event.Index            // keyed by webhook ID string
	deliveries    map[string][]*delivery.Delivery    // keyed by webhook ID string

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		registrations: make(map[string]*registration.Registration),
		events:        make(map[string]map[string]*event.Event),
		eventIndexes:  make(map[string]*event.Index),
		deliveries:    make(map[string][]*delivery.Delivery),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return inbox.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// registration.Store
// ──────────────────────────────────────────────────

// SaveRegistration stores a copy of the registration and upserts its index
// entry. Copies keep later caller mutations from leaking into the store,
// matching the isolation a file round trip gives.
func (s *Store) SaveRegistration(_ context.Context, reg *registration.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registrations[reg.ID.String()] = copyRegistration(reg)
	s.globalIndex.Upsert(reg.Summarize())
	return nil
}

// LoadRegistration returns a registration by ID.
func (s *Store) LoadRegistration(_ context.Context, regID id.ID) (*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.registrations[regID.String()]
	if !ok {
		return nil, inbox.ErrRegistrationNotFound
	}
	return copyRegistration(reg), nil
}

// DeleteRegistration removes a registration, its index entry, and its
// events and deliveries.
func (s *Store) DeleteRegistration(_ context.Context, regID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := regID.String()
	_, existed := s.registrations[key]
	if s.globalIndex.Remove(regID) {
		existed = true
	}
	if !existed {
		return inbox.ErrRegistrationNotFound
	}

	delete(s.registrations, key)
	delete(s.events, key)
	delete(s.eventIndexes, key)
	delete(s.deliveries, key)
	return nil
}

// ListRegistrations returns registrations newest-first, optionally filtered.
func (s *Store) ListRegistrations(_ context.Context, opts registration.ListOpts) ([]*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*registration.Registration, 0, len(s.registrations))
	for _, reg := range s.registrations {
		if opts.Status != nil && reg.Status != *opts.Status {
			continue
		}
		result = append(result, copyRegistration(reg))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

// GlobalIndex returns a copy of the global registration index.
func (s *Store) GlobalIndex(_ context.Context) (*registration.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ix := registration.Index{
		Webhooks:    make([]registration.Summary, len(s.globalIndex.Webhooks)),
		LastUpdated: s.globalIndex.LastUpdated,
	}
	copy(ix.Webhooks, s.globalIndex.Webhooks)
	return &ix, nil
}

// ──────────────────────────────────────────────────
// event.Store
// ──────────────────────────────────────────────────

// SaveEvent stores a copy of the event and prepends its index entry.
func (s *Store) SaveEvent(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := evt.WebhookID.String()
	if s.events[key] == nil {
		s.events[key] = make(map[string]*event.Event)
	}
	s.events[key][evt.ID.String()] = copyEvent(evt)

	s.eventIndex(key).Prepend(evt.Summarize())
	return nil
}

// LoadEvent returns an event by ID.
func (s *Store) LoadEvent(_ context.Context, webhookID, eventID id.ID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evt, ok := s.events[webhookID.String()][eventID.String()]
	if !ok {
		return nil, inbox.ErrEventNotFound
	}
	return copyEvent(evt), nil
}

// UpdateEventStatus rewrites the event's status and its index entry.
func (s *Store) UpdateEventStatus(_ context.Context, webhookID, eventID id.ID, status event.Status, injectedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt, ok := s.events[webhookID.String()][eventID.String()]
	if !ok {
		return inbox.ErrEventNotFound
	}

	evt.Status = status
	if injectedAt != nil {
		at := *injectedAt
		evt.InjectedAt = &at
	}

	s.eventIndex(webhookID.String()).SetStatus(eventID, status)
	return nil
}

// ListEvents returns events in index order (most-recent-first).
func (s *Store) ListEvents(_ context.Context, webhookID id.ID, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ix, ok := s.eventIndexes[webhookID.String()]
	if !ok {
		return []*event.Event{}, nil
	}

	result := make([]*event.Event, 0, len(ix.Events))
	for i := range ix.Events {
		if opts.PendingOnly && ix.Events[i].Status != event.StatusPending {
			continue
		}

		evt, ok := s.events[webhookID.String()][ix.Events[i].ID.String()]
		if !ok {
			continue
		}
		result = append(result, copyEvent(evt))

		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

// EventIndex returns a copy of the webhook's event index.
func (s *Store) EventIndex(_ context.Context, webhookID id.ID) (*event.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.eventIndexes[webhookID.String()]
	if !ok {
		return &event.Index{Events: []event.Summary{}}, nil
	}

	ix := event.Index{
		Events:       make([]event.Summary, len(stored.Events)),
		LastUpdated:  stored.LastUpdated,
		TotalEvents:  stored.TotalEvents,
		PendingCount: stored.PendingCount,
	}
	copy(ix.Events, stored.Events)
	return &ix, nil
}

// CleanupEvents deletes events strictly older than maxAgeDays.
func (s *Store) CleanupEvents(_ context.Context, webhookID id.ID, maxAgeDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix, ok := s.eventIndexes[webhookID.String()]
	if !ok {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	removed := ix.PruneOlderThan(cutoff)
	for _, eventID := range removed {
		delete(s.events[webhookID.String()], eventID.String())
	}
	return len(removed), nil
}

// EnforceMaxEvents evicts the oldest events by timestamp down to max.
func (s *Store) EnforceMaxEvents(_ context.Context, webhookID id.ID, max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix, ok := s.eventIndexes[webhookID.String()]
	if !ok {
		return 0, nil
	}

	evicted := ix.EvictOverflow(max)
	for _, eventID := range evicted {
		delete(s.events[webhookID.String()], eventID.String())
	}
	return len(evicted), nil
}

// eventIndex returns the webhook's mutable index, creating it on first use.
func (s *Store) eventIndex(key string) *event.Index {
	ix, ok := s.eventIndexes[key]
	if !ok {
		ix = &event.Index{Events: []event.Summary{}}
		s.eventIndexes[key] = ix
	}
	return ix
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

// SaveDelivery stores a copy of the delivery record.
func (s *Store) SaveDelivery(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	key := d.WebhookID.String()
	s.deliveries[key] = append(s.deliveries[key], &cp)
	return nil
}

// ListDeliveries returns a webhook's deliveries newest-first.
func (s *Store) ListDeliveries(_ context.Context, webhookID id.ID, limit int) ([]*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.deliveries[webhookID.String()]
	result := make([]*delivery.Delivery, 0, len(stored))
	for _, d := range stored {
		cp := *d
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt.After(result[j].ReceivedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Copy helpers
// ──────────────────────────────────────────────────

// copyRegistration returns a copy deep enough that callers and the store
// never share mutable state.
func copyRegistration(reg *registration.Registration) *registration.Registration {
	cp := *reg
	if reg.EventsFilter != nil {
		cp.EventsFilter = append([]string(nil), reg.EventsFilter...)
	}
	if reg.LastDeliveryAt != nil {
		at := *reg.LastDeliveryAt
		cp.LastDeliveryAt = &at
	}
	return &cp
}

// copyEvent returns a copy deep enough that callers and the store never
// share mutable state.
func copyEvent(evt *event.Event) *event.Event {
	cp := *evt
	if evt.Payload != nil {
		cp.Payload = append([]byte(nil), evt.Payload...)
	}
	if evt.InjectedAt != nil {
		at := *evt.InjectedAt
		cp.InjectedAt = &at
	}
	return &cp
}
