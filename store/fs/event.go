package fs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
)

// SaveEvent writes the event file, then prepends its summary to the
// webhook's index.
func (s *Store) SaveEvent(_ context.Context, evt *event.Event) error {
	if !evt.ID.Safe() || !evt.WebhookID.Safe() {
		return fmt.Errorf("fs: save event: unsafe id %q/%q", evt.WebhookID, evt.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	webhookID := evt.WebhookID.String()
	if err := s.writeJSON(s.eventPath(webhookID, evt.ID.String()), evt); err != nil {
		return err
	}

	ix := s.loadEventIndex(webhookID)
	ix.Prepend(evt.Summarize())
	return s.writeJSON(s.eventIndexPath(webhookID), ix)
}

// LoadEvent returns an event by ID. Missing and unreadable files both
// report not-found.
func (s *Store) LoadEvent(_ context.Context, webhookID, eventID id.ID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadEvent(webhookID, eventID)
}

func (s *Store) loadEvent(webhookID, eventID id.ID) (*event.Event, error) {
	if !webhookID.Safe() || !eventID.Safe() {
		return nil, inbox.ErrEventNotFound
	}

	var evt event.Event
	err := s.readJSON(s.eventPath(webhookID.String(), eventID.String()), &evt)
	switch {
	case err == nil:
		return &evt, nil
	case absent(err):
		return nil, inbox.ErrEventNotFound
	default:
		return nil, fmt.Errorf("fs: load event: %w", err)
	}
}

// UpdateEventStatus rewrites the event file with the new status, then
// patches the index entry in place. The index write is skipped when the
// entry has gone missing; the index is a projection and the next save
// rebuilds it.
func (s *Store) UpdateEventStatus(_ context.Context, webhookID, eventID id.ID, status event.Status, injectedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt, err := s.loadEvent(webhookID, eventID)
	if err != nil {
		return err
	}

	evt.Status = status
	if injectedAt != nil {
		evt.InjectedAt = injectedAt
	}
	if err := s.writeJSON(s.eventPath(webhookID.String(), eventID.String()), evt); err != nil {
		return err
	}

	ix := s.loadEventIndex(webhookID.String())
	if !ix.SetStatus(eventID, status) {
		s.logger.Debug("event missing from index during status update", "webhook_id", webhookID, "event_id", eventID)
		return nil
	}
	return s.writeJSON(s.eventIndexPath(webhookID.String()), ix)
}

// ListEvents returns events in index order (most-recent-first). Entries
// whose event file no longer loads are skipped.
func (s *Store) ListEvents(_ context.Context, webhookID id.ID, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !webhookID.Safe() {
		return []*event.Event{}, nil
	}

	ix := s.loadEventIndex(webhookID.String())

	result := make([]*event.Event, 0, len(ix.Events))
	for i := range ix.Events {
		if opts.PendingOnly && ix.Events[i].Status != event.StatusPending {
			continue
		}

		evt, err := s.loadEvent(webhookID, ix.Events[i].ID)
		if err != nil {
			continue
		}
		result = append(result, evt)

		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

// EventIndex returns the webhook's current event index.
func (s *Store) EventIndex(_ context.Context, webhookID id.ID) (*event.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !webhookID.Safe() {
		return &event.Index{Events: []event.Summary{}}, nil
	}
	return s.loadEventIndex(webhookID.String()), nil
}

// CleanupEvents deletes events whose timestamp is strictly older than
// maxAgeDays, then rewrites the index from what remains. When nothing is
// old enough the index is left untouched, so repeated runs are no-ops.
func (s *Store) CleanupEvents(_ context.Context, webhookID id.ID, maxAgeDays int) (int, error) {
	if !webhookID.Safe() {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)

	ix := s.loadEventIndex(webhookID.String())
	removed := ix.PruneOlderThan(cutoff)
	if len(removed) == 0 {
		return 0, nil
	}

	s.removeEventFiles(webhookID, removed, "cleanup")
	if err := s.writeJSON(s.eventIndexPath(webhookID.String()), ix); err != nil {
		return len(removed), err
	}
	return len(removed), nil
}

// EnforceMaxEvents evicts the oldest events by event timestamp until at
// most max remain. Surviving entries keep their index order.
func (s *Store) EnforceMaxEvents(_ context.Context, webhookID id.ID, max int) (int, error) {
	if !webhookID.Safe() {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ix := s.loadEventIndex(webhookID.String())
	evicted := ix.EvictOverflow(max)
	if len(evicted) == 0 {
		return 0, nil
	}

	s.removeEventFiles(webhookID, evicted, "eviction")
	if err := s.writeJSON(s.eventIndexPath(webhookID.String()), ix); err != nil {
		return len(evicted), err
	}
	return len(evicted), nil
}

// removeEventFiles best-effort deletes event files. Failures are logged,
// never returned; the rewritten index no longer references them.
func (s *Store) removeEventFiles(webhookID id.ID, eventIDs []id.ID, reason string) {
	for _, eventID := range eventIDs {
		if err := os.Remove(s.eventPath(webhookID.String(), eventID.String())); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("event removal failed", "reason", reason, "webhook_id", webhookID, "event_id", eventID, "error", err)
		}
	}
}

// loadEventIndex reads a per-webhook index, falling back to an empty one
// when the file is missing or unreadable.
func (s *Store) loadEventIndex(webhookID string) *event.Index {
	var ix event.Index
	if err := s.readJSON(s.eventIndexPath(webhookID), &ix); err != nil {
		return &event.Index{Events: []event.Summary{}}
	}
	if ix.Events == nil {
		ix.Events = []event.Summary{}
	}
	return &ix
}
