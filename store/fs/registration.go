package fs

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
)

// SaveRegistration writes the registration file, then upserts its summary
// in the global index. Replacement keeps the entry's position; new entries
// go to the front.
func (s *Store) SaveRegistration(_ context.Context, reg *registration.Registration) error {
	if !reg.ID.Safe() {
		return fmt.Errorf("fs: save registration: unsafe id %q", reg.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeJSON(s.registrationPath(reg.ID.String()), reg); err != nil {
		return err
	}

	ix := s.loadGlobalIndex()
	ix.Upsert(reg.Summarize())
	return s.writeJSON(s.globalIndexPath(), ix)
}

// LoadRegistration returns a registration by ID. Missing and unreadable
// files both report not-found.
func (s *Store) LoadRegistration(_ context.Context, regID id.ID) (*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadRegistration(regID)
}

func (s *Store) loadRegistration(regID id.ID) (*registration.Registration, error) {
	if !regID.Safe() {
		return nil, inbox.ErrRegistrationNotFound
	}

	var reg registration.Registration
	err := s.readJSON(s.registrationPath(regID.String()), &reg)
	switch {
	case err == nil:
		return &reg, nil
	case absent(err):
		return nil, inbox.ErrRegistrationNotFound
	default:
		return nil, fmt.Errorf("fs: load registration: %w", err)
	}
}

// DeleteRegistration removes the registration file and its index entry,
// which together are the authoritative deletion signal, then best-effort
// removes the webhook's event and delivery subtrees. Cascade failures are
// logged, never returned.
func (s *Store) DeleteRegistration(_ context.Context, regID id.ID) error {
	if !regID.Safe() {
		return inbox.ErrRegistrationNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existed := false

	err := os.Remove(s.registrationPath(regID.String()))
	switch {
	case err == nil:
		existed = true
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("fs: delete registration: %w", err)
	}

	ix := s.loadGlobalIndex()
	if ix.Remove(regID) {
		existed = true
		if err := s.writeJSON(s.globalIndexPath(), ix); err != nil {
			return err
		}
	}

	if !existed {
		return inbox.ErrRegistrationNotFound
	}

	for _, dir := range []string{
		s.eventsDir(regID.String()),
		s.deliveriesDir(regID.String()),
	} {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("cascade removal failed", "webhook_id", regID, "dir", dir, "error", err)
		}
	}

	return nil
}

// ListRegistrations scans the registrations directory, skipping files that
// no longer parse, and returns the result newest-first. The directory, not
// the global index, is authoritative here.
func (s *Store) ListRegistrations(_ context.Context, opts registration.ListOpts) ([]*registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.registrationsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []*registration.Registration{}, nil
		}
		return nil, fmt.Errorf("fs: list registrations: %w", err)
	}

	result := make([]*registration.Registration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		regID, err := id.Parse(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}

		reg, err := s.loadRegistration(regID)
		if err != nil {
			continue
		}
		if opts.Status != nil && reg.Status != *opts.Status {
			continue
		}
		result = append(result, reg)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

// GlobalIndex returns the current global registration index.
func (s *Store) GlobalIndex(_ context.Context) (*registration.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadGlobalIndex(), nil
}

// loadGlobalIndex reads the global index, falling back to an empty one when
// the file is missing or unreadable. The index is a rebuildable projection,
// so absence is a valid starting state, not an error.
func (s *Store) loadGlobalIndex() *registration.Index {
	var ix registration.Index
	if err := s.readJSON(s.globalIndexPath(), &ix); err != nil {
		return &registration.Index{Webhooks: []registration.Summary{}}
	}
	if ix.Webhooks == nil {
		ix.Webhooks = []registration.Summary{}
	}
	return &ix
}
