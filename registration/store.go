package registration

import (
	"context"

	"github.com/xraph/inbox/id"
)

// Store defines the persistence contract for webhook registrations.
type Store interface {
	// SaveRegistration persists a registration and upserts its summary in
	// the global index.
	SaveRegistration(ctx context.Context, reg *Registration) error

	// LoadRegistration returns a registration by ID. A missing file and an
	// unreadable file both report not-found: corruption reads as absence.
	LoadRegistration(ctx context.Context, regID id.ID) (*Registration, error)

	// DeleteRegistration removes the registration and its index entry (the
	// authoritative deletion signal), then best-effort removes its event and
	// delivery subtrees. Cascade failure never flips the result. Reports
	// not-found when nothing existed.
	DeleteRegistration(ctx context.Context, regID id.ID) error

	// ListRegistrations returns registrations, optionally filtered.
	ListRegistrations(ctx context.Context, opts ListOpts) ([]*Registration, error)

	// GlobalIndex returns the current global registration index.
	GlobalIndex(ctx context.Context) (*Index, error)
}
