// Package store defines the composite Store interface for all inbox persistence.
//
// Each subsystem defines its own store interface next to its entity type,
// and the aggregate Store composes them all. Drivers live in subpackages
// (fs, memory, sqlite) and are chosen by the embedding application.
package store

import (
	"context"

	"github.com/xraph/inbox/delivery"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/registration"
)

// Store is the aggregate persistence interface.
type Store interface {
	registration.Store
	event.Store
	delivery.Store

	// Migrate prepares the backing layout (directory skeleton, schema).
	Migrate(ctx context.Context) error

	// Ping checks that the backing medium is reachable and writable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// EventsRooter is implemented by drivers whose events live in a watchable
// directory tree. The filesystem watcher attaches only when the configured
// store provides it.
type EventsRooter interface {
	EventsRoot() string
}
