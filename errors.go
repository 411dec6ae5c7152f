package inbox

import "errors"

// Sentinel errors returned by inbox operations.
var (
	// ErrNoStore is returned when an Inbox is created without a store.
	ErrNoStore = errors.New("inbox: store is required")

	// ErrRegistrationNotFound is returned when a webhook registration cannot
	// be found. Corrupt registration files read the same way.
	ErrRegistrationNotFound = errors.New("inbox: webhook registration not found")

	// ErrEventNotFound is returned when an event cannot be found. Corrupt
	// event files read the same way.
	ErrEventNotFound = errors.New("inbox: event not found")

	// ErrStoreClosed is returned when a store operation is attempted after
	// the store is closed.
	ErrStoreClosed = errors.New("inbox: store is closed")

	// ErrMigrationFailed is returned when a store cannot prepare its layout.
	ErrMigrationFailed = errors.New("inbox: migration failed")
)
