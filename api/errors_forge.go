package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/registration"
)

// mapError converts inbox sentinel errors to Forge HTTP errors.
func mapError(err error) error {
	var vErr *registration.ValidationError

	switch {
	case errors.Is(err, inbox.ErrRegistrationNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, inbox.ErrEventNotFound):
		return forge.NotFound(err.Error())
	case errors.As(err, &vErr):
		return forge.BadRequest(err.Error())
	case errors.Is(err, inbox.ErrNoStore):
		return forge.InternalError(err)
	case errors.Is(err, inbox.ErrStoreClosed):
		return forge.InternalError(err)
	case errors.Is(err, inbox.ErrMigrationFailed):
		return forge.InternalError(err)
	default:
		return forge.InternalError(err)
	}
}
