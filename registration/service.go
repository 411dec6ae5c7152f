package registration

import (
	"context"
	"log/slog"

	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/internal/entity"
	"github.com/xraph/inbox/signature"
)

// Service provides registration management operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new registration service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Create registers a new webhook endpoint with a generated ID and signing
// secret. The registration starts active with zeroed counters.
func (svc *Service) Create(ctx context.Context, in Input) (*Registration, error) {
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}

	if in.Source == "" {
		return nil, &ValidationError{Field: "source", Message: "required"}
	}

	filter := in.EventsFilter
	if filter == nil {
		filter = []string{}
	}

	reg := &Registration{
		Entity:       entity.New(),
		ID:           id.NewWebhookID(),
		Name:         in.Name,
		Source:       in.Source,
		Description:  in.Description,
		Secret:       signature.GenerateSecret(),
		EventsFilter: filter,
		Status:       StatusActive,
	}

	if err := svc.store.SaveRegistration(ctx, reg); err != nil {
		return nil, err
	}

	svc.logger.InfoContext(ctx, "webhook registered",
		"webhook_id", reg.ID, "source", reg.Source)

	return reg, nil
}

// Get returns a registration by ID.
func (svc *Service) Get(ctx context.Context, regID id.ID) (*Registration, error) {
	return svc.store.LoadRegistration(ctx, regID)
}

// Update merges the provided fields into an existing registration and bumps
// its updatedAt timestamp.
func (svc *Service) Update(ctx context.Context, regID id.ID, in UpdateInput) (*Registration, error) {
	reg, err := svc.store.LoadRegistration(ctx, regID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, &ValidationError{Field: "name", Message: "cannot be empty"}
		}
		reg.Name = *in.Name
	}
	if in.Source != nil {
		if *in.Source == "" {
			return nil, &ValidationError{Field: "source", Message: "cannot be empty"}
		}
		reg.Source = *in.Source
	}
	if in.Description != nil {
		reg.Description = *in.Description
	}
	if in.EventsFilter != nil {
		filter := *in.EventsFilter
		if filter == nil {
			filter = []string{}
		}
		reg.EventsFilter = filter
	}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			return nil, &ValidationError{Field: "status", Message: "unknown status"}
		}
		reg.Status = *in.Status
	}

	reg.Touch()

	if err := svc.store.SaveRegistration(ctx, reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// Delete removes a registration and cascades its events and deliveries.
func (svc *Service) Delete(ctx context.Context, regID id.ID) error {
	return svc.store.DeleteRegistration(ctx, regID)
}

// List returns registrations, optionally filtered.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Registration, error) {
	return svc.store.ListRegistrations(ctx, opts)
}

// SetStatus pauses or resumes a registration without removing it.
func (svc *Service) SetStatus(ctx context.Context, regID id.ID, status Status) (*Registration, error) {
	s := status
	return svc.Update(ctx, regID, UpdateInput{Status: &s})
}

// RotateSecret generates a new signing secret for a registration. The
// previous secret stops verifying immediately.
func (svc *Service) RotateSecret(ctx context.Context, regID id.ID) (string, error) {
	reg, err := svc.store.LoadRegistration(ctx, regID)
	if err != nil {
		return "", err
	}

	reg.Secret = signature.GenerateSecret()
	reg.Touch()

	if err := svc.store.SaveRegistration(ctx, reg); err != nil {
		return "", err
	}

	svc.logger.InfoContext(ctx, "webhook secret rotated", "webhook_id", regID)

	return reg.Secret, nil
}

func validStatus(s Status) bool {
	switch s {
	case StatusActive, StatusPaused, StatusDeleted:
		return true
	}
	return false
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "registration validation: " + e.Field + ": " + e.Message
}
