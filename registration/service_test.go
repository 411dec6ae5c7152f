package registration_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
	"github.com/xraph/inbox/store/memory"
)

func ctx() context.Context { return context.Background() }

func newService() *registration.Service {
	s := memory.New()
	return registration.NewService(s, nil)
}

func TestServiceCreate(t *testing.T) {
	svc := newService()

	reg, err := svc.Create(ctx(), registration.Input{
		Name:   "Gmail",
		Source: "gmail",
	})
	if err != nil {
		t.Fatal(err)
	}

	if reg.ID.Prefix() != id.PrefixWebhook {
		t.Fatalf("expected whk ID, got %q", reg.ID)
	}
	if !strings.HasPrefix(reg.Secret, "whsec_") {
		t.Fatalf("expected auto-generated secret, got %q", reg.Secret)
	}
	if reg.Status != registration.StatusActive {
		t.Fatalf("expected active by default, got %q", reg.Status)
	}
	if reg.EventsFilter == nil || len(reg.EventsFilter) != 0 {
		t.Fatalf("expected empty non-nil filter, got %#v", reg.EventsFilter)
	}
	if reg.DeliveryCount != 0 || reg.LastDeliveryAt != nil {
		t.Fatal("expected zeroed delivery counters")
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc := newService()

	// Missing name
	_, err := svc.Create(ctx(), registration.Input{Source: "gmail"})
	var verr *registration.ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Fatalf("expected name validation error, got %v", err)
	}

	// Missing source
	_, err = svc.Create(ctx(), registration.Input{Name: "Gmail"})
	if !errors.As(err, &verr) || verr.Field != "source" {
		t.Fatalf("expected source validation error, got %v", err)
	}
}

func TestServiceGetUpdateDelete(t *testing.T) {
	svc := newService()

	reg, _ := svc.Create(ctx(), registration.Input{
		Name:         "GitHub",
		Source:       "github",
		EventsFilter: []string{"issues.opened"},
	})

	// Get
	got, err := svc.Get(ctx(), reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "GitHub" {
		t.Fatalf("got name %q", got.Name)
	}

	// Update
	name := "GitHub Issues"
	desc := "Issue tracker hooks"
	filter := []string{"issues.opened", "issues.closed"}
	updated, err := svc.Update(ctx(), reg.ID, registration.UpdateInput{
		Name:         &name,
		Description:  &desc,
		EventsFilter: &filter,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != name || updated.Description != desc || len(updated.EventsFilter) != 2 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.UpdatedAt.Before(reg.UpdatedAt) {
		t.Fatal("expected updatedAt to advance")
	}

	// Empty name rejected
	empty := ""
	if _, err := svc.Update(ctx(), reg.ID, registration.UpdateInput{Name: &empty}); err == nil {
		t.Fatal("expected error for empty name")
	}

	// Delete
	if err := svc.Delete(ctx(), reg.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx(), reg.ID); !errors.Is(err, inbox.ErrRegistrationNotFound) {
		t.Fatalf("expected deleted, got %v", err)
	}
}

func TestServiceSetStatus(t *testing.T) {
	svc := newService()

	reg, _ := svc.Create(ctx(), registration.Input{Name: "Gmail", Source: "gmail"})

	paused, err := svc.SetStatus(ctx(), reg.ID, registration.StatusPaused)
	if err != nil {
		t.Fatal(err)
	}
	if paused.Status != registration.StatusPaused {
		t.Fatalf("got status %q", paused.Status)
	}

	resumed, err := svc.SetStatus(ctx(), reg.ID, registration.StatusActive)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Status != registration.StatusActive {
		t.Fatalf("got status %q", resumed.Status)
	}

	if _, err := svc.SetStatus(ctx(), reg.ID, registration.Status("bogus")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestServiceList(t *testing.T) {
	svc := newService()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.Create(ctx(), registration.Input{Name: name, Source: "gmail"}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := svc.List(ctx(), registration.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3, got %d", len(list))
	}

	if _, err := svc.SetStatus(ctx(), list[0].ID, registration.StatusPaused); err != nil {
		t.Fatal(err)
	}

	active := registration.StatusActive
	list, _ = svc.List(ctx(), registration.ListOpts{Status: &active})
	if len(list) != 2 {
		t.Fatalf("expected 2 active, got %d", len(list))
	}
}

func TestServiceRotateSecret(t *testing.T) {
	svc := newService()

	reg, _ := svc.Create(ctx(), registration.Input{Name: "Gmail", Source: "gmail"})

	oldSecret := reg.Secret
	newSecret, err := svc.RotateSecret(ctx(), reg.ID)
	if err != nil {
		t.Fatal(err)
	}

	if newSecret == oldSecret {
		t.Fatal("expected different secret after rotation")
	}
	if !strings.HasPrefix(newSecret, "whsec_") {
		t.Fatalf("expected whsec_ prefix, got %q", newSecret)
	}

	got, _ := svc.Get(ctx(), reg.ID)
	if got.Secret != newSecret {
		t.Fatal("secret not persisted after rotation")
	}
}

func TestServiceRotateSecretNotFound(t *testing.T) {
	svc := newService()

	_, err := svc.RotateSecret(ctx(), id.NewWebhookID())
	if !errors.Is(err, inbox.ErrRegistrationNotFound) {
		t.Fatalf("expected ErrRegistrationNotFound, got %v", err)
	}
}
