package api

import (
	"github.com/xraph/inbox"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
)

// ---------------------------------------------------------------------------
// Registration requests
// ---------------------------------------------------------------------------

// CreateRegistrationForgeRequest binds the body for POST /registrations.
type CreateRegistrationForgeRequest struct {
	Name         string   `description:"Human-readable label (e.g. Gmail)"     json:"name"`
	Source       string   `description:"Sending system identifier (e.g. gmail)" json:"source"`
	Description  string   `description:"Optional description"                  json:"description,omitempty"`
	EventsFilter []string `description:"Accepted event types (empty: all)"     json:"eventsFilter,omitempty"`
}

// ListRegistrationsForgeRequest binds query parameters for GET /registrations.
type ListRegistrationsForgeRequest struct {
	Status string `description:"Filter by status (active, paused)" query:"status"`
	Limit  int    `description:"Result cap (0: no cap)"            query:"limit"`
}

// GetRegistrationForgeRequest binds the path for GET /registrations/:webhookId.
type GetRegistrationForgeRequest struct {
	WebhookID string `description:"Webhook identifier" path:"webhookId"`
}

// UpdateRegistrationForgeRequest binds path + body for PUT /registrations/:webhookId.
// Absent fields are left untouched.
type UpdateRegistrationForgeRequest struct {
	WebhookID    string    `description:"Webhook identifier"                path:"webhookId"`
	Name         *string   `description:"New label"                         json:"name,omitempty"`
	Source       *string   `description:"New source identifier"             json:"source,omitempty"`
	Description  *string   `description:"New description"                   json:"description,omitempty"`
	EventsFilter *[]string `description:"New filter (empty list: accept all)" json:"eventsFilter,omitempty"`
}

// DeleteRegistrationForgeRequest binds the path for DELETE /registrations/:webhookId.
type DeleteRegistrationForgeRequest struct {
	WebhookID string `description:"Webhook identifier" path:"webhookId"`
}

// RegistrationActionForgeRequest binds the path for pause/resume/rotate-secret/test.
type RegistrationActionForgeRequest struct {
	WebhookID string `description:"Webhook identifier" path:"webhookId"`
}

// ---------------------------------------------------------------------------
// Event requests
// ---------------------------------------------------------------------------

// ListEventsForgeRequest binds path + query for GET /registrations/:webhookId/events.
type ListEventsForgeRequest struct {
	WebhookID string `description:"Webhook identifier"           path:"webhookId"`
	Pending   string `description:"Only pending events (true)"   query:"pending"`
	Limit     int    `description:"Result cap (default 50)"      query:"limit"`
}

// GetEventForgeRequest binds the path for GET /registrations/:webhookId/events/:eventId.
type GetEventForgeRequest struct {
	WebhookID string `description:"Webhook identifier" path:"webhookId"`
	EventID   string `description:"Event identifier"   path:"eventId"`
}

// ---------------------------------------------------------------------------
// Injection requests
// ---------------------------------------------------------------------------

// PendingInjectionForgeRequest is empty; GET /injection/pending has no parameters.
type PendingInjectionForgeRequest struct{}

// AckInjectionForgeRequest binds the body for POST /injection/ack.
type AckInjectionForgeRequest struct {
	Events []inbox.EventRef `description:"References of handled events" json:"events"`
}

// ---------------------------------------------------------------------------
// Delivery requests
// ---------------------------------------------------------------------------

// ListDeliveriesForgeRequest binds path + query for GET /registrations/:webhookId/deliveries.
type ListDeliveriesForgeRequest struct {
	WebhookID string `description:"Webhook identifier"      path:"webhookId"`
	Limit     int    `description:"Result cap (default 50)" query:"limit"`
}

// ---------------------------------------------------------------------------
// Stats requests
// ---------------------------------------------------------------------------

// StatsForgeRequest is empty; GET /stats has no parameters.
type StatsForgeRequest struct{}

// CreateRegistrationForgeResponse is the response for POST /registrations.
// The secret appears here and on rotation, nowhere else.
type CreateRegistrationForgeResponse struct {
	WebhookID id.ID  `json:"webhookId"`
	Secret    string `json:"secret"`
	URL       string `json:"url"`
}

// SecretForgeResponse is the response for POST /registrations/:webhookId/rotate-secret.
type SecretForgeResponse struct {
	Secret string `json:"secret"`
}

// InjectionBatchForgeResponse is the response for GET /injection/pending.
type InjectionBatchForgeResponse struct {
	Events []*event.Event   `json:"events"`
	Refs   []inbox.EventRef `json:"refs"`
	Digest string           `json:"digest,omitempty"`
}
