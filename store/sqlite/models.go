package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/inbox/delivery"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/internal/entity"
	"github.com/xraph/inbox/registration"
)

// --- Registration models ---

type registrationModel struct {
	grove.BaseModel `grove:"table:inbox_registrations"`

	ID             string     `grove:"id,pk"`
	Name           string     `grove:"name"`
	Source         string     `grove:"source"`
	Description    string     `grove:"description"`
	Secret         string     `grove:"secret"`
	EventsFilter   string     `grove:"events_filter"` // JSON array
	Status         string     `grove:"status"`
	DeliveryCount  int        `grove:"delivery_count"`
	LastDeliveryAt *time.Time `grove:"last_delivery_at"`
	CreatedAt      time.Time  `grove:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"`
}

func toRegistrationModel(reg *registration.Registration) *registrationModel {
	filter, _ := json.Marshal(reg.EventsFilter) //nolint:errcheck // best-effort

	return &registrationModel{
		ID:             reg.ID.String(),
		Name:           reg.Name,
		Source:         reg.Source,
		Description:    reg.Description,
		Secret:         reg.Secret,
		EventsFilter:   string(filter),
		Status:         string(reg.Status),
		DeliveryCount:  reg.DeliveryCount,
		LastDeliveryAt: reg.LastDeliveryAt,
		CreatedAt:      reg.CreatedAt,
		UpdatedAt:      reg.UpdatedAt,
	}
}

func fromRegistrationModel(m *registrationModel) (*registration.Registration, error) {
	regID, err := id.ParseWebhookID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.ID, err)
	}

	var filter []string
	if m.EventsFilter != "" {
		_ = json.Unmarshal([]byte(m.EventsFilter), &filter) //nolint:errcheck // best-effort
	}

	return &registration.Registration{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             regID,
		Name:           m.Name,
		Source:         m.Source,
		Description:    m.Description,
		Secret:         m.Secret,
		EventsFilter:   filter,
		Status:         registration.Status(m.Status),
		DeliveryCount:  m.DeliveryCount,
		LastDeliveryAt: m.LastDeliveryAt,
	}, nil
}

// --- Event models ---

type eventModel struct {
	grove.BaseModel `grove:"table:inbox_events"`

	ID         string     `grove:"id,pk"`
	WebhookID  string     `grove:"webhook_id"`
	Source     string     `grove:"source"`
	EventType  string     `grove:"event_type"`
	Payload    string     `grove:"payload"` // JSON text
	Timestamp  time.Time  `grove:"timestamp"`
	Signature  string     `grove:"signature"`
	Status     string     `grove:"status"`
	InjectedAt *time.Time `grove:"injected_at"`
	CreatedAt  time.Time  `grove:"created_at"`
	UpdatedAt  time.Time  `grove:"updated_at"`
}

func toEventModel(evt *event.Event) *eventModel {
	return &eventModel{
		ID:         evt.ID.String(),
		WebhookID:  evt.WebhookID.String(),
		Source:     evt.Source,
		EventType:  evt.EventType,
		Payload:    string(evt.Payload),
		Timestamp:  evt.Timestamp,
		Signature:  evt.Signature,
		Status:     string(evt.Status),
		InjectedAt: evt.InjectedAt,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse event ID %q: %w", m.ID, err)
	}
	webhookID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}

	var payload json.RawMessage
	if m.Payload != "" {
		payload = json.RawMessage(m.Payload)
	}

	return &event.Event{
		ID:         evtID,
		WebhookID:  webhookID,
		Source:     m.Source,
		EventType:  m.EventType,
		Payload:    payload,
		Timestamp:  m.Timestamp,
		Signature:  m.Signature,
		Status:     event.Status(m.Status),
		InjectedAt: m.InjectedAt,
	}, nil
}

// --- Delivery models ---

type deliveryModel struct {
	grove.BaseModel `grove:"table:inbox_deliveries"`

	ID         string    `grove:"id,pk"`
	WebhookID  string    `grove:"webhook_id"`
	EventID    string    `grove:"event_id"`
	ReceivedAt time.Time `grove:"received_at"`
	Status     string    `grove:"status"`
	Error      string    `grove:"error"`
	HTTPStatus int       `grove:"http_status"`
	RemoteIP   string    `grove:"remote_ip"`
}

func toDeliveryModel(d *delivery.Delivery) *deliveryModel {
	return &deliveryModel{
		ID:         d.ID.String(),
		WebhookID:  d.WebhookID.String(),
		EventID:    d.EventID.String(),
		ReceivedAt: d.ReceivedAt,
		Status:     string(d.Status),
		Error:      d.Error,
		HTTPStatus: d.HTTPStatus,
		RemoteIP:   d.RemoteIP,
	}
}

func fromDeliveryModel(m *deliveryModel) (*delivery.Delivery, error) {
	delID, err := id.ParseDeliveryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse delivery ID %q: %w", m.ID, err)
	}
	webhookID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}
	evtID, err := id.ParseEventID(m.EventID)
	if err != nil {
		return nil, fmt.Errorf("parse event ID %q: %w", m.EventID, err)
	}

	return &delivery.Delivery{
		ID:         delID,
		WebhookID:  webhookID,
		EventID:    evtID,
		ReceivedAt: m.ReceivedAt,
		Status:     delivery.Status(m.Status),
		Error:      m.Error,
		HTTPStatus: m.HTTPStatus,
		RemoteIP:   m.RemoteIP,
	}, nil
}
