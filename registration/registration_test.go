package registration

import (
	"testing"
	"time"

	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/internal/entity"
)

func TestAccepts(t *testing.T) {
	tests := []struct {
		name      string
		filter    []string
		eventType string
		want      bool
	}{
		// Empty filter admits everything.
		{"empty", nil, "message.received", true},
		{"empty_slice", []string{}, "anything", true},

		// Exact membership.
		{"match", []string{"issues.opened", "issues.closed"}, "issues.opened", true},
		{"no_match", []string{"issues.opened"}, "issues.closed", false},

		// Exact means exact: no pattern semantics.
		{"no_glob", []string{"issues.*"}, "issues.opened", false},
		{"no_prefix", []string{"issues"}, "issues.opened", false},
		{"case_sensitive", []string{"Issues.Opened"}, "issues.opened", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Registration{EventsFilter: tt.filter}
			if got := r.Accepts(tt.eventType); got != tt.want {
				t.Fatalf("Accepts(%q) with filter %v = %v, want %v", tt.eventType, tt.filter, got, tt.want)
			}
		})
	}
}

func TestIndexUpsert(t *testing.T) {
	var ix Index

	a := Summary{ID: id.NewWebhookID(), Name: "A"}
	b := Summary{ID: id.NewWebhookID(), Name: "B"}
	ix.Upsert(a)
	ix.Upsert(b)

	if len(ix.Webhooks) != 2 || ix.Webhooks[0].ID != b.ID || ix.Webhooks[1].ID != a.ID {
		t.Fatalf("expected new entries at front, got %+v", ix.Webhooks)
	}

	// Replacement keeps position, takes new fields.
	a.Name = "A renamed"
	a.DeliveryCount = 7
	ix.Upsert(a)
	if len(ix.Webhooks) != 2 || ix.Webhooks[1].Name != "A renamed" || ix.Webhooks[1].DeliveryCount != 7 {
		t.Fatalf("expected in-place replacement, got %+v", ix.Webhooks)
	}
	if ix.Webhooks[0].ID != b.ID {
		t.Fatal("replacement moved other entries")
	}
}

func TestIndexRemove(t *testing.T) {
	var ix Index

	a := Summary{ID: id.NewWebhookID(), Name: "A"}
	b := Summary{ID: id.NewWebhookID(), Name: "B"}
	ix.Upsert(a)
	ix.Upsert(b)

	if !ix.Remove(a.ID) {
		t.Fatal("expected removal to report existed")
	}
	if len(ix.Webhooks) != 1 || ix.Webhooks[0].ID != b.ID {
		t.Fatalf("expected only B left, got %+v", ix.Webhooks)
	}
	if ix.Remove(a.ID) {
		t.Fatal("expected second removal to report missing")
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now().UTC()
	r := Registration{
		Entity:        entity.Entity{CreatedAt: now, UpdatedAt: now},
		ID:            id.NewWebhookID(),
		Name:          "Gmail",
		Source:        "gmail",
		Status:        StatusActive,
		DeliveryCount: 3,
	}

	s := r.Summarize()
	if s.ID != r.ID || s.Name != "Gmail" || s.Source != "gmail" {
		t.Fatalf("summary mismatch: %+v", s)
	}
	if s.Status != StatusActive || s.DeliveryCount != 3 || !s.CreatedAt.Equal(now) {
		t.Fatalf("summary mismatch: %+v", s)
	}
	if s.LastDeliveryAt != nil {
		t.Fatalf("expected nil lastDeliveryAt, got %v", s.LastDeliveryAt)
	}
}
