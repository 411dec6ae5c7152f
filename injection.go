package inbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
)

// EventRef names one event within one webhook.
type EventRef struct {
	WebhookID id.ID `json:"webhookId"`
	EventID   id.ID `json:"eventId"`
}

// GetPendingForInjection selects the next batch of events to hand to a
// consumer: every pending event across every active registration, oldest
// first by event timestamp (fairness across webhooks, not per webhook),
// capped at Injection.MaxPerTurn. Returns nothing when injection or the
// inbox itself is disabled.
func (in *Inbox) GetPendingForInjection(ctx context.Context) ([]*event.Event, error) {
	if !in.config.Enabled || !in.config.Injection.Enabled {
		return nil, nil
	}

	active := registration.StatusActive
	regs, err := in.regSvc.List(ctx, registration.ListOpts{Status: &active})
	if err != nil {
		return nil, err
	}

	var pending []*event.Event
	for _, reg := range regs {
		evts, err := in.store.ListEvents(ctx, reg.ID, event.ListOpts{PendingOnly: true})
		if err != nil {
			in.logger.WarnContext(ctx, "pending scan failed for webhook",
				"webhook_id", reg.ID, "error", err)
			continue
		}
		pending = append(pending, evts...)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Timestamp.Before(pending[j].Timestamp)
	})

	if max := in.config.Injection.MaxPerTurn; max > 0 && len(pending) > max {
		pending = pending[:max]
	}

	return pending, nil
}

// MarkInjected transitions each referenced event to injected, stamping the
// current time. References that no longer resolve are logged and skipped;
// the rest still transition.
func (in *Inbox) MarkInjected(ctx context.Context, refs []EventRef) error {
	now := time.Now().UTC()

	var failed int
	for _, ref := range refs {
		err := in.store.UpdateEventStatus(ctx, ref.WebhookID, ref.EventID, event.StatusInjected, &now)
		if err != nil {
			in.logger.WarnContext(ctx, "mark injected failed",
				"webhook_id", ref.WebhookID, "event_id", ref.EventID, "error", err)
			failed++
			continue
		}
		if in.metrics != nil {
			in.metrics.InjectionsTotal.Inc()
		}
	}

	if failed > 0 {
		return fmt.Errorf("inbox: mark injected: %d of %d events failed", failed, len(refs))
	}
	return nil
}

// Refs returns the (webhookId, eventId) references for a batch, in order.
func Refs(events []*event.Event) []EventRef {
	refs := make([]EventRef, 0, len(events))
	for _, evt := range events {
		refs = append(refs, EventRef{WebhookID: evt.WebhookID, EventID: evt.ID})
	}
	return refs
}

// Digest renders a batch as human-readable text, one block per event:
// source, event type, receipt time, full JSON payload, and the event id for
// acknowledging later.
func Digest(events []*event.Event) string {
	if len(events) == 0 {
		return ""
	}

	var b strings.Builder
	for i, evt := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Webhook event from %s (%s), received %s:\n",
			evt.Source, evt.EventType, evt.Timestamp.Format(time.RFC3339))
		b.Write(evt.Payload)
		b.WriteString("\n")
		fmt.Fprintf(&b, "Event ID: %s\n", evt.ID)
	}
	return b.String()
}
