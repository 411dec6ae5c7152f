package inbox_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/registration"
	"github.com/xraph/inbox/store/fs"
)

func TestInjectionOrderedAcrossWebhooks(t *testing.T) {
	ib, s := setup(t, inbox.WithInjectionLimit(3))
	a := createWebhook(t, ib, "Gmail", "gmail")
	b := createWebhook(t, ib, "GitHub", "github")

	// Interleaved timestamps across the two webhooks. All fresh enough to
	// plant directly; ordering is what matters.
	base := time.Now().UTC().Add(-time.Hour)
	e1 := plantEvent(t, s, a.ID, base.Add(1*time.Minute), event.StatusPending)
	e2 := plantEvent(t, s, b.ID, base.Add(2*time.Minute), event.StatusPending)
	e3 := plantEvent(t, s, a.ID, base.Add(3*time.Minute), event.StatusPending)
	plantEvent(t, s, b.ID, base.Add(4*time.Minute), event.StatusPending)

	batch, err := ib.GetPendingForInjection(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Fatalf("batch size %d, want cap 3", len(batch))
	}

	want := []string{e1.ID.String(), e2.ID.String(), e3.ID.String()}
	for i, evt := range batch {
		if evt.ID.String() != want[i] {
			t.Fatalf("batch[%d] = %s, want %s (ascending by timestamp)", i, evt.ID, want[i])
		}
	}
}

func TestInjectionSkipsInactiveWebhooks(t *testing.T) {
	ib, s := setup(t)
	active := createWebhook(t, ib, "Gmail", "gmail")
	paused := createWebhook(t, ib, "GitHub", "github")
	if _, err := ib.Registrations().SetStatus(ctx(), paused.ID, registration.StatusPaused); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	keep := plantEvent(t, s, active.ID, now, event.StatusPending)
	plantEvent(t, s, paused.ID, now, event.StatusPending)

	batch, err := ib.GetPendingForInjection(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 || batch[0].ID != keep.ID {
		t.Fatalf("batch should hold only the active webhook's event, got %v", batch)
	}
}

func TestInjectionDisabled(t *testing.T) {
	cfg := inbox.DefaultConfig()
	cfg.Injection.Enabled = false
	ib, s := setup(t, inbox.WithConfig(cfg))
	reg := createWebhook(t, ib, "Gmail", "gmail")

	plantEvent(t, s, reg.ID, time.Now().UTC(), event.StatusPending)

	batch, err := ib.GetPendingForInjection(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 0 {
		t.Fatalf("disabled injection returned %d events", len(batch))
	}

	// The event stays pending for when injection is re-enabled.
	events, err := ib.ListEvents(ctx(), reg.ID, event.ListOpts{PendingOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("pending queue drained while injection disabled")
	}
}

func TestMarkInjectedStampsTime(t *testing.T) {
	ib, s := setup(t)
	reg := createWebhook(t, ib, "Gmail", "gmail")
	evt := plantEvent(t, s, reg.ID, time.Now().UTC(), event.StatusPending)

	before := time.Now().UTC()
	if err := ib.MarkInjected(ctx(), []inbox.EventRef{{WebhookID: reg.ID, EventID: evt.ID}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadEvent(ctx(), reg.ID, evt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != event.StatusInjected {
		t.Fatalf("status %s, want injected", got.Status)
	}
	if got.InjectedAt == nil || got.InjectedAt.Before(before.Add(-time.Second)) {
		t.Fatalf("injectedAt %v not stamped with the current time", got.InjectedAt)
	}
}

func TestMarkInjectedReportsMisses(t *testing.T) {
	ib, s := setup(t)
	reg := createWebhook(t, ib, "Gmail", "gmail")
	evt := plantEvent(t, s, reg.ID, time.Now().UTC(), event.StatusPending)

	refs := []inbox.EventRef{
		{WebhookID: reg.ID, EventID: evt.ID},
		{WebhookID: reg.ID, EventID: "evt_000000000000"},
	}
	err := ib.MarkInjected(ctx(), refs)
	if err == nil {
		t.Fatal("expected an error naming the failed reference")
	}

	// The resolvable reference still transitioned.
	got, err2 := s.LoadEvent(ctx(), reg.ID, evt.ID)
	if err2 != nil {
		t.Fatal(err2)
	}
	if got.Status != event.StatusInjected {
		t.Fatalf("status %s, want injected despite sibling failure", got.Status)
	}
}

func TestDigestContainsContract(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	events := []*event.Event{
		{
			ID:        "evt_abc123def456",
			WebhookID: "whk_abc123def456",
			Source:    "gmail",
			EventType: "message.received",
			Payload:   []byte(`{"from":"alice@example.com"}`),
			Timestamp: ts,
			Status:    event.StatusPending,
		},
		{
			ID:        "evt_def456abc123",
			WebhookID: "whk_abc123def456",
			Source:    "github",
			EventType: "issue.opened",
			Payload:   []byte(`{"issue":7}`),
			Timestamp: ts.Add(time.Minute),
			Status:    event.StatusPending,
		},
	}

	digest := inbox.Digest(events)

	// One block per event: source, type, receipt time, full payload, id.
	for _, want := range []string{
		"gmail", "message.received", "2025-06-01T12:30:00Z", `{"from":"alice@example.com"}`, "evt_abc123def456",
		"github", "issue.opened", `{"issue":7}`, "evt_def456abc123",
	} {
		if !strings.Contains(digest, want) {
			t.Fatalf("digest missing %q:\n%s", want, digest)
		}
	}

	if inbox.Digest(nil) != "" {
		t.Fatal("empty batch should render an empty digest")
	}
}

func TestRunCleanup(t *testing.T) {
	ib, s := setup(t, inbox.WithRetention(1000, 30))
	reg := createWebhook(t, ib, "Gmail", "gmail")

	// Five events past the age cutoff, one recent.
	old := time.Now().UTC().AddDate(0, 0, -40)
	for i := 0; i < 5; i++ {
		plantEvent(t, s, reg.ID, old.Add(time.Duration(i)*time.Minute), event.StatusPending)
	}
	recent := plantEvent(t, s, reg.ID, time.Now().UTC(), event.StatusPending)

	res := ib.RunCleanup(ctx())
	if res.Removed != 5 {
		t.Fatalf("removed %d, want 5", res.Removed)
	}
	if res.Evicted != 0 {
		t.Fatalf("evicted %d, want 0", res.Evicted)
	}

	events, err := ib.ListEvents(ctx(), reg.ID, event.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != recent.ID {
		t.Fatalf("cleanup should leave only the recent event, got %v", events)
	}

	// A second sweep has nothing left to do.
	res = ib.RunCleanup(ctx())
	if res.Removed != 0 || res.Evicted != 0 {
		t.Fatalf("second sweep removed %d evicted %d, want 0/0", res.Removed, res.Evicted)
	}
}

func TestRunCleanupEnforcesCap(t *testing.T) {
	ib, s := setup(t, inbox.WithRetention(2, 0))
	reg := createWebhook(t, ib, "Gmail", "gmail")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		plantEvent(t, s, reg.ID, base.Add(time.Duration(i)*time.Minute), event.StatusPending)
	}

	res := ib.RunCleanup(ctx())
	if res.Evicted != 3 {
		t.Fatalf("evicted %d, want 3", res.Evicted)
	}

	ix, err := s.EventIndex(ctx(), reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ix.TotalEvents != 2 {
		t.Fatalf("totalEvents %d, want 2", ix.TotalEvents)
	}
	if ix.PendingCount != 2 {
		t.Fatalf("pendingCount %d, want 2", ix.PendingCount)
	}
}

// TestWatcherNotifiesSubscribers runs the full loop against the filesystem
// store: a received event lands as a file, the watcher spots it, and the
// subscription channel announces it.
func TestWatcherNotifiesSubscribers(t *testing.T) {
	st := fs.New(t.TempDir())
	if err := st.Migrate(ctx()); err != nil {
		t.Fatal(err)
	}

	ib, err := inbox.New(inbox.WithStore(st), inbox.WithCleanupInterval(0))
	if err != nil {
		t.Fatal(err)
	}
	if err := ib.Start(ctx()); err != nil {
		t.Fatal(err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ib.Stop(stopCtx)
	}()

	notifications, unsubscribe := ib.Subscribe()
	defer unsubscribe()

	// Give the watcher time to establish its root watch.
	time.Sleep(300 * time.Millisecond)

	reg := createWebhook(t, ib, "Gmail", "gmail")
	res := ib.Receive(ctx(), signedInput(reg, "message.received", []byte(`{"n":1}`)))
	if !res.Success {
		t.Fatalf("receive failed: %s", res.Message)
	}

	select {
	case n := <-notifications:
		if n.WebhookID != reg.ID {
			t.Fatalf("notification for webhook %s, want %s", n.WebhookID, reg.ID)
		}
		if n.EventID != res.EventID {
			t.Fatalf("notification for event %s, want %s", n.EventID, res.EventID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification for the received event")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	ib, _ := setup(t, inbox.WithCleanupInterval(10*time.Millisecond))

	if err := ib.Start(ctx()); err != nil {
		t.Fatal(err)
	}
	// Second start is a no-op.
	if err := ib.Start(ctx()); err != nil {
		t.Fatal(err)
	}

	// Let the janitor tick a few times with nothing to do.
	time.Sleep(50 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ib.Stop(stopCtx)
	// Second stop is a no-op.
	ib.Stop(stopCtx)

	// The inbox can start again after stopping.
	if err := ib.Start(ctx()); err != nil {
		t.Fatal(err)
	}
	ib.Stop(stopCtx)
}
