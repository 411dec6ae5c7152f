package event

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xraph/inbox/id"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		// Short payloads pass through untruncated.
		{"short", `{"n":1}`, `{"n":1}`},
		{"exactly100", `{"d":"` + strings.Repeat("a", 92) + `"}`, `{"d":"` + strings.Repeat("a", 92) + `"}`},

		// One over the limit gets cut with a marker.
		{"over", `{"d":"` + strings.Repeat("a", 93) + `"}`, (`{"d":"` + strings.Repeat("a", 93) + `"}`)[:100] + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Payload: json.RawMessage(tt.payload)}
			if got := e.Preview(); got != tt.want {
				t.Fatalf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreviewRuneSafe(t *testing.T) {
	// 118 three-byte runes: well past 100 bytes, past 100 runes too.
	e := Event{Payload: json.RawMessage(`"` + strings.Repeat("€", 118) + `"`)}

	got := e.Preview()
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if utf8.RuneCountInString(got) != 103 {
		t.Fatalf("preview rune count %d, want 103", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("preview missing marker: %q", got)
	}

	// Many bytes but few runes: the character limit is what counts.
	e = Event{Payload: json.RawMessage(`"` + strings.Repeat("€", 60) + `"`)}
	if got := e.Preview(); got != string(e.Payload) {
		t.Fatalf("expected untruncated preview, got %q", got)
	}
}

func sum(ts time.Time, status Status) Summary {
	return Summary{ID: id.NewEventID(), Timestamp: ts, Status: status}
}

func TestIndexPrepend(t *testing.T) {
	now := time.Now().UTC()
	var ix Index

	a := sum(now.Add(-2*time.Minute), StatusPending)
	b := sum(now.Add(-time.Minute), StatusInjected)
	c := sum(now, StatusPending)
	ix.Prepend(a)
	ix.Prepend(b)
	ix.Prepend(c)

	if ix.Events[0].ID != c.ID || ix.Events[1].ID != b.ID || ix.Events[2].ID != a.ID {
		t.Fatalf("expected most-recent-first order, got %+v", ix.Events)
	}
	if ix.TotalEvents != 3 || ix.PendingCount != 2 {
		t.Fatalf("counters totalEvents=%d pendingCount=%d", ix.TotalEvents, ix.PendingCount)
	}
	if ix.LastUpdated.IsZero() {
		t.Fatal("lastUpdated not set")
	}
}

func TestIndexSetStatus(t *testing.T) {
	now := time.Now().UTC()
	var ix Index

	a := sum(now, StatusPending)
	ix.Prepend(a)

	if !ix.SetStatus(a.ID, StatusInjected) {
		t.Fatal("entry not found")
	}
	if ix.PendingCount != 0 {
		t.Fatalf("pendingCount %d after leaving pending", ix.PendingCount)
	}

	// Further transitions must not decrement again.
	ix.SetStatus(a.ID, StatusProcessed)
	ix.SetStatus(a.ID, StatusFailed)
	if ix.PendingCount != 0 {
		t.Fatalf("pendingCount %d after repeated transitions", ix.PendingCount)
	}

	if ix.SetStatus(id.NewEventID(), StatusInjected) {
		t.Fatal("expected unknown entry to report not found")
	}
}

func TestIndexPruneOlderThan(t *testing.T) {
	now := time.Now().UTC()
	var ix Index

	old := sum(now.Add(-3*time.Hour), StatusPending)
	edge := sum(now.Add(-time.Hour), StatusInjected)
	fresh := sum(now, StatusPending)
	ix.Prepend(old)
	ix.Prepend(edge)
	ix.Prepend(fresh)

	// Strictly-before: the entry exactly at the cutoff survives.
	removed := ix.PruneOlderThan(now.Add(-time.Hour))
	if len(removed) != 1 || removed[0] != old.ID {
		t.Fatalf("removed %v, want [%s]", removed, old.ID)
	}
	if len(ix.Events) != 2 || ix.Events[0].ID != fresh.ID || ix.Events[1].ID != edge.ID {
		t.Fatalf("survivors wrong: %+v", ix.Events)
	}
	if ix.TotalEvents != 2 || ix.PendingCount != 1 {
		t.Fatalf("counters totalEvents=%d pendingCount=%d", ix.TotalEvents, ix.PendingCount)
	}

	// Nothing older: index untouched.
	before := ix.LastUpdated
	if removed := ix.PruneOlderThan(now.Add(-2 * time.Hour)); removed != nil {
		t.Fatalf("expected no removals, got %v", removed)
	}
	if !ix.LastUpdated.Equal(before) {
		t.Fatal("no-op prune touched the index")
	}
}

func TestIndexEvictOverflow(t *testing.T) {
	now := time.Now().UTC()
	var ix Index

	// Insertion order deliberately disagrees with timestamp order.
	mid := sum(now.Add(-2*time.Minute), StatusPending)
	oldest := sum(now.Add(-5*time.Minute), StatusPending)
	newest := sum(now, StatusInjected)
	ix.Prepend(mid)
	ix.Prepend(oldest)
	ix.Prepend(newest)

	evicted := ix.EvictOverflow(2)
	if len(evicted) != 1 || evicted[0] != oldest.ID {
		t.Fatalf("evicted %v, want [%s]", evicted, oldest.ID)
	}
	if len(ix.Events) != 2 || ix.Events[0].ID != newest.ID || ix.Events[1].ID != mid.ID {
		t.Fatalf("survivors lost their order: %+v", ix.Events)
	}
	if ix.TotalEvents != 2 || ix.PendingCount != 1 {
		t.Fatalf("counters totalEvents=%d pendingCount=%d", ix.TotalEvents, ix.PendingCount)
	}

	if evicted := ix.EvictOverflow(2); evicted != nil {
		t.Fatalf("expected no evictions within cap, got %v", evicted)
	}
}
