package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/watcher"
)

// settle is how long tests give the watcher to establish its watches before
// touching the tree.
const settle = 300 * time.Millisecond

type collector struct {
	mu  sync.Mutex
	got []watcher.Notification
}

func (c *collector) handle(n watcher.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func (c *collector) first() watcher.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.got[0]
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, root string, c *collector) *watcher.Watcher {
	t.Helper()

	w := watcher.New(watcher.Config{
		Root:         root,
		PollInterval: 30 * time.Millisecond,
		RetryBackoff: 30 * time.Millisecond,
	}, c.handle, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func writeEventFile(t *testing.T, dir string, eventID id.ID) string {
	t.Helper()

	path := filepath.Join(dir, eventID.String()+".json")
	if err := os.WriteFile(path, []byte(`{"id":"`+eventID.String()+`"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectsNewEventFile(t *testing.T) {
	root := t.TempDir()
	webhookID := id.NewWebhookID()
	dir := filepath.Join(root, webhookID.String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	c := &collector{}
	startWatcher(t, root, c)
	time.Sleep(settle)

	eventID := id.NewEventID()
	writeEventFile(t, dir, eventID)

	if !waitFor(3*time.Second, func() bool { return c.count() >= 1 }) {
		t.Fatal("no notification for new event file")
	}

	n := c.first()
	if n.WebhookID != webhookID || n.EventID != eventID {
		t.Fatalf("notification %+v, want webhook %s event %s", n, webhookID, eventID)
	}
	if n.At.IsZero() {
		t.Fatal("notification has no timestamp")
	}
}

func TestDetectsNewWebhookDirectory(t *testing.T) {
	root := t.TempDir()

	c := &collector{}
	startWatcher(t, root, c)
	time.Sleep(settle)

	// Directory first, then the file: both appear after the watch began.
	webhookID := id.NewWebhookID()
	dir := filepath.Join(root, webhookID.String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(settle)

	eventID := id.NewEventID()
	writeEventFile(t, dir, eventID)

	if !waitFor(3*time.Second, func() bool { return c.count() >= 1 }) {
		t.Fatal("no notification for event in new directory")
	}
	if n := c.first(); n.WebhookID != webhookID || n.EventID != eventID {
		t.Fatalf("notification %+v", n)
	}
}

func TestMissingRootPollsUntilCreated(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "data", "events")

	c := &collector{}
	startWatcher(t, root, c)

	// Let it poll against the missing root for a while.
	time.Sleep(150 * time.Millisecond)

	webhookID := id.NewWebhookID()
	dir := filepath.Join(root, webhookID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(settle)

	eventID := id.NewEventID()
	writeEventFile(t, dir, eventID)

	if !waitFor(3*time.Second, func() bool { return c.count() >= 1 }) {
		t.Fatal("no notification after root appeared")
	}
	if n := c.first(); n.WebhookID != webhookID || n.EventID != eventID {
		t.Fatalf("notification %+v", n)
	}
}

func TestPreexistingFilesAreNotAnnounced(t *testing.T) {
	root := t.TempDir()
	webhookID := id.NewWebhookID()
	dir := filepath.Join(root, webhookID.String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeEventFile(t, dir, id.NewEventID())

	c := &collector{}
	startWatcher(t, root, c)
	time.Sleep(settle)

	if c.count() != 0 {
		t.Fatalf("preexisting file announced %d times", c.count())
	}

	// New files still announce.
	eventID := id.NewEventID()
	writeEventFile(t, dir, eventID)
	if !waitFor(3*time.Second, func() bool { return c.count() >= 1 }) {
		t.Fatal("no notification for file written after start")
	}
	if n := c.first(); n.EventID != eventID {
		t.Fatalf("notification %+v", n)
	}
}

func TestIgnoresNonEventFiles(t *testing.T) {
	root := t.TempDir()
	webhookID := id.NewWebhookID()
	dir := filepath.Join(root, webhookID.String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	c := &collector{}
	startWatcher(t, root, c)
	time.Sleep(settle)

	for _, name := range []string{"index.json", ".tmp-12345", "notes.txt", "not-an-id.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	eventID := id.NewEventID()
	writeEventFile(t, dir, eventID)

	if !waitFor(3*time.Second, func() bool { return c.count() >= 1 }) {
		t.Fatal("no notification for the one real event file")
	}
	time.Sleep(settle)

	if c.count() != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", c.count())
	}
	if n := c.first(); n.EventID != eventID {
		t.Fatalf("notification %+v", n)
	}
}

func TestAtomicRenameAnnouncesFinalName(t *testing.T) {
	root := t.TempDir()
	webhookID := id.NewWebhookID()
	dir := filepath.Join(root, webhookID.String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	c := &collector{}
	startWatcher(t, root, c)
	time.Sleep(settle)

	// Mimic the store's write discipline: dot-prefixed temp, then rename.
	eventID := id.NewEventID()
	tmp := filepath.Join(dir, ".tmp-777")
	if err := os.WriteFile(tmp, []byte(`{"ok":true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, eventID.String()+".json")); err != nil {
		t.Fatal(err)
	}

	if !waitFor(3*time.Second, func() bool { return c.count() >= 1 }) {
		t.Fatal("no notification for renamed file")
	}
	time.Sleep(settle)

	if c.count() != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", c.count())
	}
	if n := c.first(); n.EventID != eventID {
		t.Fatalf("notification %+v", n)
	}
}

func TestStartIsIdempotentAndStopIsSafe(t *testing.T) {
	root := t.TempDir()
	webhookID := id.NewWebhookID()
	dir := filepath.Join(root, webhookID.String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	c := &collector{}
	w := startWatcher(t, root, c)

	// Second start on a running watcher changes nothing.
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(settle)

	writeEventFile(t, dir, id.NewEventID())
	if !waitFor(3*time.Second, func() bool { return c.count() >= 1 }) {
		t.Fatal("no notification")
	}
	time.Sleep(settle)
	if c.count() != 1 {
		t.Fatalf("double start duplicated notifications: %d", c.count())
	}

	w.Stop()
	w.Stop() // second stop is a no-op

	// Stopped watcher stays quiet.
	writeEventFile(t, dir, id.NewEventID())
	time.Sleep(settle)
	if c.count() != 1 {
		t.Fatalf("stopped watcher still announcing: %d", c.count())
	}
}
