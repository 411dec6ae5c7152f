// Package watcher surfaces webhook event files as they appear on disk.
//
// The store's event tree is fair game for other processes: anything may drop
// an event file into events/{webhookID}/. The watcher holds one fsnotify
// watch on the events root plus one per webhook directory, and reports each
// new event file exactly once per watch cycle. Notifications are advisory;
// the store's pending queue stays authoritative, so a file appearing while
// the watch is down is picked up by the next injection batch even though it
// was never announced.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xraph/inbox/id"
)

const (
	// DefaultPollInterval is how often a missing events root is re-checked.
	DefaultPollInterval = 5 * time.Second

	// DefaultRetryBackoff is the pause after a failed watch cycle.
	DefaultRetryBackoff = 5 * time.Second
)

// Notification reports one event file appearing under the events root.
type Notification struct {
	WebhookID id.ID
	EventID   id.ID
	Path      string
	At        time.Time
}

// Handler receives notifications from the watch goroutine. It must not
// block; slow consumers should hand off to their own buffering.
type Handler func(Notification)

// Config holds watcher configuration.
type Config struct {
	// Root is the events directory to watch: one subdirectory per webhook.
	Root string

	// PollInterval is the cadence for re-checking a missing Root.
	PollInterval time.Duration

	// RetryBackoff is the pause before restarting a failed watch cycle.
	RetryBackoff time.Duration
}

// Watcher monitors the events tree and announces new event files.
type Watcher struct {
	root    string
	poll    time.Duration
	backoff time.Duration
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a watcher. The handler is invoked once per new event file.
func New(cfg Config, handler Handler, logger *slog.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:    cfg.Root,
		poll:    cfg.PollInterval,
		backoff: cfg.RetryBackoff,
		handler: handler,
		logger:  logger,
	}
}

// Start launches the watch loop. Starting a running watcher is a no-op; a
// stopped watcher can be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}
	if w.handler == nil {
		return errors.New("watcher: nil handler")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.started = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	return nil
}

// Stop cancels the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

// run restarts watch cycles until the context ends. Every exit from a cycle
// that is not a cancellation waits out the backoff first, so a persistently
// failing root cannot spin.
func (w *Watcher) run(ctx context.Context) {
	for {
		err := w.watch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			w.logger.Warn("watch interrupted, retrying", "root", w.root, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.backoff):
		}
	}
}

// watch runs one cycle: wait for the root, watch it and every webhook
// directory, and stream notifications until something breaks.
func (w *Watcher) watch(ctx context.Context) error {
	if err := w.awaitRoot(ctx); err != nil {
		return nil
	}

	fsn, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsn.Close()

	if err := fsn.Add(w.root); err != nil {
		return err
	}

	// Seed silently: anything already on disk predates this cycle.
	seen := make(map[string]struct{})
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := id.ParseWebhookID(entry.Name()); err != nil {
			continue
		}
		w.addDir(fsn, filepath.Join(w.root, entry.Name()), seen, false)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsn.Events:
			if !ok {
				return errors.New("event stream closed")
			}
			if err := w.handleEvent(fsn, ev, seen); err != nil {
				return err
			}
		case err, ok := <-fsn.Errors:
			if !ok {
				return errors.New("error stream closed")
			}
			return err
		}
	}
}

// awaitRoot polls until the events root exists as a directory.
func (w *Watcher) awaitRoot(ctx context.Context) error {
	for {
		info, err := os.Stat(w.root)
		if err == nil && info.IsDir() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.poll):
		}
	}
}

func (w *Watcher) handleEvent(fsn *fsnotify.Watcher, ev fsnotify.Event, seen map[string]struct{}) error {
	switch {
	case ev.Name == w.root:
		if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
			return errors.New("events root removed")
		}
		return nil

	case filepath.Dir(ev.Name) == w.root:
		if ev.Op.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if _, err := id.ParseWebhookID(filepath.Base(ev.Name)); err == nil {
					w.addDir(fsn, ev.Name, seen, true)
				}
			}
		}
		if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
			// fsnotify drops the directory watch on its own; forgetting its
			// files lets a recreated webhook announce them again.
			w.forget(ev.Name+string(os.PathSeparator), seen)
		}
		return nil

	default:
		if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
			w.observeFile(ev.Name, seen, true)
		}
		if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
			delete(seen, ev.Name)
		}
		return nil
	}
}

// addDir watches a webhook directory, then scans what it already holds. The
// watch is registered before the scan so no file slips between the two.
func (w *Watcher) addDir(fsn *fsnotify.Watcher, dir string, seen map[string]struct{}, notify bool) {
	if err := fsn.Add(dir); err != nil {
		w.logger.Warn("cannot watch webhook directory", "dir", dir, "error", err)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Directory vanished between Add and scan.
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.observeFile(filepath.Join(dir, entry.Name()), seen, notify)
	}
}

// observeFile records an event file, announcing it at most once. Index
// files, dotfiles (including in-flight atomic writes), and names that are
// not well-formed IDs never announce.
func (w *Watcher) observeFile(path string, seen map[string]struct{}, notify bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") || base == "index.json" || strings.HasPrefix(base, ".") {
		return
	}

	eventID, err := id.ParseEventID(strings.TrimSuffix(base, ".json"))
	if err != nil {
		return
	}
	webhookID, err := id.ParseWebhookID(filepath.Base(filepath.Dir(path)))
	if err != nil {
		return
	}

	if _, ok := seen[path]; ok {
		return
	}
	seen[path] = struct{}{}

	if !notify {
		return
	}
	w.handler(Notification{
		WebhookID: webhookID,
		EventID:   eventID,
		Path:      path,
		At:        time.Now().UTC(),
	})
}

// forget drops every seen entry under a removed directory.
func (w *Watcher) forget(prefix string, seen map[string]struct{}) {
	for path := range seen {
		if strings.HasPrefix(path, prefix) {
			delete(seen, path)
		}
	}
}
