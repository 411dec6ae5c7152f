package inbox

import (
	"context"

	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/ratelimit"
	"github.com/xraph/inbox/registration"
	"github.com/xraph/inbox/store"
	"github.com/xraph/inbox/watcher"
)

// wireServices initializes the internal services after options have been applied.
func (in *Inbox) wireServices() {
	in.regSvc = registration.NewService(in.store, in.logger)

	in.limiter = ratelimit.New()

	in.hub = newHub()

	// The filesystem watcher only makes sense for stores whose events live
	// in a watchable directory tree.
	if rooted, ok := in.store.(store.EventsRooter); ok {
		in.watch = watcher.New(watcher.Config{
			Root: rooted.EventsRoot(),
		}, in.hub.publish, in.logger)
	}
}

// Start launches the background machinery: the filesystem watcher (when the
// store exposes a watchable events root) and the retention janitor. Starting
// a running or disabled Inbox is a no-op.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.started {
		return nil
	}
	if !in.config.Enabled {
		in.logger.InfoContext(ctx, "inbox disabled, background processing not started")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	in.cancel = cancel

	if in.watch != nil {
		if err := in.watch.Start(runCtx); err != nil {
			cancel()
			return err
		}
	}

	if in.config.CleanupInterval > 0 {
		in.wg.Add(1)
		go in.janitor(runCtx)
	}

	in.started = true
	in.logger.InfoContext(ctx, "inbox started",
		"watching", in.watch != nil,
		"cleanup_interval", in.config.CleanupInterval,
	)

	return nil
}

// Stop shuts down the watcher and janitor, waiting for them to exit or for
// ctx to expire.
func (in *Inbox) Stop(ctx context.Context) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.started {
		return
	}

	in.cancel()
	if in.watch != nil {
		in.watch.Stop()
	}

	done := make(chan struct{})
	go func() {
		in.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		in.logger.InfoContext(ctx, "inbox stopped")
	case <-ctx.Done():
		in.logger.WarnContext(ctx, "inbox shutdown timed out")
	}

	in.started = false
}

// Registrations returns the registration management service.
func (in *Inbox) Registrations() *registration.Service {
	return in.regSvc
}

// Store returns the underlying store.
func (in *Inbox) Store() store.Store {
	return in.store
}

// Config returns the active configuration.
func (in *Inbox) Config() Config {
	return in.config
}

// Stats is a point-in-time summary of the inbox's contents.
type Stats struct {
	// Registrations counts registrations by status.
	Registrations map[registration.Status]int `json:"registrations"`

	// TotalEvents is the number of indexed events across all webhooks.
	TotalEvents int `json:"totalEvents"`

	// PendingEvents is the number of events still awaiting injection.
	PendingEvents int `json:"pendingEvents"`
}

// Stats walks every registration's event index and tallies the backlog.
func (in *Inbox) Stats(ctx context.Context) (*Stats, error) {
	regs, err := in.regSvc.List(ctx, registration.ListOpts{})
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Registrations: make(map[registration.Status]int),
	}
	for _, reg := range regs {
		st.Registrations[reg.Status]++

		ix, err := in.store.EventIndex(ctx, reg.ID)
		if err != nil {
			continue
		}
		st.TotalEvents += ix.TotalEvents
		st.PendingEvents += ix.PendingCount
	}

	if in.metrics != nil {
		in.metrics.PendingEvents.Set(float64(st.PendingEvents))
	}

	return st, nil
}

// RateLimitRemaining reports how many receipts the webhook has left in its
// current window without consuming one. -1 means unlimited.
func (in *Inbox) RateLimitRemaining(webhookID string) int {
	return in.limiter.Remaining(webhookID, in.config.Security.RateLimitPerMinute)
}

// ListEvents returns a webhook's events in most-recent-first order. Polling
// with PendingOnly is the complete alternative to watcher notifications.
func (in *Inbox) ListEvents(ctx context.Context, webhookID id.ID, opts event.ListOpts) ([]*event.Event, error) {
	return in.store.ListEvents(ctx, webhookID, opts)
}
