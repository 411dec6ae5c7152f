package inbox

import (
	"context"
	"time"

	"github.com/xraph/inbox/registration"
)

// janitor periodically applies the retention bounds to every registration.
func (in *Inbox) janitor(ctx context.Context) {
	defer in.wg.Done()

	ticker := time.NewTicker(in.config.CleanupInterval)
	defer ticker.Stop()

	in.logger.DebugContext(ctx, "retention janitor started",
		"interval", in.config.CleanupInterval,
		"max_age_days", in.config.Storage.MaxAgeDays,
		"max_events", in.config.Storage.MaxEvents,
	)

	for {
		select {
		case <-ctx.Done():
			in.logger.DebugContext(ctx, "retention janitor stopped")
			return
		case <-ticker.C:
			in.RunCleanup(ctx)
		}
	}
}

// CleanupResult summarizes one retention sweep.
type CleanupResult struct {
	// Webhooks is the number of registrations swept.
	Webhooks int `json:"webhooks"`

	// Removed counts events deleted for exceeding the age cutoff.
	Removed int `json:"removed"`

	// Evicted counts events deleted to honor the per-webhook cap.
	Evicted int `json:"evicted"`
}

// RunCleanup sweeps every registration once: events older than
// Storage.MaxAgeDays are removed, then the oldest events are evicted down to
// Storage.MaxEvents. A zero bound disables that half of the sweep. Failures
// on one webhook are logged and do not stop the sweep.
func (in *Inbox) RunCleanup(ctx context.Context) *CleanupResult {
	res := &CleanupResult{}

	regs, err := in.regSvc.List(ctx, registration.ListOpts{})
	if err != nil {
		in.logger.ErrorContext(ctx, "cleanup sweep failed to list registrations", "error", err)
		return res
	}

	for _, reg := range regs {
		res.Webhooks++

		if days := in.config.Storage.MaxAgeDays; days > 0 {
			n, err := in.store.CleanupEvents(ctx, reg.ID, days)
			if err != nil {
				in.logger.WarnContext(ctx, "event cleanup failed",
					"webhook_id", reg.ID, "error", err)
			}
			res.Removed += n
		}

		if max := in.config.Storage.MaxEvents; max > 0 {
			n, err := in.store.EnforceMaxEvents(ctx, reg.ID, max)
			if err != nil {
				in.logger.WarnContext(ctx, "event eviction failed",
					"webhook_id", reg.ID, "error", err)
			}
			res.Evicted += n
		}
	}

	if in.metrics != nil {
		in.metrics.RecordCleanup(res.Removed + res.Evicted)
	}

	if res.Removed > 0 || res.Evicted > 0 {
		in.logger.InfoContext(ctx, "retention sweep finished",
			"webhooks", res.Webhooks,
			"removed", res.Removed,
			"evicted", res.Evicted,
		)
	}

	return res
}
