package inbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/inbox/observability"
	"github.com/xraph/inbox/ratelimit"
	"github.com/xraph/inbox/registration"
	"github.com/xraph/inbox/store"
	"github.com/xraph/inbox/watcher"
)

// Inbox is the root webhook reception manager.
type Inbox struct {
	config  Config
	store   store.Store
	regSvc  *registration.Service
	limiter *ratelimit.Limiter
	watch   *watcher.Watcher
	hub     *hub
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures an Inbox instance.
type Option func(*Inbox) error

// New creates a new Inbox with the given options.
func New(opts ...Option) (*Inbox, error) {
	in := &Inbox{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(in); err != nil {
			return nil, err
		}
	}
	if in.store == nil {
		return nil, ErrNoStore
	}
	in.wireServices()
	return in, nil
}

// WithStore sets the persistence backend for the Inbox instance.
func WithStore(s store.Store) Option {
	return func(in *Inbox) error {
		in.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Inbox instance.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Inbox) error {
		in.logger = logger
		return nil
	}
}

// WithConfig replaces the entire configuration at once. Apply it before
// finer-grained options or it overwrites them.
func WithConfig(cfg Config) Option {
	return func(in *Inbox) error {
		in.config = cfg
		return nil
	}
}

// WithEnabled gates event reception and injection.
func WithEnabled(enabled bool) Option {
	return func(in *Inbox) error {
		in.config.Enabled = enabled
		return nil
	}
}

// WithInjectionLimit sets the maximum number of events returned per
// injection batch.
func WithInjectionLimit(n int) Option {
	return func(in *Inbox) error {
		in.config.Injection.MaxPerTurn = n
		return nil
	}
}

// WithMaxTimestampAge sets how far a sender timestamp may drift from the
// receiver clock before the receipt is rejected.
func WithMaxTimestampAge(d time.Duration) Option {
	return func(in *Inbox) error {
		in.config.Security.MaxTimestampAge = d
		return nil
	}
}

// WithRateLimit sets the per-webhook receipts-per-minute cap. 0 disables
// rate limiting.
func WithRateLimit(perMinute int) Option {
	return func(in *Inbox) error {
		in.config.Security.RateLimitPerMinute = perMinute
		return nil
	}
}

// WithRetention sets the per-webhook event cap and age cutoff enforced by
// the janitor. 0 disables the respective bound.
func WithRetention(maxEvents, maxAgeDays int) Option {
	return func(in *Inbox) error {
		in.config.Storage.MaxEvents = maxEvents
		in.config.Storage.MaxAgeDays = maxAgeDays
		return nil
	}
}

// WithCleanupInterval sets how often the retention janitor sweeps.
func WithCleanupInterval(d time.Duration) Option {
	return func(in *Inbox) error {
		in.config.CleanupInterval = d
		return nil
	}
}

// WithMetrics attaches metric instruments built from the given factory.
// Pass fapp.Metrics() from a forge extension, or any other go-utils
// MetricFactory.
func WithMetrics(factory gu.MetricFactory) Option {
	return func(in *Inbox) error {
		in.metrics = observability.NewMetrics(factory)
		return nil
	}
}

// WithTracing enables OpenTelemetry spans around the receive pipeline,
// using the globally registered tracer provider.
func WithTracing() Option {
	return func(in *Inbox) error {
		in.tracer = observability.NewTracer()
		return nil
	}
}
