package extension

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/api"
	"github.com/xraph/inbox/store"
)

// ErrNotRegistered is returned by operations that need a built Inbox before
// Register has run.
var ErrNotRegistered = errors.New("extension: Register has not been called")

// Extension bundles an Inbox, its store, and the admin API.
type Extension struct {
	config Config
	opts   []inbox.Option
	store  store.Store
	logger *slog.Logger

	inbox *inbox.Inbox
}

// New creates a new inbox extension. The store must be supplied via
// WithStore before Register.
func New(opts ...ExtOption) *Extension {
	ext := &Extension{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ext)
	}
	return ext
}

// Register builds the Inbox from the configured store and prepares the
// store layout. Calling it again is a no-op.
func (ext *Extension) Register(ctx context.Context) error {
	if ext.inbox != nil {
		return nil
	}

	opts := []inbox.Option{
		inbox.WithConfig(ext.config.Config),
		inbox.WithLogger(ext.logger),
	}
	if ext.store != nil {
		opts = append(opts, inbox.WithStore(ext.store))
	}
	opts = append(opts, ext.opts...)

	in, err := inbox.New(opts...)
	if err != nil {
		return err
	}

	if !ext.config.DisableMigrate {
		if err := in.Store().Migrate(ctx); err != nil {
			return err
		}
	}

	ext.inbox = in
	return nil
}

// Start launches the inbox's background machinery, registering first if
// needed.
func (ext *Extension) Start(ctx context.Context) error {
	if ext.inbox == nil {
		if err := ext.Register(ctx); err != nil {
			return err
		}
	}
	return ext.inbox.Start(ctx)
}

// Stop shuts the inbox down, bounded by ctx.
func (ext *Extension) Stop(ctx context.Context) {
	if ext.inbox != nil {
		ext.inbox.Stop(ctx)
	}
}

// Health reports whether the backing store is reachable and writable.
func (ext *Extension) Health(ctx context.Context) error {
	if ext.inbox == nil {
		return ErrNotRegistered
	}
	return ext.inbox.Store().Ping(ctx)
}

// Handler returns the admin API handler. Register must have succeeded.
func (ext *Extension) Handler() http.Handler {
	return api.NewHandler(ext.inbox, ext.logger)
}

// Mount registers the admin API on mux under the configured prefix. A
// DisableRoutes config makes it a no-op.
func (ext *Extension) Mount(mux *http.ServeMux) {
	if ext.config.DisableRoutes {
		return
	}

	prefix := strings.TrimSuffix(ext.config.BasePath, "/")
	mux.Handle(prefix+"/", http.StripPrefix(prefix, ext.Handler()))
}

// Inbox returns the built Inbox, or nil before Register.
func (ext *Extension) Inbox() *inbox.Inbox { return ext.inbox }

// Prefix returns the configured URL prefix.
func (ext *Extension) Prefix() string { return ext.config.BasePath }
