package extension

import (
	"log/slog"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/store"
)

// ExtOption configures the inbox extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(ext *Extension) {
		ext.store = s
	}
}

// WithLogger sets the structured logger used by the inbox and the API.
func WithLogger(logger *slog.Logger) ExtOption {
	return func(ext *Extension) {
		ext.logger = logger
	}
}

// WithPrefix sets the URL prefix for all inbox admin routes.
func WithPrefix(prefix string) ExtOption {
	return func(ext *Extension) {
		ext.config.BasePath = prefix
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(ext *Extension) {
		ext.config = cfg
	}
}

// WithInboxOption appends a raw inbox.Option, applied after the
// extension's own configuration.
func WithInboxOption(opt inbox.Option) ExtOption {
	return func(ext *Extension) {
		ext.opts = append(ext.opts, opt)
	}
}

// WithDisableRoutes disables automatic route registration on Mount.
func WithDisableRoutes() ExtOption {
	return func(ext *Extension) {
		ext.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables store layout preparation on Register.
func WithDisableMigrate() ExtOption {
	return func(ext *Extension) {
		ext.config.DisableMigrate = true
	}
}
