package extension

import (
	"github.com/xraph/inbox"
)

// Config holds configuration for the inbox extension. Fields can be set
// programmatically via ExtOption functions or loaded from YAML files
// alongside the core inbox configuration.
type Config struct {
	// Config embeds the core inbox configuration.
	inbox.Config `json:",inline" yaml:",inline" mapstructure:",squash"`

	// BasePath is the URL prefix for all inbox admin routes (default: "/webhooks").
	BasePath string `json:"basePath" yaml:"basePath" mapstructure:"basePath"`

	// DisableRoutes disables automatic route registration on Mount.
	DisableRoutes bool `json:"disableRoutes" yaml:"disableRoutes" mapstructure:"disableRoutes"`

	// DisableMigrate disables store layout preparation on Register.
	DisableMigrate bool `json:"disableMigrate" yaml:"disableMigrate" mapstructure:"disableMigrate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Config:   inbox.DefaultConfig(),
		BasePath: "/webhooks",
	}
}

// ToInboxOptions converts the embedded Config into inbox.Option values,
// mapping only the fields that were set.
func (c Config) ToInboxOptions() []inbox.Option {
	var opts []inbox.Option

	if c.Injection.MaxPerTurn > 0 {
		opts = append(opts, inbox.WithInjectionLimit(c.Injection.MaxPerTurn))
	}
	if c.Security.MaxTimestampAge > 0 {
		opts = append(opts, inbox.WithMaxTimestampAge(c.Security.MaxTimestampAge))
	}
	if c.Security.RateLimitPerMinute > 0 {
		opts = append(opts, inbox.WithRateLimit(c.Security.RateLimitPerMinute))
	}
	if c.Storage.MaxEvents > 0 || c.Storage.MaxAgeDays > 0 {
		opts = append(opts, inbox.WithRetention(c.Storage.MaxEvents, c.Storage.MaxAgeDays))
	}
	if c.CleanupInterval > 0 {
		opts = append(opts, inbox.WithCleanupInterval(c.CleanupInterval))
	}

	return opts
}
