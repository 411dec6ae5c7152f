package inbox

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/inbox/signature"
)

// Config holds the configuration for an Inbox instance.
type Config struct {
	// Enabled gates event reception and injection. A disabled inbox still
	// serves registration CRUD and reads.
	Enabled bool `yaml:"enabled"`

	// Injection controls how pending events are batched for consumers.
	Injection InjectionConfig `yaml:"injection"`

	// Storage controls the persistence location and retention bounds.
	Storage StorageConfig `yaml:"storage"`

	// Security controls the receipt-time policy checks.
	Security SecurityConfig `yaml:"security"`

	// CleanupInterval is how often the retention janitor sweeps. Set to 0
	// to disable the background sweep; RunCleanup still works on demand.
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// InjectionConfig controls the pending-event batch surface.
type InjectionConfig struct {
	// Enabled gates GetPendingForInjection. When false the batch is
	// always empty; events keep accumulating as pending.
	Enabled bool `yaml:"enabled"`

	// MaxPerTurn caps how many events one batch returns.
	MaxPerTurn int `yaml:"maxPerTurn"`
}

// StorageConfig controls where and how long events are kept.
type StorageConfig struct {
	// BasePath is the root directory for the filesystem store.
	BasePath string `yaml:"basePath"`

	// MaxEvents is the per-webhook event cap enforced by eviction.
	// 0 disables the cap.
	MaxEvents int `yaml:"maxEvents"`

	// MaxAgeDays is the age cutoff for event cleanup, in days.
	// 0 disables age-based cleanup.
	MaxAgeDays int `yaml:"maxAgeDays"`
}

// SecurityConfig controls receipt-time policy checks.
type SecurityConfig struct {
	// MaxTimestampAge is how far a sender timestamp may drift from the
	// receiver clock, in either direction, before the receipt is rejected.
	MaxTimestampAge time.Duration `yaml:"maxTimestampAge"`

	// RateLimitPerMinute caps receipts per webhook per minute.
	// 0 disables rate limiting.
	RateLimitPerMinute int `yaml:"rateLimitPerMinute"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Injection: InjectionConfig{
			Enabled:    true,
			MaxPerTurn: 5,
		},
		Storage: StorageConfig{
			BasePath:   "data/webhooks",
			MaxEvents:  1000,
			MaxAgeDays: 30,
		},
		Security: SecurityConfig{
			MaxTimestampAge:    signature.DefaultMaxTimestampAge,
			RateLimitPerMinute: 60,
		},
		CleanupInterval: 1 * time.Hour,
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadConfig reads a Config from a YAML file. ${VAR} references are
// replaced with environment variable values before parsing; undefined
// variables are left as-is. Fields absent from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("inbox: read config: %w", err)
	}

	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("inbox: parse config %s: %w", path, err)
	}

	return cfg, nil
}
