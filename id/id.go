// Package id defines the opaque identity types for all inbox entities.
//
// Every entity uses a single ID string type with a prefix that identifies
// the entity type, in the format "prefix_suffix". Suffixes are 12 characters
// of base64url-encoded randomness from crypto/rand, so IDs are URL-safe and
// safe to interpolate into filesystem paths.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// Prefix identifies the entity type encoded in an ID.
type Prefix string

// Prefix constants for all inbox entity types.
const (
	PrefixWebhook  Prefix = "whk"
	PrefixEvent    Prefix = "evt"
	PrefixDelivery Prefix = "dlv"
)

// suffixBytes random bytes base64url-encode to exactly 12 characters.
const suffixBytes = 9

// ID is the primary identifier type for all inbox entities, in the format
// "prefix_suffix". The zero value is the empty ID.
type ID string

// Nil is the zero-value ID.
var Nil ID

// safePattern is the character set an ID must match before it may be used
// to build a filesystem path. Anything outside it could escape the storage
// root, so stores reject such IDs up front.
var safePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// New generates a new ID with the given prefix and a 12-character suffix
// drawn from crypto/rand. It panics if the platform's random source is
// unavailable (environment error, not a runtime condition).
func New(prefix Prefix) ID {
	buf := make([]byte, suffixBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("id: crypto/rand unavailable: %v", err))
	}

	return ID(string(prefix) + "_" + base64.RawURLEncoding.EncodeToString(buf))
}

// Parse validates that s is a well-formed, path-safe ID and returns it.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	if !safePattern.MatchString(s) {
		return Nil, fmt.Errorf("id: parse %q: unsafe characters", s)
	}

	if !strings.Contains(s, "_") {
		return Nil, fmt.Errorf("id: parse %q: missing prefix separator", s)
	}

	return ID(s), nil
}

// ParseWithPrefix parses an ID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// Safe reports whether s matches the path-safe character set. Storage
// drivers call this before building any path from an externally supplied ID.
func Safe(s string) bool {
	return safePattern.MatchString(s)
}

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewWebhookID generates a new unique webhook registration ID.
func NewWebhookID() ID { return New(PrefixWebhook) }

// NewEventID generates a new unique event ID.
func NewEventID() ID { return New(PrefixEvent) }

// NewDeliveryID generates a new unique delivery ID.
func NewDeliveryID() ID { return New(PrefixDelivery) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseWebhookID parses a string and validates the "whk" prefix.
func ParseWebhookID(s string) (ID, error) { return ParseWithPrefix(s, PrefixWebhook) }

// ParseEventID parses a string and validates the "evt" prefix.
func ParseEventID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEvent) }

// ParseDeliveryID parses a string and validates the "dlv" prefix.
func ParseDeliveryID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDelivery) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full ID string representation (prefix_suffix).
func (i ID) String() string {
	return string(i)
}

// Prefix returns the prefix component of this ID, or "" if the ID has no
// separator. The split is on the first underscore: suffixes are base64url
// and may themselves contain underscores.
func (i ID) Prefix() Prefix {
	s := string(i)
	idx := strings.Index(s, "_")
	if idx < 0 {
		return ""
	}

	return Prefix(s[:idx])
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return i == Nil
}

// Safe reports whether this ID is path-safe.
func (i ID) Safe() bool {
	return Safe(string(i))
}
