package signature

import "time"

// DefaultMaxTimestampAge is the replay-protection window applied when a
// caller does not configure one.
const DefaultMaxTimestampAge = 5 * time.Minute

// ParseTimestamp parses a sender-supplied ISO-8601 timestamp (RFC 3339,
// fractional seconds allowed).
func ParseTimestamp(ts string) (time.Time, error) {
	return time.Parse(time.RFC3339, ts)
}

// IsTimestampFresh reports whether ts parses and lies within maxAge of the
// current time, in either direction. The bound is inclusive. Rejecting
// future timestamps alongside stale ones guards against clock-skew-forged
// replay windows, not just captured payloads.
func IsTimestampFresh(ts string, maxAge time.Duration) bool {
	return isFreshAt(ts, maxAge, time.Now())
}

func isFreshAt(ts string, maxAge time.Duration, now time.Time) bool {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return false
	}

	d := now.Sub(t)
	if d < 0 {
		d = -d
	}

	return d <= maxAge
}
