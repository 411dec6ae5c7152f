// Package signature provides HMAC-SHA256 webhook signing and verification.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// secretPrefix marks generated secrets. The prefix is presentation only and
// is stripped before keying the MAC, so "whsec_abc" and "abc" sign alike.
const secretPrefix = "whsec_"

// Sign generates the HMAC-SHA256 signature for the given payload bytes,
// keyed by the secret. Senders and receivers must agree on the exact bytes:
// the MAC covers the payload as received, with no re-serialization.
// Returns a lowercase hex digest.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimPrefix(secret, secretPrefix)))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
