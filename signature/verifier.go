package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verify checks whether sig is the valid HMAC-SHA256 signature for the
// payload under the secret. The comparison is constant time. Malformed hex,
// decode failures, and length mismatches all report false; Verify never
// returns an error.
func Verify(payload []byte, sig, secret string) bool {
	given, err := hex.DecodeString(sig)
	if err != nil || len(given) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, []byte(strings.TrimPrefix(secret, secretPrefix)))
	mac.Write(payload)

	return hmac.Equal(mac.Sum(nil), given)
}
