package signature

import (
	"crypto/rand"
	"encoding/hex"
)

// secretBytes is the entropy of a generated signing secret.
const secretBytes = 32

// GenerateSecret creates a new signing secret: "whsec_" followed by 64 hex
// characters drawn from crypto/rand. It panics if the platform's random
// source is unavailable, matching the id generator.
func GenerateSecret() string {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		panic("inbox: failed to generate random secret: " + err.Error())
	}

	return "whsec_" + hex.EncodeToString(buf)
}
