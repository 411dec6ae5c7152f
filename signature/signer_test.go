package signature_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/xraph/inbox/signature"
)

func TestSignKnownVector(t *testing.T) {
	payload := []byte(`{"event":"test"}`)
	secret := "whsec_testsecret123"

	got := signature.Sign(payload, secret)

	// Compute expected HMAC-SHA256 independently, over the bare key.
	mac := hmac.New(sha256.New, []byte("testsecret123"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if got != expected {
		t.Errorf("Sign() = %q, want %q", got, expected)
	}
}

func TestSignStripsSecretPrefix(t *testing.T) {
	payload := []byte(`{"n":1}`)

	withPrefix := signature.Sign(payload, "whsec_abc")
	bare := signature.Sign(payload, "abc")

	if withPrefix != bare {
		t.Errorf("prefixed and bare secrets disagree: %q vs %q", withPrefix, bare)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte(`{"invoice_id":"inv_01h2x","amount":9900}`)
	secret := "whsec_roundtripsecret"

	sig := signature.Sign(payload, secret)
	if !signature.Verify(payload, sig, secret) {
		t.Error("Verify() returned false for valid signature")
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	payload := []byte(`{"original":true}`)
	secret := "whsec_tampersecret"

	sig := signature.Sign(payload, secret)

	tampered := []byte(`{"original":false}`)
	if signature.Verify(tampered, sig, secret) {
		t.Error("Verify() returned true for tampered payload")
	}
}

func TestVerifyFlippedSignatureByte(t *testing.T) {
	payload := []byte(`{"data":"value"}`)
	secret := "whsec_flipsecret"

	sig := signature.Sign(payload, secret)

	for i := range sig {
		flipped := []byte(sig)
		if flipped[i] == 'a' {
			flipped[i] = 'b'
		} else {
			flipped[i] = 'a'
		}
		if signature.Verify(payload, string(flipped), secret) {
			t.Fatalf("Verify() accepted signature with byte %d flipped", i)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	payload := []byte(`{"data":"value"}`)

	sig := signature.Sign(payload, "whsec_correct")

	if signature.Verify(payload, sig, "whsec_wrong") {
		t.Error("Verify() returned true for wrong secret")
	}
}

func TestVerifyMalformed(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_malformedsecret"

	bad := []string{
		"",
		"zz",
		"not hex at all",
		"deadbeef",                      // too short
		strings.Repeat("ab", 33),        // too long
		"v1=" + strings.Repeat("a", 64), // versioned scheme from another system
	}

	for _, sig := range bad {
		if signature.Verify(payload, sig, secret) {
			t.Errorf("Verify() accepted malformed signature %q", sig)
		}
	}
}

func TestSignatureFormat(t *testing.T) {
	sig := signature.Sign([]byte("test"), "secret")

	// SHA256 = 32 bytes = 64 hex chars, no version prefix.
	if len(sig) != 64 {
		t.Errorf("expected signature length 64, got %d", len(sig))
	}

	if _, err := hex.DecodeString(sig); err != nil {
		t.Errorf("signature is not valid hex: %v", err)
	}
}
