package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA256 digest of the raw request
// body, keyed with the shared webhook secret.
const SignatureHeader = "X-Webhook-Signature"

// ComputeSignature returns the hex digest for body under secret.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the provided header value against the expected
// digest in constant time. An empty secret means permissive mode: every
// batch is accepted (lower environments only; the server logs this at
// startup).
func VerifySignature(secret string, body []byte, provided string) bool {
	if secret == "" {
		return true
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(provided))
}
