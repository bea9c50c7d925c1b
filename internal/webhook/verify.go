package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifySignature checks the payment provider's webhook signature.
// The signature header carries base64(HMAC_SHA256(body)) under the shared
// secret. Missing header or secret always fails.
func VerifySignature(body []byte, sigHeader string, secret string) bool {
	if sigHeader == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sigHeader))
}
