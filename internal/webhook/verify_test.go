package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"checkout_id":"chk_1"}`)
	secret := "topsecret"

	if !VerifySignature(body, sign(body, secret), secret) {
		t.Fatalf("valid signature rejected")
	}
	if VerifySignature(body, sign(body, "othersecret"), secret) {
		t.Fatalf("signature under wrong secret accepted")
	}
	if VerifySignature([]byte("tampered"), sign(body, secret), secret) {
		t.Fatalf("tampered body accepted")
	}
}

func TestVerifySignature_MissingInputs(t *testing.T) {
	body := []byte("x")
	if VerifySignature(body, "", "secret") {
		t.Fatalf("empty header accepted")
	}
	if VerifySignature(body, sign(body, ""), "") {
		t.Fatalf("empty secret accepted")
	}
}
