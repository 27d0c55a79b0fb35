package ai

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// WebhookAuthHeader carries the shared secret AssemblyAI echoes back on every webhook
const WebhookAuthHeader = "X-Webhook-Secret"

// WebhookSignatureHeader carries a hex sha256 HMAC of the raw body
const WebhookSignatureHeader = "X-Webhook-Signature"

// VerifyHMAC verifies a sha256 HMAC hex signature against payload and secret
func VerifyHMAC(secret string, payload []byte, signatureHex string) bool {
	if secret == "" || signatureHex == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHex))
}

// VerifyWebhook accepts either the echoed auth header or an HMAC signature.
// An empty secret disables verification.
func VerifyWebhook(secret string, payload []byte, authHeader, signatureHex string) bool {
	if secret == "" {
		return true
	}
	if authHeader != "" && hmac.Equal([]byte(secret), []byte(authHeader)) {
		return true
	}
	return VerifyHMAC(secret, payload, signatureHex)
}

// Sign returns the hex HMAC a sender would put in WebhookSignatureHeader
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
