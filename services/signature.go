package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureVerifier checks gateway callback signatures: a hex HMAC-SHA256 of
// "<gateway order id>|<gateway payment id>" keyed with the gateway secret.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Sign returns the expected signature for the pair.
func (v *SignatureVerifier) Sign(gatewayOrderID, gatewayPaymentID string) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("payment signature secret not configured")
	}
	mac := hmac.New(sha256.New, v.secret)
	if _, err := mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID)); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify compares in constant time. Any error computing the expected value
// is a mismatch.
func (v *SignatureVerifier) Verify(gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected, err := v.Sign(gatewayOrderID, gatewayPaymentID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
