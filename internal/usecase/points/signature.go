package points

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	domainpoints "edupoints/internal/domain/points"
)

const signaturePrefix = "sha256="

// SignaturePolicy verifies that a webhook payload was produced by the holder
// of the shared secret. Permissive mode lets unsigned or unverifiable
// deliveries through; bootstrap only enables it outside production.
type SignaturePolicy struct {
	Secret     string
	Permissive bool
}

// Verify checks the sha256=<hex> keyed hash of payload against the header
// value using a constant-time comparison. Pure check, no side effects.
func (p SignaturePolicy) Verify(payload []byte, signatureHeader string) error {
	secret := strings.TrimSpace(p.Secret)
	signature := strings.TrimSpace(signatureHeader)

	if secret == "" || signature == "" {
		if p.Permissive {
			return nil
		}
		return domainpoints.ErrSignatureMissing
	}

	if len(signature) <= len(signaturePrefix) || !strings.EqualFold(signature[:len(signaturePrefix)], signaturePrefix) {
		return domainpoints.ErrSignatureInvalid
	}

	decoded, err := hex.DecodeString(strings.TrimSpace(signature[len(signaturePrefix):]))
	if err != nil {
		return domainpoints.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)

	if !hmac.Equal(decoded, mac.Sum(nil)) {
		return domainpoints.ErrSignatureInvalid
	}
	return nil
}
