package checker

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const fingerprintLength = 8

// Fingerprint returns a short BLAKE2b-256 digest of secret so two configured secrets can be
// compared without displaying either. An empty secret has no fingerprint.
// The digest is unkeyed and short, so it is only safe for high-entropy client secrets.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
