package pancrypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"unicode"
)

// Hasher produces deterministic keyed fingerprints of normalized card numbers.
// The fingerprint serves as a uniqueness index for the encrypted PAN column, so
// duplicate detection never needs to decrypt. The pepper is a secret distinct
// from the encryption key and is fixed process-wide.
type Hasher struct {
	pepper []byte
}

// NewHasher builds a Hasher from the configured pepper.
func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: []byte(pepper)}
}

// Normalize strips all whitespace from a raw PAN. Digit order and length are
// preserved.
func Normalize(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Fingerprint computes base64(HMAC-SHA256(pepper, normalizedPan)). The same
// normalized input always yields the same fingerprint for a given pepper.
func (h *Hasher) Fingerprint(normalizedPan string) string {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(normalizedPan))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
