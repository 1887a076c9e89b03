package pancrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// KeySize is the required symmetric key length (AES-256).
	KeySize = 32
	// nonceSize is the GCM nonce length in bytes.
	nonceSize = 12
	// minEncodedLen is the shortest base64 string worth attempting to decrypt.
	minEncodedLen = 16
)

// Codec encrypts card numbers for storage with AES-256-GCM and decodes them
// back, tolerating legacy plaintext rows written before encryption existed.
// The stored layout is base64(nonce || ciphertext+tag).
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a raw 256-bit key. Key material comes from
// process configuration; a missing or mis-sized key is a startup failure,
// never a per-call one.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("pan codec key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encode encrypts plaintext into the storage form. Each call draws a fresh
// random nonce. Blank input passes through unchanged.
func (c *Codec) Encode(plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return plaintext, nil
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	blob := make([]byte, 0, len(nonce)+len(sealed))
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decode recovers the plaintext from a stored value. The second return value
// reports whether decryption actually happened: values that do not look like
// ciphertext, or that fail authenticated decryption, are returned unchanged
// with false. That keeps rows written before encryption was introduced
// readable without a migration.
func (c *Codec) Decode(stored string) (string, bool) {
	if strings.TrimSpace(stored) == "" {
		return stored, false
	}
	if !looksLikeBase64(stored) {
		return stored, false
	}
	blob, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored, false
	}
	if len(blob) <= nonceSize {
		return stored, false
	}
	nonce, sealed := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		// Plausible-looking but non-decryptable values are assumed to be
		// historical data in an unrelated format, not an attack.
		return stored, false
	}
	return string(plaintext), true
}

// looksLikeBase64 is a cheap structural check deciding whether a stored value
// is even a candidate for decryption.
func looksLikeBase64(s string) bool {
	if len(s) < minEncodedLen || len(s)%4 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '+' || ch == '/' || ch == '=':
		default:
			return false
		}
	}
	return true
}
