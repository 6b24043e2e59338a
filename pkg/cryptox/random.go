package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// OperatorTokenBytes is the entropy of generated operator tokens (256 bits).
const OperatorTokenBytes = 32

// RandomToken returns n random bytes as unpadded base64url.
func RandomToken(n int) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("cryptox: token of %d bytes is too short", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint is the unpadded base64url SHA-256 of data. It is stable, so it
// serves as a key id, and reveals nothing about data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
