package util

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken generates a 128-bit random token encoded as 32 lowercase hex
// characters. Hex keeps tokens safe for flat filesystem and object-store
// keyspaces.
func RandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
