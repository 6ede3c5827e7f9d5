package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewSignupToken generates a 32-character hex invitation token (128 bits).
func NewSignupToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate signup token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
