package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	clientIDPrefix  = "client_"
	clientIDBytes   = 16
	clientSecretLen = 32
)

// NewClientID returns a new external-facing client identifier. The
// prefix keeps client ids recognizable in logs and URLs. No uniqueness
// check happens here; the database constraint is the backstop and a
// collision surfaces as a conflict on create.
func NewClientID() (string, error) {
	b := make([]byte, clientIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("NewClientID: %w", err)
	}
	return clientIDPrefix + hex.EncodeToString(b), nil
}

// NewClientSecret returns a new plaintext client secret. Callers must
// hash it before persisting; the plaintext is revealed exactly once.
func NewClientSecret() (string, error) {
	b := make([]byte, clientSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("NewClientSecret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
