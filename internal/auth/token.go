// Package auth provides authentication utilities for login sessions.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Token format: st_{secret}
// Example: st_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d
const (
	// TokenSecretLen is the secret length (hex encoded 24 bytes).
	TokenSecretLen = 48
)

var (
	// ErrInvalidTokenFormat indicates the session token format is invalid.
	ErrInvalidTokenFormat = errors.New("invalid session token format")
	// tokenFormatRegex validates the token format.
	tokenFormatRegex = regexp.MustCompile(`^st_([a-f0-9]{48})$`)
)

// GenerateSessionToken creates a new opaque session token.
// The token is random and carries no embedded claims; the session
// state lives server-side keyed by this value.
func GenerateSessionToken() (string, error) {
	secretBytes := make([]byte, 24)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return "st_" + hex.EncodeToString(secretBytes), nil
}

// ValidateTokenFormat checks if the token matches the expected format.
// Used to reject garbage before touching the session store.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}
