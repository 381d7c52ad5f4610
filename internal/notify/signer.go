// Package notify delivers loan lifecycle events to registered webhook
// endpoints as signed HTTP POSTs.
package notify

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrReplayWindowExceeded is returned when the timestamp is outside the replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrBadEncryptionKey is returned when the configured key is not 32 bytes of hex.
	ErrBadEncryptionKey = errors.New("encryption key must be 64 hex characters")
)

// DefaultReplayWindow bounds how stale a signed timestamp may be.
const DefaultReplayWindow = 5 * time.Minute

// Sign creates an HMAC-SHA256 signature over "{timestamp}.{payloadJSON}".
func Sign(secret string, timestamp int64, payloadJSON []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payloadJSON)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature verifies a webhook signature with replay protection.
// Receivers can use this to authenticate deliveries.
func ValidateSignature(secret, signature string, timestamp int64, payloadJSON []byte, replayWindow time.Duration) error {
	drift := time.Now().Unix() - timestamp
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := Sign(secret, timestamp, payloadJSON)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// GenerateSecret creates a random 256-bit signing secret, hex encoded.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SecretCipher encrypts endpoint signing secrets at rest with AES-256-GCM.
// The plaintext secret is only ever held in memory while signing.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher builds a cipher from a 64-character hex key.
func NewSecretCipher(hexKey string) (*SecretCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, ErrBadEncryptionKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &SecretCipher{aead: aead}, nil
}

// Encrypt seals a plaintext secret. Output is hex(nonce || ciphertext).
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *SecretCipher) Decrypt(encrypted string) (string, error) {
	raw, err := hex.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("encrypted secret too short")
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open secret: %w", err)
	}
	return string(plaintext), nil
}
