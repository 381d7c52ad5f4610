package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		timestamp   int64
		payloadJSON []byte
	}{
		{
			name:        "basic signature",
			secret:      "0badc0de",
			timestamp:   1772366400,
			payloadJSON: []byte(`{"event_type":"loan.checked_out","event_id":"abc:checkout"}`),
		},
		{
			name:        "empty payload",
			secret:      "secret",
			timestamp:   1000000000,
			payloadJSON: []byte(`{}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Sign(tt.secret, tt.timestamp, tt.payloadJSON)

			// Hex-encoded SHA256 is 64 chars.
			if len(sig) != 64 {
				t.Errorf("signature length = %d, want 64", len(sig))
			}

			if sig != Sign(tt.secret, tt.timestamp, tt.payloadJSON) {
				t.Error("signature is not deterministic")
			}
			if sig == Sign(tt.secret, tt.timestamp+1, tt.payloadJSON) {
				t.Error("different timestamp should produce different signature")
			}
			if sig == Sign(tt.secret+"x", tt.timestamp, tt.payloadJSON) {
				t.Error("different secret should produce different signature")
			}
		})
	}
}

func TestValidateSignature(t *testing.T) {
	secret := "test_secret"
	timestamp := time.Now().Unix()
	payload := []byte(`{"test":"data"}`)

	validSig := Sign(secret, timestamp, payload)
	staleTS := time.Now().Add(-10 * time.Minute).Unix()
	futureTS := time.Now().Add(10 * time.Minute).Unix()

	tests := []struct {
		name      string
		signature string
		timestamp int64
		wantErr   error
	}{
		{"valid signature", validSig, timestamp, nil},
		{"invalid signature", "invalid", timestamp, ErrInvalidSignature},
		{"expired timestamp", Sign(secret, staleTS, payload), staleTS, ErrReplayWindowExceeded},
		{"future timestamp beyond window", Sign(secret, futureTS, payload), futureTS, ErrReplayWindowExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignature(secret, tt.signature, tt.timestamp, payload, 5*time.Minute)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSignature() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	s1, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if len(s1) != 64 {
		t.Errorf("secret length = %d, want 64", len(s1))
	}

	s2, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if s1 == s2 {
		t.Error("secrets should be unique")
	}
}

func TestSecretCipher_RoundTrip(t *testing.T) {
	key := strings.Repeat("ab", 32)
	cipher, err := NewSecretCipher(key)
	if err != nil {
		t.Fatalf("NewSecretCipher() error = %v", err)
	}

	secret := "whsec_roundtrip_value"
	enc, err := cipher.Encrypt(secret)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if enc == secret {
		t.Error("encrypted value should differ from plaintext")
	}

	// Nonce makes each encryption distinct.
	enc2, err := cipher.Encrypt(secret)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if enc == enc2 {
		t.Error("repeated encryption should produce different ciphertext")
	}

	dec, err := cipher.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if dec != secret {
		t.Errorf("Decrypt() = %q, want %q", dec, secret)
	}
}

func TestSecretCipher_BadInputs(t *testing.T) {
	if _, err := NewSecretCipher("short"); !errors.Is(err, ErrBadEncryptionKey) {
		t.Errorf("NewSecretCipher(short key) error = %v, want ErrBadEncryptionKey", err)
	}
	if _, err := NewSecretCipher(strings.Repeat("zz", 32)); !errors.Is(err, ErrBadEncryptionKey) {
		t.Errorf("NewSecretCipher(non-hex key) error = %v, want ErrBadEncryptionKey", err)
	}

	cipher, err := NewSecretCipher(strings.Repeat("01", 32))
	if err != nil {
		t.Fatalf("NewSecretCipher() error = %v", err)
	}
	if _, err := cipher.Decrypt("not-hex"); err == nil {
		t.Error("Decrypt(not-hex) should fail")
	}
	if _, err := cipher.Decrypt("abcd"); err == nil {
		t.Error("Decrypt(too short) should fail")
	}

	// A ciphertext from a different key must not open.
	other, _ := NewSecretCipher(strings.Repeat("02", 32))
	enc, _ := other.Encrypt("secret")
	if _, err := cipher.Decrypt(enc); err == nil {
		t.Error("Decrypt with wrong key should fail")
	}
}
