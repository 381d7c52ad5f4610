package cache

import (
	"testing"
)

func TestHashIdentifier_Deterministic(t *testing.T) {
	t.Parallel()

	subject := "margaret.atwood"

	hash1 := hashIdentifier(subject)
	hash2 := hashIdentifier(subject)

	if hash1 != hash2 {
		t.Error("Same subject should produce same hash")
	}
}

func TestHashIdentifier_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		subject string
	}{
		{"username", "reader42"},
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash := hashIdentifier(tt.subject)
			// hashIdentifier uses first 8 bytes of SHA256, encoded as 16 hex chars
			if len(hash) != 16 {
				t.Errorf("hashIdentifier(%q) length = %d, want 16", tt.subject, len(hash))
			}
		})
	}
}

func TestHashIdentifier_Different(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s1   string
		s2   string
	}{
		{"different usernames", "alice", "bob"},
		{"different IPv4", "192.168.1.1", "192.168.1.2"},
		{"IPv4 vs IPv6", "127.0.0.1", "::1"},
		{"username vs IP", "alice", "10.0.0.1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash1 := hashIdentifier(tt.s1)
			hash2 := hashIdentifier(tt.s2)

			if hash1 == hash2 {
				t.Errorf("Different subjects should produce different hashes: %q and %q both produced %s", tt.s1, tt.s2, hash1)
			}
		})
	}
}
