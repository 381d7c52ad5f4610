package notify

import (
	"testing"
	"time"
)

func TestNextRetryDelay(t *testing.T) {
	tests := []struct {
		attempt  int
		minDelay time.Duration
		maxDelay time.Duration
	}{
		{0, 48 * time.Second, 72 * time.Second},
		{1, 4 * time.Minute, 6 * time.Minute},
		{2, 24 * time.Minute, 36 * time.Minute},
		{3, 96 * time.Minute, 144 * time.Minute},
		{4, 576 * time.Minute, 864 * time.Minute},
		{10, 576 * time.Minute, 864 * time.Minute}, // beyond max stays at last
	}

	for _, tt := range tests {
		// Jitter means a single sample proves nothing.
		for i := 0; i < 10; i++ {
			delay := NextRetryDelay(tt.attempt)
			if delay < tt.minDelay || delay > tt.maxDelay {
				t.Errorf("NextRetryDelay(%d) = %v, want between %v and %v",
					tt.attempt, delay, tt.minDelay, tt.maxDelay)
			}
		}
	}
}

func TestNextRetryDelay_Negative(t *testing.T) {
	delay := NextRetryDelay(-1)
	if delay < 48*time.Second || delay > 72*time.Second {
		t.Errorf("NextRetryDelay(-1) should use attempt 0, got %v", delay)
	}
}

func TestIsExhausted(t *testing.T) {
	tests := []struct {
		attempt     int
		maxAttempts int
		want        bool
	}{
		{0, 5, false},
		{4, 5, false},
		{5, 5, true},
		{6, 5, true},
	}

	for _, tt := range tests {
		if got := IsExhausted(tt.attempt, tt.maxAttempts); got != tt.want {
			t.Errorf("IsExhausted(%d, %d) = %v, want %v",
				tt.attempt, tt.maxAttempts, got, tt.want)
		}
	}
}

func TestRetryDelays_Increasing(t *testing.T) {
	delays := RetryDelays()
	if len(delays) != DefaultMaxAttempts {
		t.Fatalf("expected %d retry delays, got %d", DefaultMaxAttempts, len(delays))
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] <= delays[i-1] {
			t.Errorf("delays should be increasing: %v <= %v", delays[i], delays[i-1])
		}
	}
}
