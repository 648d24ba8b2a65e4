package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			krl := New(tt.rps, tt.burst)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if krl.Allow("backend") {
					passed++
				}
			}
			if passed != tt.wantPass {
				t.Errorf("passed = %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	krl := New(1, 1)

	if !krl.Allow("openai") {
		t.Error("first call for openai should pass")
	}
	if krl.Allow("openai") {
		t.Error("second call for openai should be limited")
	}
	// A different key has its own bucket.
	if !krl.Allow("ollama") {
		t.Error("first call for ollama should pass")
	}
}

func TestKeyedRateLimiter_WaitRespectsContext(t *testing.T) {
	krl := New(0.01, 1) // next token ~100s away

	if !krl.Allow("backend") {
		t.Fatal("burst token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := krl.Wait(ctx, "backend")
	if err == nil {
		t.Error("Wait should fail when context expires before a token is available")
	}
}
