package realtime

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if !rl.Allow(now) {
			t.Fatalf("event %d: want allowed", i)
		}
	}
	if rl.Allow(now) {
		t.Fatalf("event over limit: want blocked")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	now := time.Now().UTC()

	if !rl.Allow(now) || !rl.Allow(now) {
		t.Fatalf("want first two allowed")
	}
	if rl.Allow(now) {
		t.Fatalf("want third blocked")
	}

	later := now.Add(1100 * time.Millisecond)
	if !rl.Allow(later) {
		t.Fatalf("want allowed after window slid")
	}
}
