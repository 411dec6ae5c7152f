package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAllow_Unlimited(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if !l.Allow("whk_1", 0) {
			t.Fatal("Allow(0) should always return true")
		}
	}
}

func TestAllow_RateLimited(t *testing.T) {
	l := New()
	webhookID := "whk_limited"
	limit := 3

	// The first three fill the window.
	for i := 0; i < limit; i++ {
		if !l.Allow(webhookID, limit) {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	// The fourth must be denied.
	if l.Allow(webhookID, limit) {
		t.Fatal("call over the limit should be denied")
	}

	// Denials do not consume quota or extend the window.
	if l.Allow(webhookID, limit) {
		t.Fatal("repeated call over the limit should be denied")
	}
}

func TestAllow_WindowRollover(t *testing.T) {
	l := New()
	webhookID := "whk_rollover"
	limit := 2

	base := time.Now()
	current := base
	l.now = func() time.Time { return current }

	l.Allow(webhookID, limit)
	l.Allow(webhookID, limit)
	if l.Allow(webhookID, limit) {
		t.Fatal("window should be exhausted")
	}

	// One second short of the boundary: still the old window.
	current = base.Add(windowLength - time.Second)
	if l.Allow(webhookID, limit) {
		t.Fatal("should still be denied just before the window ends")
	}

	// At the boundary a fresh window opens with full quota.
	current = base.Add(windowLength)
	for i := 0; i < limit; i++ {
		if !l.Allow(webhookID, limit) {
			t.Fatalf("call %d of new window should be allowed", i+1)
		}
	}
	if l.Allow(webhookID, limit) {
		t.Fatal("new window should also enforce the limit")
	}
}

func TestAllow_PerWebhookIsolation(t *testing.T) {
	l := New()
	limit := 1

	if !l.Allow("whk_a", limit) {
		t.Fatal("first webhook should be allowed")
	}
	if l.Allow("whk_a", limit) {
		t.Fatal("first webhook should now be denied")
	}

	// A different webhook has its own window.
	if !l.Allow("whk_b", limit) {
		t.Fatal("second webhook should be unaffected")
	}
}

func TestRemaining(t *testing.T) {
	l := New()
	webhookID := "whk_remaining"

	if got := l.Remaining(webhookID, 0); got != -1 {
		t.Fatalf("Remaining with no limit = %d, want -1", got)
	}
	if got := l.Remaining(webhookID, 5); got != 5 {
		t.Fatalf("Remaining before any calls = %d, want 5", got)
	}

	l.Allow(webhookID, 5)
	l.Allow(webhookID, 5)
	if got := l.Remaining(webhookID, 5); got != 3 {
		t.Fatalf("Remaining after two calls = %d, want 3", got)
	}

	// Peeking does not consume quota.
	if got := l.Remaining(webhookID, 5); got != 3 {
		t.Fatalf("Remaining after peek = %d, want 3", got)
	}
}

func TestReset(t *testing.T) {
	l := New()
	webhookID := "whk_reset"
	limit := 1

	l.Allow(webhookID, limit)
	if l.Allow(webhookID, limit) {
		t.Fatal("should be denied")
	}

	l.Reset(webhookID)

	if !l.Allow(webhookID, limit) {
		t.Fatal("should be allowed after reset")
	}
}

func TestResetAll(t *testing.T) {
	l := New()
	limit := 1

	l.Allow("whk_a", limit)
	l.Allow("whk_b", limit)

	l.ResetAll()

	if !l.Allow("whk_a", limit) || !l.Allow("whk_b", limit) {
		t.Fatal("all webhooks should be allowed after ResetAll")
	}
}

func TestConcurrentAccess(t *testing.T) {
	l := New()
	webhookID := "whk_concurrent"
	limit := 100

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow(webhookID, limit)
		}()
	}

	wg.Wait()
	close(allowed)

	trueCount := 0
	for v := range allowed {
		if v {
			trueCount++
		}
	}

	// All calls land in one window, so exactly the limit gets through.
	if trueCount != limit {
		t.Fatalf("expected exactly %d allowed, got %d", limit, trueCount)
	}
}
