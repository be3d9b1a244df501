package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestPerChatAllow(t *testing.T) {
	limiter := NewPerChat(Config{
		MaxTokens:     3,
		RefillRate:    1.0,
		CleanupPeriod: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(1) {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	if limiter.Allow(1) {
		t.Error("4th request should be denied")
	}

	// A different chat has its own bucket
	if !limiter.Allow(2) {
		t.Error("different chat should be allowed")
	}
}

func TestPerChatRefill(t *testing.T) {
	limiter := NewPerChat(Config{
		MaxTokens:     1,
		RefillRate:    50, // fast refill to keep the test quick
		CleanupPeriod: time.Minute,
	})
	defer limiter.Stop()

	if !limiter.Allow(1) {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow(1) {
		t.Fatal("second request should be denied")
	}

	time.Sleep(50 * time.Millisecond)

	if !limiter.Allow(1) {
		t.Error("request after refill should be allowed")
	}
}

func TestPerChatConcurrent(t *testing.T) {
	limiter := NewPerChat(Config{
		MaxTokens:     100,
		RefillRate:    1,
		CleanupPeriod: time.Minute,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				limiter.Allow(chatID)
			}
		}(int64(i % 3))
	}
	wg.Wait()

	if got := limiter.ActiveCount(); got != 3 {
		t.Errorf("ActiveCount = %d, want 3", got)
	}
}

func TestPerChatStopIdempotent(t *testing.T) {
	limiter := NewPerChat(Config{
		MaxTokens:     1,
		RefillRate:    1,
		CleanupPeriod: time.Minute,
	})
	limiter.Stop()
	limiter.Stop()
}
