// Package ratelimit throttles per-chat message handling with token
// buckets so one chatty user cannot starve the bot.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket. Tokens refill at a constant rate up to the
// burst capacity; each handled message consumes one.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newBucket(maxTokens, refillRate float64) *bucket {
	return &bucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (b *bucket) refill() {
	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// isFull reports whether the bucket is back at capacity, meaning the
// chat has been idle long enough for its bucket to be dropped.
func (b *bucket) isFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens >= b.maxTokens
}

// Config configures a PerChat limiter.
type Config struct {
	MaxTokens     float64       // burst capacity per chat
	RefillRate    float64       // tokens refilled per second
	CleanupPeriod time.Duration // how often idle buckets are dropped
}

// PerChat tracks one token bucket per chat ID and drops idle buckets in
// the background. Safe for concurrent use.
type PerChat struct {
	mu      sync.RWMutex
	buckets map[int64]*bucket
	config  Config
	stopCh  chan struct{}
}

// NewPerChat creates a per-chat limiter and starts its cleanup goroutine.
// Call Stop when done.
func NewPerChat(cfg Config) *PerChat {
	p := &PerChat{
		buckets: make(map[int64]*bucket),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}
	go p.cleanupLoop()
	return p
}

// Allow reports whether a message from the chat may be handled, consuming
// a token when it is.
func (p *PerChat) Allow(chatID int64) bool {
	p.mu.RLock()
	b, ok := p.buckets[chatID]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		// Re-check, another goroutine may have created it meanwhile.
		b, ok = p.buckets[chatID]
		if !ok {
			b = newBucket(p.config.MaxTokens, p.config.RefillRate)
			p.buckets[chatID] = b
		}
		p.mu.Unlock()
	}

	return b.allow()
}

// ActiveCount returns the number of chats currently holding a bucket.
func (p *PerChat) ActiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.buckets)
}

func (p *PerChat) cleanupLoop() {
	ticker := time.NewTicker(p.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.mu.Lock()
			for chatID, b := range p.buckets {
				if b.isFull() {
					delete(p.buckets, chatID)
				}
			}
			p.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup goroutine. Safe to call multiple times.
func (p *PerChat) Stop() {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}
