package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket allows bursts of up to Burst requests refilled at RequestsPerSec.
type TokenBucket struct {
	mu         sync.Mutex
	rate       float64
	burst      float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(cfg Config) *TokenBucket {
	cfg = applyDefaults(cfg)
	return &TokenBucket{
		rate:       cfg.RequestsPerSec,
		burst:      float64(cfg.Burst),
		tokens:     float64(cfg.Burst),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Wait blocks until a token is taken or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tb.mu.Lock()
		tb.refill()
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		wait := tb.deficitWait()
		tb.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Allow takes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Reserve returns the time until the next token.
func (tb *TokenBucket) Reserve() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		return 0
	}
	return tb.deficitWait()
}

// Reset refills the bucket.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.burst
	tb.lastRefill = tb.now()
}

// refill must be called with mu held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed.Seconds() * tb.rate
	if tb.tokens > tb.burst {
		tb.tokens = tb.burst
	}
	tb.lastRefill = now
}

// deficitWait must be called with mu held.
func (tb *TokenBucket) deficitWait() time.Duration {
	return time.Duration((1-tb.tokens)/tb.rate*float64(time.Second)) + time.Millisecond
}
