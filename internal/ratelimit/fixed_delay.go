package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedDelay spaces requests at least FixedDelay apart.
type FixedDelay struct {
	mu   sync.Mutex
	gap  time.Duration
	next time.Time
}

// NewFixedDelay creates a limiter whose first request passes immediately.
func NewFixedDelay(cfg Config) *FixedDelay {
	cfg = applyDefaults(cfg)
	return &FixedDelay{gap: cfg.FixedDelay}
}

// Wait claims the next slot and sleeps until it arrives.
func (fd *FixedDelay) Wait(ctx context.Context) error {
	fd.mu.Lock()
	now := time.Now()
	slot := fd.next
	if slot.Before(now) {
		slot = now
	}
	fd.next = slot.Add(fd.gap)
	fd.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allow claims the slot only when no wait is needed.
func (fd *FixedDelay) Allow() bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	now := time.Now()
	if now.Before(fd.next) {
		return false
	}
	fd.next = now.Add(fd.gap)
	return true
}

// Reserve returns the time until the next free slot.
func (fd *FixedDelay) Reserve() time.Duration {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if wait := time.Until(fd.next); wait > 0 {
		return wait
	}
	return 0
}

// Reset frees the next slot.
func (fd *FixedDelay) Reset() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.next = time.Time{}
}
