// Package ratelimit throttles calls to the upstream government data API.
package ratelimit

import (
	"context"
	"time"
)

// Limiter paces outbound requests.
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done.
	Wait(ctx context.Context) error
	// Allow reports whether a request may proceed now, consuming a slot if so.
	Allow() bool
	// Reserve returns how long a caller would wait for the next slot.
	Reserve() time.Duration
	Reset()
}

// Strategy names a limiter implementation.
type Strategy string

const (
	StrategyTokenBucket Strategy = "token_bucket"
	StrategyFixedDelay  Strategy = "fixed_delay"
	StrategyNone        Strategy = "none"
)

// New creates a limiter for cfg.Strategy, defaulting to a token bucket.
func New(cfg Config) Limiter {
	cfg = applyDefaults(cfg)
	switch cfg.Strategy {
	case StrategyFixedDelay:
		return NewFixedDelay(cfg)
	case StrategyNone:
		return Unlimited{}
	default:
		return NewTokenBucket(cfg)
	}
}

// Unlimited never throttles.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Reserve() time.Duration         { return 0 }
func (Unlimited) Reset()                         {}
