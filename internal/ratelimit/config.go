package ratelimit

import (
	"fmt"
	"time"
)

// Config holds limiter settings for one upstream source.
type Config struct {
	Strategy       Strategy      `yaml:"strategy" json:"strategy"`
	RequestsPerSec float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst          int           `yaml:"burst" json:"burst"`
	FixedDelay     time.Duration `yaml:"fixed_delay" json:"fixed_delay"`
}

// DefaultConfig returns settings that stay well inside data.gov.in quotas.
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyTokenBucket,
		RequestsPerSec: 2.0,
		Burst:          4,
		FixedDelay:     500 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	return applyDefaults(c)
}

// Validate rejects unknown strategies.
func (c Config) Validate() error {
	switch c.Strategy {
	case "", StrategyTokenBucket, StrategyFixedDelay, StrategyNone:
		return nil
	default:
		return fmt.Errorf("unknown rate limit strategy %q", c.Strategy)
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = def.RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.FixedDelay <= 0 {
		cfg.FixedDelay = def.FixedDelay
	}
	return cfg
}
