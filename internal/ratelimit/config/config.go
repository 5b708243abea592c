package config

import "time"

// Config holds the rate limiter tuning knobs.
type Config struct {
	// MaxAttempts is the number of failed attempts tolerated inside one
	// window before the identifier is blocked.
	MaxAttempts int
	// Window is the sliding window over which failures accumulate.
	Window time.Duration
	// BaseBlockDuration is the length of the first block. Each subsequent
	// lockout doubles the duration up to MaxBlockDuration.
	BaseBlockDuration time.Duration
	MaxBlockDuration  time.Duration
	// StaleAfter is how old a record's window start must be before the
	// cleanup worker purges it.
	StaleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:       5,
		Window:            15 * time.Minute,
		BaseBlockDuration: 30 * time.Minute,
		MaxBlockDuration:  2 * time.Hour,
		StaleAfter:        24 * time.Hour,
	}
}
