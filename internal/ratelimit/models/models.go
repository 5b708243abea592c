package models

import (
	"time"

	dErrors "linkgate/pkg/domain-errors"
)

// AttemptRecord tracks failed authentication attempts for one identifier
// (a normalized email). It guards brute-force credential guessing and is
// unrelated to the deep-link state token slot — the two must not be conflated.
type AttemptRecord struct {
	Identifier   string     `json:"identifier"`
	AttemptCount int        `json:"attempt_count"`
	WindowStart  time.Time  `json:"window_start"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	// LockoutCount is how many times this identifier has been blocked; it
	// drives the exponential backoff of successive block durations.
	LockoutCount int `json:"lockout_count"`
}

// NewAttemptRecord creates a record for the first failure of an identifier.
func NewAttemptRecord(identifier string, now time.Time) (*AttemptRecord, error) {
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identifier cannot be empty")
	}
	return &AttemptRecord{
		Identifier:   identifier,
		AttemptCount: 1,
		WindowStart:  now,
	}, nil
}

// IsBlocked reports whether the record is inside an active block period.
func (r *AttemptRecord) IsBlocked(now time.Time) bool {
	return r.BlockedUntil != nil && now.Before(*r.BlockedUntil)
}

// WindowElapsed reports whether the sliding window has run out, meaning the
// attempt count no longer applies.
func (r *AttemptRecord) WindowElapsed(now time.Time, window time.Duration) bool {
	return now.Sub(r.WindowStart) > window
}

// Result is the outcome of a rate-limit check.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"` // only set when not allowed
}
