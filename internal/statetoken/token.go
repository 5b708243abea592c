// Package statetoken implements the CSRF state-token protocol guarding
// deep-link callbacks.
//
// Exactly one token is live at any time: the slot-shaped store holds the most
// recently issued value, and storing a new one permanently invalidates any
// prior unconsumed token. Tokens are single-use — a successful validation
// deletes the stored copy — and expire lazily five minutes after issuance.
package statetoken

import (
	"context"
	"time"
)

// TTL is how long an issued token remains presentable. Age is evaluated
// lazily at validation time; an expired token is treated as absent even if it
// has not been physically purged yet.
const TTL = 5 * time.Minute

// Token is the ephemeral CSRF artifact held in the slot.
type Token struct {
	// Value is cryptographically random with at least 256 bits of entropy,
	// encoded with a URL-safe alphabet (no '+', '/', or '=').
	Value string `json:"value"`

	IssuedAt time.Time `json:"issued_at"`
}

// Store is the single-slot persistence behind the manager. Implementations
// hold at most one token; Put overwrites unconditionally.
//
// Get returns (nil, nil) when the slot is empty. Errors are reserved for
// infrastructure failures.
type Store interface {
	Put(ctx context.Context, token Token) error
	Get(ctx context.Context) (*Token, error)
	Delete(ctx context.Context) error
}
