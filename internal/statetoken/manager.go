package statetoken

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"sync"

	dErrors "linkgate/pkg/domain-errors"
	"linkgate/internal/platform/requesttime"
)

// tokenBytes is the entropy of a generated token: 32 bytes, 256 bits.
const tokenBytes = 32

// Manager owns the state-token lifecycle: generate, store, validate, clear.
//
// Validate's check-then-consume sequence is atomic with respect to the slot:
// the manager serializes all slot operations, so no other step can observe or
// mutate the slot between the comparison and the deletion.
type Manager struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "state token store is required")
	}
	m := &Manager{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Generate produces a new random token value from a cryptographically secure
// source, URL-safe encoded. It does not touch the slot.
func Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate state token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Issue generates a fresh token and stores it, returning the value.
//
// Storing overwrites the slot: any previously issued, unconsumed token becomes
// permanently unvalidatable, even inside its TTL. Two flows initiated in quick
// succession therefore leave only the most recent link usable. This is an
// intentional defense against concurrent-flow confusion, not a bug.
func (m *Manager) Issue(ctx context.Context) (string, error) {
	value, err := Generate()
	if err != nil {
		return "", err
	}
	if err := m.Store(ctx, value); err != nil {
		return "", err
	}
	return value, nil
}

// Store persists the value with the current issuance timestamp, overwriting
// any prior slot content.
func (m *Manager) Store(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Put(ctx, Token{
		Value:    value,
		IssuedAt: requesttime.Now(ctx),
	}); err != nil {
		return err
	}
	m.logger.DebugContext(ctx, "state_token_stored")
	return nil
}

// Validate reports whether presented matches the live stored token.
//
// It returns true iff a token is stored, the values match, and the token is
// at most TTL old — and on true the stored copy is deleted (single-use).
// Absence, expiry, and mismatch are all simply false and leave the slot
// untouched, so a later attempt with the correct value can still succeed
// until something consumes it. The error return is reserved for store
// failures; validation outcomes never surface as errors.
func (m *Manager) Validate(ctx context.Context, presented string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.store.Get(ctx)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, nil
	}

	now := requesttime.Now(ctx)
	if now.Sub(stored.IssuedAt) > TTL {
		// Logically expired; leave physical purging to Clear or the next Store.
		m.logger.DebugContext(ctx, "state_token_expired", "age", now.Sub(stored.IssuedAt).String())
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored.Value)) != 1 {
		return false, nil
	}

	if err := m.store.Delete(ctx); err != nil {
		// The comparison already succeeded; failing the consume must fail the
		// validation, otherwise the token would be replayable.
		return false, err
	}
	m.logger.DebugContext(ctx, "state_token_consumed")
	return true, nil
}

// Clear deletes whatever the slot holds. Used defensively by the orchestrator
// for idempotent cleanup outside the Validate path.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(ctx)
}
