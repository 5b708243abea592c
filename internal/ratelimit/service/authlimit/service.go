package authlimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkgate/internal/platform/requesttime"
	"linkgate/internal/ratelimit/config"
	"linkgate/internal/ratelimit/metrics"
	"linkgate/internal/ratelimit/models"
	dErrors "linkgate/pkg/domain-errors"
)

type Store interface {
	Get(ctx context.Context, identifier string) (*models.AttemptRecord, error)
	Put(ctx context.Context, record *models.AttemptRecord) error
	Delete(ctx context.Context, identifier string) error
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

type Service struct {
	store   Store
	logger  *slog.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("attempt store is required")
	}

	defaultCfg := config.DefaultConfig()
	svc := &Service{
		store:  store,
		logger: slog.Default(),
		config: &defaultCfg,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// CheckLimit reports whether the identifier may attempt authentication right
// now. Crossing the attempt threshold transitions the record into a blocked
// state with an exponentially growing duration, so the check itself can
// mutate the record.
func (s *Service) CheckLimit(ctx context.Context, identifier string) (*models.Result, error) {
	record, err := s.store.Get(ctx, identifier)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get attempt record")
	}

	now := requesttime.Now(ctx)

	if record == nil {
		return &models.Result{Allowed: true, Remaining: s.config.MaxAttempts}, nil
	}

	if record.IsBlocked(now) {
		return &models.Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: record.BlockedUntil.Sub(now),
		}, nil
	}

	if record.WindowElapsed(now, s.config.Window) {
		return &models.Result{Allowed: true, Remaining: s.config.MaxAttempts}, nil
	}

	if record.AttemptCount >= s.config.MaxAttempts {
		blockFor := s.blockDuration(record.LockoutCount)
		blockedUntil := now.Add(blockFor)
		record.BlockedUntil = &blockedUntil
		record.LockoutCount++
		if err := s.store.Put(ctx, record); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update attempt record")
		}

		// Keyed as "email" so the redacting log policy strips the value in
		// production builds.
		s.logger.InfoContext(ctx, "auth_lockout_triggered",
			"email", identifier,
			"lockout_count", record.LockoutCount,
			"blocked_for", blockFor.String(),
		)
		if s.metrics != nil {
			s.metrics.IncrementLockouts()
		}

		return &models.Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: blockFor,
		}, nil
	}

	return &models.Result{
		Allowed:   true,
		Remaining: s.config.MaxAttempts - record.AttemptCount,
	}, nil
}

// RecordAttempt records the outcome of an authentication attempt. Success
// wipes the record entirely, including its lockout history. Failure counts
// against the current window, or opens a fresh window when the old one has
// elapsed while preserving the lockout history.
func (s *Service) RecordAttempt(ctx context.Context, identifier string, success bool) error {
	if success {
		if err := s.store.Delete(ctx, identifier); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear attempt record")
		}
		return nil
	}

	record, err := s.store.Get(ctx, identifier)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to get attempt record")
	}

	now := requesttime.Now(ctx)

	switch {
	case record == nil:
		record, err = models.NewAttemptRecord(identifier, now)
		if err != nil {
			return err
		}
	case record.WindowElapsed(now, s.config.Window):
		record.AttemptCount = 1
		record.WindowStart = now
		record.BlockedUntil = nil
	default:
		record.AttemptCount++
	}

	if err := s.store.Put(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update attempt record")
	}

	if s.metrics != nil {
		s.metrics.IncrementFailures()
	}
	return nil
}

// GetRemainingAttempts returns how many attempts the identifier has left in
// the current window. Blocked identifiers have zero.
func (s *Service) GetRemainingAttempts(ctx context.Context, identifier string) (int, error) {
	record, err := s.store.Get(ctx, identifier)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get attempt record")
	}
	if record == nil {
		return s.config.MaxAttempts, nil
	}

	now := requesttime.Now(ctx)
	if record.IsBlocked(now) {
		return 0, nil
	}
	if record.WindowElapsed(now, s.config.Window) {
		return s.config.MaxAttempts, nil
	}

	remaining := s.config.MaxAttempts - record.AttemptCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset drops all rate-limit state for the identifier.
func (s *Service) Reset(ctx context.Context, identifier string) error {
	if err := s.store.Delete(ctx, identifier); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset attempt record")
	}
	return nil
}

func (s *Service) blockDuration(lockoutCount int) time.Duration {
	d := s.config.BaseBlockDuration * time.Duration(1<<lockoutCount)
	if d > s.config.MaxBlockDuration || d <= 0 {
		return s.config.MaxBlockDuration
	}
	return d
}
