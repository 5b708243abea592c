package cleanup

import (
	"context"
	"log/slog"
	"time"

	"linkgate/internal/platform/requesttime"
	"linkgate/internal/ratelimit/metrics"
)

// Result contains the outcome of one cleanup run.
type Result struct {
	Removed  int
	Duration time.Duration
}

type AttemptStore interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithStaleAfter(staleAfter time.Duration) Option {
	return func(s *Service) {
		if staleAfter > 0 {
			s.staleAfter = staleAfter
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service periodically purges attempt records whose window started longer
// than staleAfter ago, so one-off failures do not accumulate forever.
type Service struct {
	store      AttemptStore
	logger     *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
	metrics    *metrics.Metrics
}

func New(store AttemptStore, opts ...Option) *Service {
	service := &Service{
		store:      store,
		logger:     slog.Default(),
		interval:   time.Hour,
		staleAfter: 24 * time.Hour,
		metrics:    nil,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			startTime := time.Now()
			res, err := s.RunOnce(ctx)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Error("ratelimit_cleanup_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				if s.metrics != nil {
					s.metrics.IncrementCleanupRuns("error")
					s.metrics.ObserveCleanupDuration(duration.Seconds())
				}
				continue
			}

			res.Duration = duration
			s.logger.Info("ratelimit_cleanup_completed",
				"records_removed", res.Removed,
				"duration_ms", duration.Milliseconds(),
			)

			if s.metrics != nil {
				s.metrics.IncrementCleanupRemoved(res.Removed)
				s.metrics.IncrementCleanupRuns("success")
				s.metrics.ObserveCleanupDuration(duration.Seconds())
			}

		case <-ctx.Done():
			s.logger.Info("ratelimit cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single cleanup run. Logging is handled by the caller (Start).
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	cutoff := requesttime.Now(ctx).Add(-s.staleAfter)
	removed, err := s.store.DeleteStale(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return &Result{Removed: removed}, nil
}
