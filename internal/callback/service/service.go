// Package service implements the authentication callback orchestrator: the
// state machine between an OS-level URL-open event and session establishment.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkgate/internal/callback/metrics"
	"linkgate/internal/callback/models"
	"linkgate/internal/callback/ports"
	"linkgate/internal/callback/tracer"
	"linkgate/internal/deeplink"
	dErrors "linkgate/pkg/domain-errors"
)

// TokenValidator is the slice of the state-token manager the orchestrator
// needs: replay/CSRF checking and idempotent cleanup.
type TokenValidator interface {
	Validate(ctx context.Context, presented string) (bool, error)
	Clear(ctx context.Context) error
}

type Service struct {
	validator *deeplink.Validator
	tokens    TokenValidator
	provider  ports.SessionProvider
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(validator *deeplink.Validator, tokens TokenValidator, provider ports.SessionProvider, opts ...Option) (*Service, error) {
	if validator == nil {
		return nil, fmt.Errorf("deep-link validator is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("state-token validator is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("session provider is required")
	}

	svc := &Service{
		validator: validator,
		tokens:    tokens,
		provider:  provider,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// pass tracks one traversal of the state machine.
type pass struct {
	transitions []models.State
}

func newPass() *pass {
	return &pass{transitions: []models.State{models.StateIdle}}
}

func (p *pass) to(state models.State) {
	p.transitions = append(p.transitions, state)
}

func (p *pass) failed(reason deeplink.ReasonCode, message string) *models.Outcome {
	p.to(models.StateFailed)
	return &models.Outcome{
		State:       models.StateFailed,
		Reason:      reason,
		UserMessage: message,
		Transitions: p.transitions,
	}
}

// HandleURLOpen runs one raw URL delivery through the state machine. Only the
// first element of urls is processed.
//
// The check order is a security contract: structural validation precedes
// state-token validation, which precedes the type check, which precedes any
// provider call. Running the token check earlier would let a malformed URL
// consume a legitimate single-use token via a crafted probe.
//
// Classified failures come back as a Failed outcome with a nil error; a
// non-nil error means the pass itself could not run (no URL delivered, token
// store unreachable).
func (s *Service) HandleURLOpen(ctx context.Context, urls []string) (outcome *models.Outcome, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanHandleURLOpen,
		tracer.Int64(tracer.AttrURLCount, int64(len(urls))),
	)
	start := time.Now()
	defer func() {
		span.End(err)
		if s.metrics != nil {
			s.metrics.ObserveHandleDuration(time.Since(start).Seconds())
		}
	}()

	if s.metrics != nil {
		s.metrics.IncrementURLOpens()
	}

	if len(urls) == 0 {
		err = dErrors.New(dErrors.CodeInvalidInput, "no url delivered with open event")
		return nil, err
	}
	raw := urls[0]

	p := newPass()
	p.to(models.StateValidatingURL)

	res := s.validator.Validate(raw)
	if !res.Valid {
		return s.rejected(ctx, span, p, res.Reason, res.Detail), nil
	}

	p.to(models.StateValidatingState)

	stateValue, hasState := res.Params[deeplink.ParamState]
	if !hasState {
		return s.rejected(ctx, span, p, deeplink.ReasonMissingStateToken, "state parameter absent"), nil
	}

	span.AddEvent(tracer.SpanValidateState,
		tracer.String(tracer.AttrStateHash, tracer.HashToken(stateValue)),
	)
	ok, verr := s.tokens.Validate(ctx, stateValue)
	if verr != nil {
		err = dErrors.Wrap(verr, dErrors.CodeStoreUnavailable, "state token validation unavailable")
		return nil, err
	}
	if !ok {
		return s.rejected(ctx, span, p, deeplink.ReasonInvalidStateToken, "state token absent, expired, or mismatched"), nil
	}

	var flow models.Flow
	switch res.Path {
	case deeplink.PathSessionCallback:
		flow = models.FlowEmailConfirmation
		p.to(models.StateEmailConfirmation)
	case deeplink.PathPasswordRecovery:
		flow = models.FlowPasswordRecovery
		p.to(models.StatePasswordRecovery)
		if res.Params[deeplink.ParamType] != deeplink.TypeRecovery {
			return s.rejected(ctx, span, p, deeplink.ReasonInvalidTypeParam, "type parameter absent or not the recovery literal"), nil
		}
	}
	span.SetAttributes(
		tracer.String(tracer.AttrFlow, string(flow)),
		tracer.String(tracer.AttrPath, res.Path),
	)

	p.to(models.StateSessionEstablishing)

	handle, perr := s.provider.SetSession(ctx, res.Params[deeplink.ParamAccessToken], res.Params[deeplink.ParamRefreshToken])
	if perr != nil {
		// The token was already consumed by a successful validation; Clear is
		// an idempotent cleanup so a half-finished handoff leaves no state.
		_ = s.tokens.Clear(ctx)

		s.logger.WarnContext(ctx, "session_establishment_failed", "flow", string(flow))
		s.logger.DebugContext(ctx, "session_establishment_failed_detail",
			"flow", string(flow),
			"detail", perr.Error(),
		)
		if s.metrics != nil {
			s.metrics.IncrementProviderFailures()
		}

		p.to(models.StateFailed)
		return &models.Outcome{
			State:       models.StateFailed,
			Flow:        flow,
			UserMessage: userMessageForProviderError(perr),
			Transitions: p.transitions,
		}, nil
	}

	p.to(models.StateComplete)
	s.logger.InfoContext(ctx, "session_established", "flow", string(flow))
	if s.metrics != nil {
		s.metrics.IncrementSessionsEstablished(string(flow))
	}

	return &models.Outcome{
		State:   models.StateComplete,
		Flow:    flow,
		Session: handle,
		// Recovery completion enters an awaiting-new-password sub-mode; the
		// password itself is collected through an in-app form, never the URL.
		AwaitingNewPassword: flow == models.FlowPasswordRecovery,
		Transitions:         p.transitions,
	}, nil
}

// rejected converts a classified failure into the terminal Failed outcome,
// logging the reason code always and the diagnostic detail only where the log
// policy lets debug records through.
func (s *Service) rejected(ctx context.Context, span tracer.Span, p *pass, reason deeplink.ReasonCode, detail string) *models.Outcome {
	s.logger.WarnContext(ctx, "deeplink_rejected", "reason", reason.String())
	if detail != "" {
		s.logger.DebugContext(ctx, "deeplink_rejected_detail",
			"reason", reason.String(),
			"detail", detail,
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementValidationFailures(reason.String())
	}
	span.SetAttributes(tracer.String(tracer.AttrReason, reason.String()))

	return p.failed(reason, userMessageForReason(reason))
}
