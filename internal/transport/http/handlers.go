package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	callbackmodels "linkgate/internal/callback/models"
	"linkgate/internal/callback/ports"
	callbacksvc "linkgate/internal/callback/service"
	"linkgate/internal/ratelimit/service/authlimit"
	dErrors "linkgate/pkg/domain-errors"
	s "linkgate/pkg/string"
	"linkgate/pkg/validation"
)

// TokenIssuer initiates an auth flow by minting and storing a fresh CSRF
// state token.
type TokenIssuer interface {
	Issue(ctx context.Context) (string, error)
}

type Handler struct {
	callbacks *callbacksvc.Service
	tokens    TokenIssuer
	limiter   *authlimit.Service
	provider  ports.SessionProvider
	logger    *slog.Logger
}

func NewHandler(callbacks *callbacksvc.Service, tokens TokenIssuer, limiter *authlimit.Service, provider ports.SessionProvider, logger *slog.Logger) *Handler {
	return &Handler{
		callbacks: callbacks,
		tokens:    tokens,
		limiter:   limiter,
		provider:  provider,
		logger:    logger,
	}
}

type openRequest struct {
	URLs []string `json:"urls" validate:"required,min=1"`
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type recoverRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type sessionResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

type outcomeResponse struct {
	Status              string           `json:"status"`
	Flow                string           `json:"flow,omitempty"`
	UserMessage         string           `json:"user_message,omitempty"`
	AwaitingNewPassword bool             `json:"awaiting_new_password,omitempty"`
	Session             *sessionResponse `json:"session,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeepLinkOpen feeds a URL-open event through the callback state
// machine. The response never carries a reason code or diagnostic detail,
// only the terminal status and the generic user message.
func (h *Handler) handleDeepLinkOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !h.decode(w, r, &req) {
		return
	}

	outcome, err := h.callbacks.HandleURLOpen(r.Context(), req.URLs)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := outcomeResponse{
		Status:              string(outcome.State),
		Flow:                string(outcome.Flow),
		UserMessage:         outcome.UserMessage,
		AwaitingNewPassword: outcome.AwaitingNewPassword,
	}
	if outcome.Session != nil {
		resp.Session = &sessionResponse{
			UserID:    outcome.Session.UserID,
			Email:     outcome.Session.Email,
			ExpiresAt: outcome.Session.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	status := http.StatusOK
	if outcome.Failed() {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	email := s.NormalizeEmail(req.Email)

	limit, err := h.limiter.CheckLimit(ctx, email)
	if err != nil {
		writeError(w, err)
		return
	}
	if !limit.Allowed {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":          string(dErrors.CodeRateLimited),
			"retry_after_ms": limit.RetryAfter.Milliseconds(),
		})
		return
	}

	handle, signInErr := h.provider.SignIn(ctx, email, req.Password)
	if err := h.limiter.RecordAttempt(ctx, email, signInErr == nil); err != nil {
		h.logger.ErrorContext(ctx, "failed to record auth attempt", "error", err)
	}

	if signInErr != nil {
		remaining, err := h.limiter.GetRemainingAttempts(ctx, email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":              string(dErrors.CodeUnauthorized),
			"remaining_attempts": remaining,
		})
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(handle))
}

// handleSignUp registers the account and issues the state token that the
// confirmation deep link must carry back.
func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	email := s.NormalizeEmail(req.Email)

	handle, err := h.provider.SignUp(ctx, email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	state, err := h.tokens.Issue(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": handle.UserID,
		"email":   handle.Email,
		"state":   state,
	})
}

// handleRecover initiates password recovery. The response is identical
// whether or not the account exists.
func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	email := s.NormalizeEmail(req.Email)

	if err := h.provider.RequestRecovery(ctx, email); err != nil {
		writeError(w, err)
		return
	}

	state, err := h.tokens.Issue(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"state": state,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return false
	}
	if err := validation.Validate(req); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func toSessionResponse(handle *callbackmodels.SessionHandle) sessionResponse {
	return sessionResponse{
		UserID:    handle.UserID,
		Email:     handle.Email,
		ExpiresAt: handle.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// statusForCode maps domain error categories onto HTTP statuses.
func statusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeProviderRejected:
		return http.StatusConflict
	case dErrors.CodeProviderUnavailable:
		return http.StatusBadGateway
	case dErrors.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	status := http.StatusInternalServerError
	code := string(dErrors.CodeInternal)
	message := "internal error"
	if errors.As(err, &domainErr) {
		status = statusForCode(domainErr.Code)
		code = string(domainErr.Code)
		message = domainErr.Message
	}
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
