// Package ports declares the outbound interfaces the callback orchestrator
// and the authentication endpoints depend on.
package ports

import (
	"context"

	"linkgate/internal/callback/models"
)

// SessionProvider is the external identity service. It is treated as opaque:
// this gateway decides whether a URL-carried credential handoff is
// trustworthy, the provider decides whether the credentials themselves are.
type SessionProvider interface {
	// SetSession exchanges a validated access/refresh token pair for an
	// established session. It is called with exactly the two token strings
	// extracted from validated query parameters, never with any other
	// URL-derived data.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*models.SessionHandle, error)

	SignIn(ctx context.Context, email, password string) (*models.SessionHandle, error)
	SignUp(ctx context.Context, email, password string) (*models.SessionHandle, error)

	// RequestRecovery asks the provider to send a password-recovery link for
	// the given email. The provider must not reveal whether the account
	// exists.
	RequestRecovery(ctx context.Context, email string) error
}
