// Package devstub is an in-process identity provider for local development
// and tests. It keeps bcrypt-hashed credentials in memory and issues
// HS256-signed access tokens, so the full deep-link flow can run end to end
// without a hosted identity service.
package devstub

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"linkgate/internal/callback/models"
	"linkgate/internal/platform/requesttime"
	dErrors "linkgate/pkg/domain-errors"
)

const minPasswordLength = 8

// AccessTokenClaims are the claims carried by devstub access tokens.
type AccessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type account struct {
	id           string
	email        string
	passwordHash []byte
}

type Provider struct {
	mu        sync.RWMutex
	accounts  map[string]*account // keyed by email
	secret    []byte
	accessTTL time.Duration
	logger    *slog.Logger
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		p.accessTTL = ttl
	}
}

func New(secret []byte, opts ...Option) (*Provider, error) {
	if len(secret) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signing secret is required")
	}
	p := &Provider{
		accounts:  make(map[string]*account),
		secret:    secret,
		accessTTL: time.Hour,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*models.SessionHandle, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if len(password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password is too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return nil, dErrors.New(dErrors.CodeProviderRejected, "email already registered")
	}
	acct := &account{
		id:           uuid.NewString(),
		email:        email,
		passwordHash: hash,
	}
	p.accounts[email] = acct

	p.logger.InfoContext(ctx, "devstub_account_created", "user_id", acct.id)
	return p.handleFor(ctx, acct), nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.SessionHandle, error) {
	p.mu.RLock()
	acct, exists := p.accounts[email]
	p.mu.RUnlock()

	if !exists {
		// Hash anyway so missing accounts are not distinguishable by timing.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, dErrors.New(dErrors.CodeProviderRejected, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeProviderRejected, "invalid credentials")
	}
	return p.handleFor(ctx, acct), nil
}

// SetSession accepts the access/refresh token pair extracted from a validated
// deep link. The access token must be a live HS256 token signed with the
// provider's secret for a known account.
func (p *Provider) SetSession(ctx context.Context, accessToken, refreshToken string) (*models.SessionHandle, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, dErrors.New(dErrors.CodeProviderRejected, "invalid token: token pair incomplete")
	}

	claims := new(AccessTokenClaims)
	// Expiry is mandatory: without it claims.ExpiresAt is nil and the session
	// handle below would dereference it.
	parsed, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return p.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeProviderRejected, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeProviderRejected, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeProviderRejected, "invalid token")
	}

	p.mu.RLock()
	acct, exists := p.accounts[claims.Email]
	p.mu.RUnlock()
	if !exists || acct.id != claims.Subject {
		return nil, dErrors.New(dErrors.CodeProviderRejected, "invalid token: unknown subject")
	}

	return &models.SessionHandle{
		UserID:    acct.id,
		Email:     acct.email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// RequestRecovery never reveals whether the account exists.
func (p *Provider) RequestRecovery(ctx context.Context, email string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	p.logger.InfoContext(ctx, "devstub_recovery_requested")
	return nil
}

// IssueTokens mints an access/refresh pair for an existing account. This is
// the dev-side counterpart of SetSession, used to construct working deep
// links locally.
func (p *Provider) IssueTokens(ctx context.Context, email string) (accessToken, refreshToken string, err error) {
	p.mu.RLock()
	acct, exists := p.accounts[email]
	p.mu.RUnlock()
	if !exists {
		return "", "", dErrors.New(dErrors.CodeProviderRejected, "unknown account")
	}

	now := requesttime.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		Email: acct.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.id,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	accessToken, err = token.SignedString(p.secret)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}

	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}
	refreshToken = base64.RawURLEncoding.EncodeToString(randomBytes)

	return accessToken, refreshToken, nil
}

func (p *Provider) handleFor(ctx context.Context, acct *account) *models.SessionHandle {
	return &models.SessionHandle{
		UserID:    acct.id,
		Email:     acct.email,
		ExpiresAt: requesttime.Now(ctx).Add(p.accessTTL),
	}
}

// dummyHash is a valid bcrypt hash of an unguessable value, compared against
// when the account does not exist.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()
