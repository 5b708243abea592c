package devstub

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	dErrors "linkgate/pkg/domain-errors"
)

type DevStubSuite struct {
	suite.Suite
	provider *Provider
	ctx      context.Context
}

func TestDevStubSuite(t *testing.T) {
	suite.Run(t, new(DevStubSuite))
}

func (s *DevStubSuite) SetupTest() {
	var err error
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.provider, err = New([]byte("dev-signing-secret"), WithLogger(logger))
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *DevStubSuite) signUp(email, password string) {
	_, err := s.provider.SignUp(s.ctx, email, password)
	s.Require().NoError(err)
}

func (s *DevStubSuite) TestSignUpAndSignIn() {
	s.signUp("user@example.com", "correct horse battery")

	handle, err := s.provider.SignIn(s.ctx, "user@example.com", "correct horse battery")
	s.Require().NoError(err)
	s.Equal("user@example.com", handle.Email)
	s.NotEmpty(handle.UserID)
}

func (s *DevStubSuite) TestSignInWrongPassword() {
	s.signUp("user@example.com", "correct horse battery")

	_, err := s.provider.SignIn(s.ctx, "user@example.com", "wrong password!")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProviderRejected))
}

func (s *DevStubSuite) TestSignInUnknownAccount() {
	_, err := s.provider.SignIn(s.ctx, "nobody@example.com", "whatever123")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProviderRejected))
}

func (s *DevStubSuite) TestSignUpRejectsDuplicates() {
	s.signUp("user@example.com", "correct horse battery")

	_, err := s.provider.SignUp(s.ctx, "user@example.com", "another password")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProviderRejected))
}

func (s *DevStubSuite) TestSignUpRejectsShortPassword() {
	_, err := s.provider.SignUp(s.ctx, "user@example.com", "short")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *DevStubSuite) TestIssueTokensThenSetSession() {
	s.signUp("user@example.com", "correct horse battery")

	access, refresh, err := s.provider.IssueTokens(s.ctx, "user@example.com")
	s.Require().NoError(err)
	s.NotEmpty(access)
	s.NotEmpty(refresh)

	handle, err := s.provider.SetSession(s.ctx, access, refresh)
	s.Require().NoError(err)
	s.Equal("user@example.com", handle.Email)
	s.True(handle.ExpiresAt.After(time.Now()))
}

func (s *DevStubSuite) TestSetSessionRejectsTamperedToken() {
	s.signUp("user@example.com", "correct horse battery")
	access, refresh, err := s.provider.IssueTokens(s.ctx, "user@example.com")
	s.Require().NoError(err)

	_, err = s.provider.SetSession(s.ctx, access+"x", refresh)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProviderRejected))
}

func (s *DevStubSuite) TestSetSessionRejectsExpiredToken() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider, err := New([]byte("dev-signing-secret"), WithLogger(logger), WithAccessTTL(-time.Minute))
	s.Require().NoError(err)

	_, err = provider.SignUp(s.ctx, "user@example.com", "correct horse battery")
	s.Require().NoError(err)
	access, refresh, err := provider.IssueTokens(s.ctx, "user@example.com")
	s.Require().NoError(err)

	_, err = provider.SetSession(s.ctx, access, refresh)
	s.Require().Error(err)
	s.Contains(err.Error(), "expired")
}

func (s *DevStubSuite) TestSetSessionRejectsTokenWithoutExpiry() {
	s.signUp("user@example.com", "correct horse battery")

	s.provider.mu.RLock()
	acct := s.provider.accounts["user@example.com"]
	s.provider.mu.RUnlock()
	s.Require().NotNil(acct)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		Email: acct.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: acct.id,
		},
	})
	access, err := token.SignedString([]byte("dev-signing-secret"))
	s.Require().NoError(err)

	_, err = s.provider.SetSession(s.ctx, access, "refresh-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProviderRejected))
}

func (s *DevStubSuite) TestSetSessionRejectsIncompletePair() {
	_, err := s.provider.SetSession(s.ctx, "", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProviderRejected))
}

func (s *DevStubSuite) TestRequestRecoveryDoesNotRevealExistence() {
	s.signUp("known@example.com", "correct horse battery")

	s.NoError(s.provider.RequestRecovery(s.ctx, "known@example.com"))
	s.NoError(s.provider.RequestRecovery(s.ctx, "unknown@example.com"))
}
