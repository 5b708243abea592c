package statetoken

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"linkgate/internal/platform/requesttime"
)

type ManagerSuite struct {
	suite.Suite
	store   *InMemoryStore
	manager *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.store = NewInMemoryStore()

	var err error
	s.manager, err = New(s.store)
	s.Require().NoError(err)
}

func (s *ManagerSuite) TestGenerate() {
	s.Run("values are URL-safe", func() {
		value, err := Generate()
		s.NoError(err)
		s.NotContains(value, "+")
		s.NotContains(value, "/")
		s.NotContains(value, "=")
		// 32 bytes in unpadded base64url is 43 characters.
		s.Len(value, 43)
	})

	s.Run("large sample contains no collisions", func() {
		const sample = 10000
		seen := make(map[string]bool, sample)
		for i := 0; i < sample; i++ {
			value, err := Generate()
			s.Require().NoError(err)
			s.Require().False(seen[value], "generated value collided")
			seen[value] = true
		}
	})
}

func (s *ManagerSuite) TestValidate() {
	ctx := context.Background()

	s.Run("stored token validates exactly once", func() {
		token, err := s.manager.Issue(ctx)
		s.Require().NoError(err)

		ok, err := s.manager.Validate(ctx, token)
		s.NoError(err)
		s.True(ok)

		// The slot was consumed: replaying the same value must fail.
		ok, err = s.manager.Validate(ctx, token)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("mismatch leaves the slot untouched", func() {
		token, err := s.manager.Issue(ctx)
		s.Require().NoError(err)

		ok, err := s.manager.Validate(ctx, "not-the-token")
		s.NoError(err)
		s.False(ok)

		// A failed attempt does not consume; the correct value still works.
		ok, err = s.manager.Validate(ctx, token)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("empty slot is simply false", func() {
		ok, err := s.manager.Validate(ctx, "anything")
		s.NoError(err)
		s.False(ok)
	})

	s.Run("storing a new token invalidates the previous one", func() {
		first, err := s.manager.Issue(ctx)
		s.Require().NoError(err)
		second, err := s.manager.Issue(ctx)
		s.Require().NoError(err)
		s.NotEqual(first, second)

		ok, err := s.manager.Validate(ctx, first)
		s.NoError(err)
		s.False(ok, "overwritten token must be permanently unvalidatable")

		ok, err = s.manager.Validate(ctx, second)
		s.NoError(err)
		s.True(ok)
	})
}

func (s *ManagerSuite) TestExpiry() {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issueCtx := requesttime.WithTime(context.Background(), issuedAt)

	s.Run("token older than TTL is treated as absent", func() {
		token, err := s.manager.Issue(issueCtx)
		s.Require().NoError(err)

		lateCtx := requesttime.WithTime(context.Background(), issuedAt.Add(TTL+time.Second))
		ok, err := s.manager.Validate(lateCtx, token)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("token exactly at TTL is still live", func() {
		token, err := s.manager.Issue(issueCtx)
		s.Require().NoError(err)

		edgeCtx := requesttime.WithTime(context.Background(), issuedAt.Add(TTL))
		ok, err := s.manager.Validate(edgeCtx, token)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("expired token is not physically purged by validation", func() {
		token, err := s.manager.Issue(issueCtx)
		s.Require().NoError(err)

		lateCtx := requesttime.WithTime(context.Background(), issuedAt.Add(time.Hour))
		ok, err := s.manager.Validate(lateCtx, token)
		s.NoError(err)
		s.False(ok)

		stored, err := s.store.Get(context.Background())
		s.NoError(err)
		s.NotNil(stored, "expiry is lazy; only Clear or a new Store purges")
	})
}

func (s *ManagerSuite) TestClear() {
	ctx := context.Background()

	token, err := s.manager.Issue(ctx)
	s.Require().NoError(err)

	s.NoError(s.manager.Clear(ctx))

	ok, err := s.manager.Validate(ctx, token)
	s.NoError(err)
	s.False(ok)

	s.Run("clear is idempotent", func() {
		s.NoError(s.manager.Clear(ctx))
	})
}

func (s *ManagerSuite) TestLifecycleLogging() {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	manager, err := New(NewInMemoryStore(), WithLogger(logger))
	s.Require().NoError(err)

	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := requesttime.WithTime(context.Background(), issuedAt)

	token, err := manager.Issue(ctx)
	s.Require().NoError(err)

	lateCtx := requesttime.WithTime(context.Background(), issuedAt.Add(TTL+time.Second))
	ok, err := manager.Validate(lateCtx, token)
	s.Require().NoError(err)
	s.Require().False(ok)

	ok, err = manager.Validate(ctx, token)
	s.Require().NoError(err)
	s.Require().True(ok)

	logged := buf.String()
	s.Contains(logged, "state_token_stored")
	s.Contains(logged, "state_token_expired")
	s.Contains(logged, "state_token_consumed")
	s.NotContains(logged, token, "token value must never be logged")
}

func (s *ManagerSuite) TestNew() {
	s.Run("nil store is rejected", func() {
		_, err := New(nil)
		s.Error(err)
	})
}

func TestGenerateAlphabet(t *testing.T) {
	const urlSafe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	value, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range value {
		if !strings.ContainsRune(urlSafe, r) {
			t.Fatalf("character %q outside URL-safe alphabet", r)
		}
	}
}
