package authlimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"linkgate/internal/ratelimit/models"
)

type InMemoryAttemptStoreSuite struct {
	suite.Suite
	store *InMemoryAttemptStore
	ctx   context.Context
}

func TestInMemoryAttemptStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAttemptStoreSuite))
}

func (s *InMemoryAttemptStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *InMemoryAttemptStoreSuite) TestGetMissingReturnsNil() {
	record, err := s.store.Get(s.ctx, "nobody@example.com")
	s.NoError(err)
	s.Nil(record)
}

func (s *InMemoryAttemptStoreSuite) TestPutAndGet() {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	record, err := models.NewAttemptRecord("user@example.com", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Put(s.ctx, record))

	got, err := s.store.Get(s.ctx, "user@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(1, got.AttemptCount)
	s.True(got.WindowStart.Equal(now))
}

func (s *InMemoryAttemptStoreSuite) TestGetReturnsCopy() {
	now := time.Now()
	record, err := models.NewAttemptRecord("user@example.com", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Put(s.ctx, record))

	got, err := s.store.Get(s.ctx, "user@example.com")
	s.Require().NoError(err)
	got.AttemptCount = 99

	again, err := s.store.Get(s.ctx, "user@example.com")
	s.Require().NoError(err)
	s.Equal(1, again.AttemptCount, "mutating a returned record must not affect the store")
}

func (s *InMemoryAttemptStoreSuite) TestDelete() {
	now := time.Now()
	record, err := models.NewAttemptRecord("user@example.com", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Put(s.ctx, record))

	s.Require().NoError(s.store.Delete(s.ctx, "user@example.com"))

	got, err := s.store.Get(s.ctx, "user@example.com")
	s.NoError(err)
	s.Nil(got)

	s.NoError(s.store.Delete(s.ctx, "user@example.com"), "deleting a missing record is not an error")
}

func (s *InMemoryAttemptStoreSuite) TestDeleteStale() {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	old, err := models.NewAttemptRecord("old@example.com", base.Add(-25*time.Hour))
	s.Require().NoError(err)
	fresh, err := models.NewAttemptRecord("fresh@example.com", base.Add(-time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Put(s.ctx, old))
	s.Require().NoError(s.store.Put(s.ctx, fresh))

	removed, err := s.store.DeleteStale(s.ctx, base.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, removed)

	got, err := s.store.Get(s.ctx, "old@example.com")
	s.NoError(err)
	s.Nil(got)

	got, err = s.store.Get(s.ctx, "fresh@example.com")
	s.NoError(err)
	s.NotNil(got)
}
