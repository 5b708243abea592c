package authlimit

import (
	"context"
	"sync"
	"time"

	"linkgate/internal/ratelimit/models"
)

type InMemoryAttemptStore struct {
	mu      sync.RWMutex
	records map[string]*models.AttemptRecord // keyed by identifier
}

func New() *InMemoryAttemptStore {
	return &InMemoryAttemptStore{
		records: make(map[string]*models.AttemptRecord),
	}
}

func (s *InMemoryAttemptStore) Get(_ context.Context, identifier string) (*models.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, exists := s.records[identifier]; exists {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryAttemptStore) Put(_ context.Context, record *models.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records[record.Identifier] = &copied
	return nil
}

func (s *InMemoryAttemptStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, identifier)
	return nil
}

// DeleteStale removes every record whose window started before cutoff and
// returns how many were removed.
func (s *InMemoryAttemptStore) DeleteStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for identifier, record := range s.records {
		if record.WindowStart.Before(cutoff) {
			delete(s.records, identifier)
			removed++
		}
	}
	return removed, nil
}
