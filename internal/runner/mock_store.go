package runner

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

// MockStore implements the store.Store interface for testing
type MockStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]job.Record
	history map[uuid.UUID][]job.Status
	SaveFn  func(ctx context.Context, rec job.Record) error
	LoadFn  func(ctx context.Context, id uuid.UUID) (job.Record, error)
}

// NewMockStore creates a new MockStore with default implementations
func NewMockStore() *MockStore {
	s := &MockStore{
		records: make(map[uuid.UUID]job.Record),
		history: make(map[uuid.UUID][]job.Status),
	}

	// Default behavior for SaveJob: keep the record and its status history
	s.SaveFn = func(ctx context.Context, rec job.Record) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		s.records[rec.ID] = rec
		s.history[rec.ID] = append(s.history[rec.ID], rec.Status)
		return nil
	}

	// Default behavior for LoadJob
	s.LoadFn = func(ctx context.Context, id uuid.UUID) (job.Record, error) {
		s.mutex.RLock()
		defer s.mutex.RUnlock()

		rec, ok := s.records[id]
		if !ok {
			return job.Record{}, store.ErrJobNotFound
		}
		return rec, nil
	}

	return s
}

// SaveJob persists a record to the mock store
func (s *MockStore) SaveJob(ctx context.Context, rec job.Record) error {
	return s.SaveFn(ctx, rec)
}

// LoadJob retrieves a record from the mock store
func (s *MockStore) LoadJob(ctx context.Context, id uuid.UUID) (job.Record, error) {
	return s.LoadFn(ctx, id)
}

// StatusHistory returns every status saved for id, in save order.
func (s *MockStore) StatusHistory(id uuid.UUID) []job.Status {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]job.Status, len(s.history[id]))
	copy(out, s.history[id])
	return out
}

// Len returns how many distinct job records the mock store holds.
func (s *MockStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.records)
}
