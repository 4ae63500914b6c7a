// Package memory provides an in-memory Store backend. Records live only
// for the process lifetime, which makes it suitable for tests and for
// embedding in programs that do not need durability.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

// Store keeps job records in a map guarded by a read-write mutex.
// Saves to different ids never block each other's loads.
type Store struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]job.Record
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[uuid.UUID]job.Record),
	}
}

// SaveJob persists or overwrites the record for rec.ID.
func (s *Store) SaveJob(ctx context.Context, rec job.Record) error {
	if err := rec.Validate(); err != nil {
		return store.NewStoreError("memory", "save", "invalid record", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[rec.ID] = rec
	return nil
}

// LoadJob returns the most recently saved record for id.
func (s *Store) LoadJob(ctx context.Context, id uuid.UUID) (job.Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return job.Record{}, store.ErrJobNotFound
	}
	return rec, nil
}
