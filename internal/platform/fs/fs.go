// Package fs provides a filesystem Store backend. Each job gets its own
// JSON file named by the job id, so per-id atomicity reduces to atomic
// file replacement: records are written to a temp file and renamed into
// place, and a reader never observes a half-written record.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

// Store persists one file per job under a data directory.
type Store struct {
	dir string
}

// New creates a filesystem Store rooted at dir, creating the directory
// if it does not exist.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveJob persists or overwrites the record for rec.ID.
//
// The record is written to a temp file in the same directory and renamed
// over the final path. Rename is atomic within a filesystem, so a
// concurrent LoadJob sees either the old record or the new one, never a
// partial write.
func (s *Store) SaveJob(ctx context.Context, rec job.Record) error {
	if err := rec.Validate(); err != nil {
		return store.NewStoreError("fs", "save", "invalid record", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return store.NewStoreError("fs", "save", "failed to encode record", err)
	}

	tmp, err := os.CreateTemp(s.dir, rec.ID.String()+".tmp-*")
	if err != nil {
		return store.NewStoreError("fs", "save", "failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return store.NewStoreError("fs", "save", "failed to write record", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return store.NewStoreError("fs", "save", "failed to close temp file", err)
	}

	if err := os.Rename(tmpName, s.path(rec.ID)); err != nil {
		os.Remove(tmpName)
		return store.NewStoreError("fs", "save", "failed to replace record file", err)
	}
	return nil
}

// LoadJob returns the most recently saved record for id.
func (s *Store) LoadJob(ctx context.Context, id uuid.UUID) (job.Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return job.Record{}, store.ErrJobNotFound
		}
		return job.Record{}, store.NewStoreError("fs", "load", "failed to read record file", err)
	}

	var rec job.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return job.Record{}, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return rec, nil
}

// path returns the record file for id. The UUID string form is
// filesystem-safe, so the id is the file name.
func (s *Store) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}
