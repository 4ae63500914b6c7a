// Package badger provides an embedded key-value Store backend built on
// Badger. It gives durable single-process persistence without an external
// database; per-id atomicity comes from Badger's transactions.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

const keyPrefix = "job:"

// Store persists job records in a Badger database under a data directory.
type Store struct {
	db *badgerdb.DB
}

// New opens (or creates) the Badger database under dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	opts := badgerdb.DefaultOptions(filepath.Join(dataDir, "badger"))
	opts.Logger = nil // Badger's own logging is too chatty for a library default

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveJob persists or overwrites the record for rec.ID in one transaction.
func (s *Store) SaveJob(ctx context.Context, rec job.Record) error {
	if err := rec.Validate(); err != nil {
		return store.NewStoreError("badger", "save", "invalid record", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return store.NewStoreError("badger", "save", "failed to encode record", err)
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key(rec.ID), data)
	})
	if err != nil {
		return store.NewStoreError("badger", "save", "failed to write record", err)
	}
	return nil
}

// LoadJob returns the most recently saved record for id.
func (s *Store) LoadJob(ctx context.Context, id uuid.UUID) (job.Record, error) {
	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return job.Record{}, store.ErrJobNotFound
		}
		return job.Record{}, store.NewStoreError("badger", "load", "failed to read record", err)
	}

	var rec job.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return job.Record{}, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return rec, nil
}

func key(id uuid.UUID) []byte {
	return []byte(keyPrefix + id.String())
}
