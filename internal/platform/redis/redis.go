// Package redis provides a Redis Store backend. Each record is a single
// JSON value keyed by job id, so SET gives per-id atomicity. An optional
// TTL implements record retention as a backend policy; the job core
// itself never deletes records.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

const keyPrefix = "job:"

// Store persists job records as JSON values in Redis.
type Store struct {
	rdb *goredis.Client
	ttl time.Duration
}

// New creates a Redis Store on top of an existing client. A zero ttl
// keeps records until something else removes them; a positive ttl lets
// Redis expire terminal records after the retention period. The TTL is
// refreshed on every save, so an in-flight job never expires mid-run.
func New(rdb *goredis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// SaveJob persists or overwrites the record for rec.ID.
func (s *Store) SaveJob(ctx context.Context, rec job.Record) error {
	if err := rec.Validate(); err != nil {
		return store.NewStoreError("redis", "save", "invalid record", err)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return store.NewStoreError("redis", "save", "failed to encode record", err)
	}

	if err := s.rdb.Set(ctx, key(rec.ID), payload, s.ttl).Err(); err != nil {
		return store.NewStoreError("redis", "save", "failed to write record", err)
	}
	return nil
}

// LoadJob returns the most recently saved record for id.
func (s *Store) LoadJob(ctx context.Context, id uuid.UUID) (job.Record, error) {
	data, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return job.Record{}, store.ErrJobNotFound
		}
		return job.Record{}, store.NewStoreError("redis", "load", "failed to read record", err)
	}

	var rec job.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return job.Record{}, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return rec, nil
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}
