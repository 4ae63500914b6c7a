package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/job"
)

// Store defines the persistence contract that every backend must satisfy.
//
// Implementations must make SaveJob atomic with respect to a single job id:
// a concurrent LoadJob never observes a partially written record. No
// cross-id transactions or ordering guarantees are required, and saves to
// different ids must never interfere with each other.
// Version: 1.0
type Store interface {
	// SaveJob persists or overwrites the record for rec.ID.
	SaveJob(ctx context.Context, rec job.Record) error

	// LoadJob returns the most recently saved record for id.
	// It returns ErrJobNotFound when no record exists for id, and
	// ErrCorrupt when a record exists but cannot be decoded.
	LoadJob(ctx context.Context, id uuid.UUID) (job.Record, error)
}
