// Package postgres provides a PostgreSQL Store backend using database/sql
// over the pgx driver. Per-id save atomicity comes from the database's
// row-level upsert; the schema is managed with goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/platform/logger"
	"github.com/phrazzld/jobvault/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists job records in a PostgreSQL jobs table.
type Store struct {
	db *sql.DB
}

// Open connects to the database at url and verifies the connection.
func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle. The caller keeps ownership
// of the handle's lifecycle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveJob persists or overwrites the record for rec.ID using an upsert,
// so the save is atomic per id.
func (s *Store) SaveJob(ctx context.Context, rec job.Record) error {
	log := logger.FromContext(ctx)

	if err := rec.Validate(); err != nil {
		return store.NewStoreError("postgres", "save", "invalid record", err)
	}

	query := `
		INSERT INTO jobs (id, status, result, error_message, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    result = EXCLUDED.result,
		    error_message = EXCLUDED.error_message,
		    metadata = EXCLUDED.metadata,
		    updated_at = EXCLUDED.updated_at
	`

	// Result and metadata are stored as JSONB; either may be absent.
	var result, metadata []byte
	if len(rec.Result) > 0 {
		result = rec.Result
	}
	if len(rec.Metadata) > 0 {
		metadata = rec.Metadata
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Status,
		result,
		rec.Error,
		metadata,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save job record",
			"job_id", rec.ID,
			"status", rec.Status,
			"error", err)
		return store.NewStoreError("postgres", "save", "failed to upsert record", err)
	}

	return nil
}

// LoadJob returns the most recently saved record for id.
func (s *Store) LoadJob(ctx context.Context, id uuid.UUID) (job.Record, error) {
	query := `
		SELECT id, status, result, error_message, metadata, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	var rec job.Record
	var result, metadata []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Status,
		&result,
		&rec.Error,
		&metadata,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return job.Record{}, store.ErrJobNotFound
		}
		return job.Record{}, store.NewStoreError("postgres", "load", "failed to query record", err)
	}

	rec.Result = result
	rec.Metadata = metadata
	if !rec.Status.Valid() {
		return job.Record{}, fmt.Errorf("%w: unknown status %q", store.ErrCorrupt, rec.Status)
	}
	return rec, nil
}
