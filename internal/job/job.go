package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job
type Status string

// Possible job status values
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final. A job never transitions
// out of a terminal status.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

// Record is the durable snapshot of a job's identity and status.
// It is what Store backends persist and what callers get back from a
// status query. Result is set only for succeeded jobs; Error only for
// failed ones. Metadata is caller-supplied at submission time and rides
// along unchanged through every transition.
// Version: 1.0
type Record struct {
	ID        uuid.UUID       `json:"id"`
	Status    Status          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewRecord creates the initial record for a freshly submitted job.
func NewRecord(id uuid.UUID) Record {
	now := time.Now().UTC()
	return Record{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Running returns a copy of the record transitioned to the running state.
func (r Record) Running() Record {
	r.Status = StatusRunning
	r.UpdatedAt = time.Now().UTC()
	return r
}

// Succeeded returns a copy of the record transitioned to the succeeded
// state, carrying the job's encoded result.
func (r Record) Succeeded(result json.RawMessage) Record {
	r.Status = StatusSucceeded
	r.Result = result
	r.Error = ""
	r.UpdatedAt = time.Now().UTC()
	return r
}

// Failed returns a copy of the record transitioned to the failed state,
// carrying the job error's message verbatim.
func (r Record) Failed(errMsg string) Record {
	r.Status = StatusFailed
	r.Result = nil
	r.Error = errMsg
	r.UpdatedAt = time.Now().UTC()
	return r
}

// Validate checks the structural integrity of the record.
func (r Record) Validate() error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("record has no id")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}

// DecodeResult decodes a succeeded record's result into the caller's
// result type.
func DecodeResult[T any](r Record) (T, error) {
	var out T
	if r.Status != StatusSucceeded {
		return out, fmt.Errorf("job %s has no result: status is %q", r.ID, r.Status)
	}
	if err := json.Unmarshal(r.Result, &out); err != nil {
		return out, fmt.Errorf("failed to decode job result: %w", err)
	}
	return out, nil
}
