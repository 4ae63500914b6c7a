package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrJobNotFound indicates that no record exists for the requested job id.
	ErrJobNotFound = fmt.Errorf("%w: job", ErrNotFound)

	// ErrCorrupt is returned when a record exists in the backend but cannot
	// be decoded into a job.Record. Check the wrapped error for details.
	ErrCorrupt = errors.New("corrupt record")
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for backend-specific failures with
// additional context. It wraps the underlying driver or I/O error.
type StoreError struct {
	Backend   string // The backend type (e.g., "fs", "postgres")
	Operation string // The operation that failed (e.g., "save", "load")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s backend failed: %s: %v",
			e.Operation, e.Backend, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s backend failed: %s",
		e.Operation, e.Backend, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given backend, operation,
// message, and wrapped error.
func NewStoreError(backend, operation, message string, err error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
