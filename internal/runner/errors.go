package runner

import "errors"

// Errors returned by the Runner's public operations.
var (
	// ErrPersistence is returned by Submit when the initial pending record
	// could not be saved. No task is scheduled in that case.
	ErrPersistence = errors.New("failed to persist job record")

	// ErrIDGeneration is returned by Submit when the id generator fails.
	ErrIDGeneration = errors.New("failed to generate job id")

	// ErrUnknownJob is returned by Load for an id no job was ever
	// submitted under (or whose record the backend no longer retains).
	ErrUnknownJob = errors.New("unknown job")
)
