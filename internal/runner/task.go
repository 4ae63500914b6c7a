package runner

import (
	"context"

	"github.com/google/uuid"
)

// Task is a unit of asynchronous work. It receives the id allocated for
// its job, so it can correlate its own side effects with the record, and
// returns either a result value or an error.
//
// The result must be JSON-serializable; it is what a later Load returns
// inside the succeeded record. A returned error's message is captured
// verbatim into the failed record.
type Task func(ctx context.Context, id uuid.UUID) (any, error)

// IDGenerator produces job ids that are unique for the process's
// operating lifetime. Implementations must be safe for concurrent use.
type IDGenerator interface {
	NewID() (uuid.UUID, error)
}

// IDGeneratorFunc adapts a plain function to the IDGenerator interface.
type IDGeneratorFunc func() (uuid.UUID, error)

// NewID calls f.
func (f IDGeneratorFunc) NewID() (uuid.UUID, error) {
	return f()
}

// RandomIDs returns the default generator: random version 4 UUIDs.
func RandomIDs() IDGenerator {
	return IDGeneratorFunc(func() (uuid.UUID, error) {
		return uuid.NewRandom()
	})
}
