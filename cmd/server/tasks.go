package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/api"
	"github.com/phrazzld/jobvault/internal/runner"
)

// registerTasks wires the built-in task types into the API handler.
// Embedding programs would register their own domain tasks here instead.
func registerTasks(h *api.JobsHandler) {
	h.RegisterTask("sleep", sleepTask)
	h.RegisterTask("sha256", checksumTask)
}

// sleepParams are the parameters for the "sleep" task.
type sleepParams struct {
	Duration string `json:"duration"`
}

// sleepResult is what a finished "sleep" job reports.
type sleepResult struct {
	Slept string `json:"slept"`
}

// sleepTask parks for the requested duration. Useful for exercising the
// pending/running/terminal lifecycle by hand.
func sleepTask(params json.RawMessage) (runner.Task, error) {
	var p sleepParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to decode sleep params: %w", err)
	}
	d, err := time.ParseDuration(p.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", p.Duration, err)
	}

	return func(ctx context.Context, id uuid.UUID) (any, error) {
		select {
		case <-time.After(d):
			return sleepResult{Slept: d.String()}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, nil
}

// checksumParams are the parameters for the "sha256" task.
type checksumParams struct {
	Data string `json:"data"`
}

// checksumResult is what a finished "sha256" job reports.
type checksumResult struct {
	Digest string `json:"digest"`
}

// checksumTask hashes the given data.
func checksumTask(params json.RawMessage) (runner.Task, error) {
	var p checksumParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to decode sha256 params: %w", err)
	}

	return func(ctx context.Context, id uuid.UUID) (any, error) {
		sum := sha256.Sum256([]byte(p.Data))
		return checksumResult{Digest: hex.EncodeToString(sum[:])}, nil
	}, nil
}
