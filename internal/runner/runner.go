package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

// Config holds configuration for the job runner
type Config struct {
	// MaxConcurrent caps how many jobs execute at the same time.
	// Zero or negative means no cap. The cap is enforced inside the
	// spawned job goroutine, so Submit never blocks on it.
	MaxConcurrent int

	// SaveRetries is how many times a failed terminal-status save is
	// retried before giving up and logging the failure.
	SaveRetries int

	// RetryBackoff is the pause between terminal-save retries.
	// If zero, defaults to 100 milliseconds.
	RetryBackoff time.Duration
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 0,
		SaveRetries:   2,
		RetryBackoff:  100 * time.Millisecond,
	}
}

// Runner owns the job lifecycle: it allocates ids, persists every status
// transition through the Store, and executes submitted tasks on detached
// goroutines. Each job's lifecycle is independent; the runner holds no
// cross-job locks.
type Runner struct {
	store  store.Store
	ids    IDGenerator
	config Config
	logger *slog.Logger

	// sem bounds concurrent job execution; nil when unbounded
	sem chan struct{}

	// wg tracks in-flight job goroutines for clean shutdown
	wg sync.WaitGroup
}

// New creates a new Runner backed by the given store.
// Job ids default to random UUIDs; use SetIDGenerator to inject another
// generator.
func New(s store.Store, config Config, logger *slog.Logger) *Runner {
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 100 * time.Millisecond
	}

	var sem chan struct{}
	if config.MaxConcurrent > 0 {
		sem = make(chan struct{}, config.MaxConcurrent)
	}

	return &Runner{
		store:  s,
		ids:    RandomIDs(),
		config: config,
		logger: logger,
		sem:    sem,
	}
}

// SetIDGenerator replaces the id generator. The generator must be safe
// for concurrent use and collision-free for the process lifetime.
// Must be called before the first Submit.
func (r *Runner) SetIDGenerator(g IDGenerator) {
	r.ids = g
}

// Submit registers a new job for task and schedules it for execution.
//
// The pending record is persisted before anything is scheduled; if that
// save fails, Submit returns an error wrapping ErrPersistence and no task
// runs (no orphaned work, no orphaned record). The transition to running
// is persisted best-effort: a failure there is logged but the job still
// runs, since it is already committed. Submit returns as soon as the two
// writes are done; it never waits for the task itself.
func (r *Runner) Submit(ctx context.Context, task Task) (uuid.UUID, error) {
	return r.SubmitWithMetadata(ctx, task, nil)
}

// SubmitWithMetadata is Submit with caller-supplied metadata attached to
// the record. The metadata is persisted at submission time and returned
// unchanged by every later Load, so callers can tag jobs with whatever
// context they need to interpret the result.
func (r *Runner) SubmitWithMetadata(ctx context.Context, task Task, metadata any) (uuid.UUID, error) {
	id, err := r.ids.NewID()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrIDGeneration, err)
	}

	rec := job.NewRecord(id)
	if metadata != nil {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("job metadata is not serializable: %w", err)
		}
		rec.Metadata = encoded
	}

	// Persist the pending record first. Failing fast here prevents
	// silently running work that nothing can track.
	if err := r.store.SaveJob(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Transition to running. The job is already committed at this point,
	// so a failed save is logged rather than aborting the submission.
	rec = rec.Running()
	if err := r.store.SaveJob(ctx, rec); err != nil {
		r.logger.Warn("failed to persist running status, job will run anyway",
			"job_id", id,
			"error", err)
	}

	r.wg.Add(1)
	go r.run(rec, task)

	return id, nil
}

// Load returns the persisted record for id. It always reads from the
// Store, never from an in-memory snapshot, so callers see the latest
// persisted view. ErrUnknownJob is returned when no record exists; other
// backend failures are wrapped so callers can tell "never existed" from
// "storage is broken".
func (r *Runner) Load(ctx context.Context, id uuid.UUID) (job.Record, error) {
	rec, err := r.store.LoadJob(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return job.Record{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
		}
		return job.Record{}, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return rec, nil
}

// Wait polls Load until the job reaches a terminal status or ctx is done.
// poll defaults to 10 milliseconds when zero or negative.
func (r *Runner) Wait(ctx context.Context, id uuid.UUID, poll time.Duration) (job.Record, error) {
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		rec, err := r.Load(ctx, id)
		if err != nil {
			return job.Record{}, err
		}
		if rec.Status.Terminal() {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return job.Record{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop waits for all in-flight jobs to finish and their terminal records
// to be persisted. Submitted jobs always run to completion; cancellation
// is not supported.
func (r *Runner) Stop() {
	r.wg.Wait()
}

// run executes one job on its own goroutine and persists the terminal record.
func (r *Runner) run(rec job.Record, task Task) {
	defer r.wg.Done()

	if r.sem != nil {
		r.sem <- struct{}{}
		defer func() { <-r.sem }()
	}

	// The job is detached from the submitter's context: the caller
	// returned long ago and must not be able to cancel persisted work.
	ctx := context.Background()

	result, err := r.execute(ctx, rec.ID, task)

	if err != nil {
		rec = rec.Failed(err.Error())
	} else {
		encoded, encErr := json.Marshal(result)
		if encErr != nil {
			// The result type broke the backend's serialization contract;
			// record it as a failure rather than losing the terminal state.
			r.logger.Error("job result is not serializable",
				"job_id", rec.ID,
				"error", encErr)
			rec = rec.Failed(fmt.Sprintf("job result is not serializable: %v", encErr))
		} else {
			rec = rec.Succeeded(encoded)
		}
	}

	r.saveTerminal(ctx, rec)
}

// execute runs the task inside a panic boundary. A panicking task becomes
// an ordinary job error, so its record still reaches a terminal status
// instead of sticking at running forever.
func (r *Runner) execute(ctx context.Context, id uuid.UUID, task Task) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("job panicked",
				"job_id", id,
				"panic", p)
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()

	return task(ctx, id)
}

// saveTerminal persists the terminal record, retrying on failure. No
// caller is synchronously waiting at this point, so a final failure after
// all retries can only be logged.
func (r *Runner) saveTerminal(ctx context.Context, rec job.Record) {
	var err error
	for attempt := 0; attempt <= r.config.SaveRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(r.config.RetryBackoff)
		}

		err = r.store.SaveJob(ctx, rec)
		if err == nil {
			return
		}

		r.logger.Warn("failed to persist terminal status, retrying",
			"job_id", rec.ID,
			"status", rec.Status,
			"attempt", attempt+1,
			"error", err)
	}

	r.logger.Error("giving up on persisting terminal status",
		"job_id", rec.ID,
		"status", rec.Status,
		"error", err)
}
