package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

// newTestLogger returns a logger that swallows output.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// fastConfig keeps retry pauses short so failure-path tests stay quick.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func TestRunner_SubmitSuccess(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, rec.Status)
	assert.Empty(t, rec.Error)

	result, err := job.DecodeResult[int](rec)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRunner_SubmitFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, rec.Status)
	assert.Equal(t, "boom", rec.Error)
	assert.Nil(t, rec.Result)
}

func TestRunner_PanicBecomesFailed(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		panic("task exploded")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "panicked")
	assert.Contains(t, rec.Error, "task exploded")
}

func TestRunner_UnserializableResultBecomesFailed(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return make(chan int), nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "not serializable")
}

func TestRunner_LoadUnknownJob(t *testing.T) {
	t.Parallel()

	r := New(NewMockStore(), fastConfig(), newTestLogger())

	_, err := r.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRunner_LoadBackendErrorIsNotUnknownJob(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	mock.LoadFn = func(ctx context.Context, id uuid.UUID) (job.Record, error) {
		return job.Record{}, store.NewStoreError("mock", "load", "disk on fire", nil)
	}
	r := New(mock, fastConfig(), newTestLogger())

	_, err := r.Load(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownJob)

	var storeErr *store.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestRunner_InitialSaveFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	mock.SaveFn = func(ctx context.Context, rec job.Record) error {
		return errors.New("backend unreachable")
	}
	r := New(mock, fastConfig(), newTestLogger())

	var executed atomic.Bool
	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		executed.Store(true)
		return nil, nil
	})

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, uuid.Nil, id)

	// No task may have been scheduled and no record may exist.
	r.Stop()
	assert.False(t, executed.Load())
	assert.Equal(t, 0, mock.Len())
}

func TestRunner_IDGenerationFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())
	r.SetIDGenerator(IDGeneratorFunc(func() (uuid.UUID, error) {
		return uuid.Nil, errors.New("entropy exhausted")
	}))

	_, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrIDGeneration)
	assert.Equal(t, 0, mock.Len())
}

func TestRunner_RunningSaveFailureStillRuns(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	defaultSave := mock.SaveFn

	var calls atomic.Int32
	mock.SaveFn = func(ctx context.Context, rec job.Record) error {
		// Fail only the running-state save; the job is already committed
		// at that point and must still execute.
		if calls.Add(1) == 2 {
			return errors.New("transient outage")
		}
		return defaultSave(ctx, rec)
	}

	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return "done", nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, rec.Status)
}

func TestRunner_TerminalSaveRetries(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	defaultSave := mock.SaveFn

	var failures atomic.Int32
	mock.SaveFn = func(ctx context.Context, rec job.Record) error {
		if rec.Status.Terminal() && failures.Add(1) == 1 {
			return errors.New("transient outage")
		}
		return defaultSave(ctx, rec)
	}

	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return "done", nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, rec.Status)
	assert.EqualValues(t, 1, failures.Load())
}

func TestRunner_StatusOrdering(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	// Even a near-instant task must pass through every persisted state in
	// order: pending, running, then exactly one terminal write.
	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	r.Stop()

	history := mock.StatusHistory(id)
	require.Equal(t, []job.Status{job.StatusPending, job.StatusRunning, job.StatusSucceeded}, history)
}

func TestRunner_TerminalStateIsMonotonic(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return "stable", nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)
	r.Stop()

	// Once terminal, repeated loads never observe a regression.
	for i := 0; i < 10; i++ {
		rec, err := r.Load(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, job.StatusSucceeded, rec.Status)
	}
}

func TestRunner_ConcurrentSubmitsGetDistinctIDs(t *testing.T) {
	t.Parallel()

	const n = 1000

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	var mu sync.Mutex
	ids := make(map[uuid.UUID]struct{}, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
				return nil, nil
			})
			assert.NoError(t, err)

			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	r.Stop()

	assert.Len(t, ids, n)
	assert.Equal(t, n, mock.Len())
}

func TestRunner_MaxConcurrentIsRespected(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.MaxConcurrent = 2

	mock := NewMockStore()
	r := New(mock, cfg, newTestLogger())

	var current, peak atomic.Int32
	task := func(ctx context.Context, id uuid.UUID) (any, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return nil, nil
	}

	for i := 0; i < 8; i++ {
		_, err := r.Submit(context.Background(), task)
		require.NoError(t, err)
	}
	r.Stop()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunner_WaitRespectsContext(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		time.Sleep(200 * time.Millisecond)
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = r.Wait(ctx, id, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	r.Stop()
}

func TestRunner_SubmitWithMetadata(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	type tag struct {
		Owner string `json:"owner"`
	}

	id, err := r.SubmitWithMetadata(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return nil, nil
	}, tag{Owner: "billing"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)

	// Metadata survives every transition untouched.
	assert.JSONEq(t, `{"owner":"billing"}`, string(rec.Metadata))

	t.Run("unserializable metadata fails fast", func(t *testing.T) {
		t.Parallel()

		_, err := r.SubmitWithMetadata(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
			return nil, nil
		}, make(chan int))
		assert.Error(t, err)
	})
}

func TestRunner_TaskReceivesItsJobID(t *testing.T) {
	t.Parallel()

	mock := NewMockStore()
	r := New(mock, fastConfig(), newTestLogger())

	id, err := r.Submit(context.Background(), func(ctx context.Context, id uuid.UUID) (any, error) {
		return id.String(), nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Wait(ctx, id, time.Millisecond)
	require.NoError(t, err)

	got, err := job.DecodeResult[string](rec)
	require.NoError(t, err)
	assert.Equal(t, id.String(), got)
}
