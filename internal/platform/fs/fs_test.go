package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/jobvault/internal/job"
	"github.com/phrazzld/jobvault/internal/store"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	return s, dir
}

func TestNew_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "jobs")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := job.NewRecord(uuid.New()).Running().Succeeded(json.RawMessage(`{"answer":42}`))
	require.NoError(t, s.SaveJob(ctx, rec))

	got, err := s.LoadJob(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, job.StatusSucceeded, got.Status)
	assert.JSONEq(t, `{"answer":42}`, string(got.Result))
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	_, err := s.LoadJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}

func TestStore_SaveOverwrites(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := job.NewRecord(uuid.New())
	require.NoError(t, s.SaveJob(ctx, rec))
	require.NoError(t, s.SaveJob(ctx, rec.Running()))

	got, err := s.LoadJob(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusRunning, got.Status)
}

func TestStore_LeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.SaveJob(ctx, job.NewRecord(uuid.New())))
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStore_CorruptRecord(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t)

	id := uuid.New()
	path := filepath.Join(dir, id.String()+".json")
	require.NoError(t, os.WriteFile(path, []byte("not json{"), 0o644))

	_, err := s.LoadJob(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrCorrupt)
}
