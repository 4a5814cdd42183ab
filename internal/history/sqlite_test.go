package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	start := time.UnixMilli(1_700_000_000_000)

	for i, status := range []Status{StatusSuccess, StatusFailed, StatusSkipped} {
		id, err := s.Record(ctx, Record{
			JobID:       "job-" + string(status),
			Source:      "/jobs/a.yaml",
			Fingerprint: "fp",
			Status:      status,
			Passes:      i,
			CompileOK:   status == StatusSuccess,
			StartedAt:   start.Add(time.Duration(i) * time.Second),
			Duration:    1500 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, StatusSkipped, recent[0].Status)
	assert.Equal(t, StatusFailed, recent[1].Status)
	assert.Equal(t, 1500*time.Millisecond, recent[0].Duration)
	assert.True(t, recent[0].StartedAt.Equal(start.Add(2*time.Second)))

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.True(t, all[2].CompileOK)
}

func TestLastSuccess(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()

	_, err := s.LastSuccess(ctx, "/jobs/a.yaml", "fp1")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Record(ctx, Record{JobID: "1", Source: "/jobs/a.yaml", Fingerprint: "fp1", Status: StatusSuccess, Artifact: "/out/old.pdf"})
	require.NoError(t, err)
	_, err = s.Record(ctx, Record{JobID: "2", Source: "/jobs/a.yaml", Fingerprint: "fp1", Status: StatusSuccess, Artifact: "/out/new.pdf"})
	require.NoError(t, err)
	_, err = s.Record(ctx, Record{JobID: "3", Source: "/jobs/a.yaml", Fingerprint: "fp1", Status: StatusFailed, Error: "boom"})
	require.NoError(t, err)

	rec, err := s.LastSuccess(ctx, "/jobs/a.yaml", "fp1")
	require.NoError(t, err)
	assert.Equal(t, "2", rec.JobID)
	assert.Equal(t, "/out/new.pdf", rec.Artifact)

	_, err = s.LastSuccess(ctx, "/jobs/a.yaml", "other")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.Record(t.Context(), Record{JobID: "1", Source: "s", Fingerprint: "f", Status: StatusSuccess})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()
	recent, err := s2.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "1", recent[0].JobID)
}
