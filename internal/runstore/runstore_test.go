package runstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dmarten/relval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "relval_test.db")
	store, err := openBackend(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	runID, err := store.BeginRun(start, "run1", "run2", "rel_val")
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	counts := map[schema.Severity]int{
		schema.SeverityGood: 8,
		schema.SeverityBad:  2,
	}
	end := start.Add(90 * time.Second)
	require.NoError(t, store.EndRun(runID, end, counts, 10, 1))

	records, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, runID, r.RunID)
	assert.True(t, r.StartTime.Equal(start))
	require.NotNil(t, r.EndTime)
	assert.True(t, r.EndTime.Equal(end))
	assert.Equal(t, "run1", r.Input1)
	assert.Equal(t, "run2", r.Input2)
	assert.Equal(t, "rel_val", r.OutputDir)
	assert.Equal(t, 10, r.TotalTasks)
	assert.Equal(t, 1, r.FailedTasks)
	assert.Equal(t, counts, r.SeverityCounts)
}

func TestUnfinishedRunHasNoEndTime(t *testing.T) {
	store := openTestStore(t)

	_, err := store.BeginRun(time.Now(), "a", "b", "out")
	require.NoError(t, err)

	records, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].EndTime)
	assert.Nil(t, records[0].SeverityCounts)
}

func TestListRunsNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := store.BeginRun(time.Now(), "a", "b", "out")
		require.NoError(t, err)
	}

	records, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Greater(t, records[0].RunID, records[1].RunID)
}

func TestEndRunUnknownID(t *testing.T) {
	store := openTestStore(t)
	err := store.EndRun(999, time.Now(), nil, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetStatus(t *testing.T) {
	store := openTestStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, schema.SQLiteBackend, status.Backend)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Nil(t, status.LastRunAt)

	start := time.Date(2026, 8, 21, 9, 30, 0, 0, time.UTC)
	_, err = store.BeginRun(start, "a", "b", "out")
	require.NoError(t, err)

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	require.NotNil(t, status.LastRunAt)
	assert.True(t, status.LastRunAt.Equal(start))
	assert.Greater(t, status.TotalBytes, int64(0))
}

func TestClear(t *testing.T) {
	store := openTestStore(t)
	_, err := store.BeginRun(time.Now(), "a", "b", "out")
	require.NoError(t, err)

	require.NoError(t, store.Clear())

	records, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := openBackend(schema.NoneBackend, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported history backend")
}
