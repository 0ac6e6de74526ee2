package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestFileStore_CreatesRecordOnFirstLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets", "annualreport", "stats.json")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := NewFileStore(path, fixedClock(now))
	require.NoError(t, err)

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), st.StartTime)
	assert.Equal(t, 0, st.ReportCount)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var persisted map[string]int64
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, now.UnixMilli(), persisted["startTime"])
	assert.Equal(t, int64(0), persisted["reportCount"])
}

func TestFileStore_IncrementPersistsAndKeepsStartTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.WriteFile(path, []byte(`{"startTime": 1672531200000, "reportCount": 5}`), 0644))

	s, err := NewFileStore(path, fixedClock(created.Add(48*time.Hour)))
	require.NoError(t, err)

	first, err := s.Increment()
	require.NoError(t, err)
	second, err := s.Increment()
	require.NoError(t, err)

	assert.Equal(t, 6, first.ReportCount)
	assert.Equal(t, 7, second.ReportCount)
	assert.Equal(t, created.UnixMilli(), second.StartTime)

	reopened, err := NewFileStore(path, time.Now)
	require.NoError(t, err)
	st, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, Stats{StartTime: created.UnixMilli(), ReportCount: 7}, st)
}

func TestFileStore_MissingStartTimeIsFilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"reportCount": 2}`), 0644))
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s, err := NewFileStore(path, fixedClock(now))
	require.NoError(t, err)
	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), st.StartTime)
	assert.Equal(t, 2, st.ReportCount)
}

func TestFileStore_CorruptRecordIsNotOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := NewFileStore(path, time.Now)
	require.ErrorIs(t, err, ErrCorrupt)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{not json`, string(raw))
}

func TestFileStore_PersistFailureKeepsInMemoryValue(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")

	s, err := NewFileStore(path, time.Now)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	st, err := s.Increment()
	assert.Error(t, err)
	assert.Equal(t, 1, st.ReportCount)
}

func TestSQLiteStore_LoadAndIncrement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	s, err := NewSQLiteStore(path, fixedClock(now))
	require.NoError(t, err)

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Stats{StartTime: now.UnixMilli()}, st)

	for i := 1; i <= 3; i++ {
		st, err = s.Increment()
		require.NoError(t, err)
		assert.Equal(t, i, st.ReportCount)
	}
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, fixedClock(now.Add(time.Hour)))
	require.NoError(t, err)
	defer reopened.Close()

	st, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, Stats{StartTime: now.UnixMilli(), ReportCount: 3}, st)
}

func TestSQLiteStore_FailedIncrementKeepsCountedValue(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "stats.db"), fixedClock(now))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Increment()
	require.NoError(t, err)

	_, err = s.db.Exec(`CREATE TRIGGER deny_update BEFORE UPDATE ON report_stats
		BEGIN SELECT RAISE(ABORT, 'read only'); END`)
	require.NoError(t, err)

	st, err := s.Increment()
	assert.Error(t, err)
	assert.Equal(t, Stats{StartTime: now.UnixMilli(), ReportCount: 2}, st)

	persisted, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, persisted.ReportCount)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	js, err := Open("json", filepath.Join(dir, "a.json"), time.Now)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, js)

	db, err := Open("sqlite", filepath.Join(dir, "a.db"), time.Now)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, db)
	require.NoError(t, db.Close())

	_, err = Open("etcd", filepath.Join(dir, "x"), time.Now)
	assert.Error(t, err)
}

func TestStats_Started(t *testing.T) {
	at := time.Date(2022, 5, 4, 3, 2, 1, 0, time.UTC)
	st := Stats{StartTime: at.UnixMilli()}
	assert.True(t, st.Started().Equal(at))
}
