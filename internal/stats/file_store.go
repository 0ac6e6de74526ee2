// Package stats persists the report counters: the first-run timestamp and
// the number of reports generated so far.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"telereport/internal/logging"
)

// FileStore keeps the record in a single JSON file:
//
//	{"startTime": 1700000000000, "reportCount": 3}
type FileStore struct {
	mu       sync.Mutex
	data     Stats
	loaded   bool
	filePath string
	now      Clock
}

// NewFileStore opens the JSON record at path, creating parent directories
// and the record itself when absent.
func NewFileStore(path string, now Clock) (*FileStore, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats dir: %w", err)
	}

	s := &FileStore{filePath: path, now: now}
	if _, err := s.Load(); err != nil {
		if !s.loaded {
			return nil, err
		}
		// The in-memory record is valid even if the first write failed.
		logging.StoreWarn("initial stats write failed: %v", err)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.filePath
}

// Load reads the record from disk. A missing file, or a record without a
// startTime, is initialised with the current instant and persisted.
func (s *FileStore) Load() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.data, nil
	}

	raw, err := os.ReadFile(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}

	var data Stats
	if err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return Stats{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.filePath, err)
		}
	}

	dirty := false
	if data.StartTime <= 0 {
		data.StartTime = s.now().UnixMilli()
		dirty = true
	}
	if data.ReportCount < 0 {
		data.ReportCount = 0
		dirty = true
	}

	s.data = data
	s.loaded = true

	if dirty {
		logging.Store("initialised stats record at %s", s.filePath)
		if err := s.saveLocked(); err != nil {
			return s.data, err
		}
	}
	return s.data, nil
}

// Increment adds one report and writes the record synchronously.
func (s *FileStore) Increment() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return Stats{}, fmt.Errorf("stats not loaded from %s", s.filePath)
	}

	s.data.ReportCount++
	if err := s.saveLocked(); err != nil {
		return s.data, err
	}
	logging.StoreDebug("report count now %d", s.data.ReportCount)
	return s.data, nil
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error {
	return nil
}

// saveLocked writes to a sibling temp file and renames it over the record.
func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".stats-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist stats: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist stats: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist stats: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		return fmt.Errorf("failed to persist stats: %w", err)
	}
	return nil
}
