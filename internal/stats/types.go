package stats

import (
	"errors"
	"time"
)

// ErrCorrupt is returned when a persisted record exists but cannot be decoded.
// The record is left untouched so the first-run timestamp is never lost.
var ErrCorrupt = errors.New("stats record is corrupt")

// Stats is the persisted record. StartTime is epoch milliseconds.
type Stats struct {
	StartTime   int64 `json:"startTime"`
	ReportCount int   `json:"reportCount"`
}

// Started returns StartTime as an instant.
func (s Stats) Started() time.Time {
	return time.UnixMilli(s.StartTime)
}

// Store is the counter store contract. Implementations are not safe for
// concurrent use across processes; a single process may call them from
// several goroutines.
type Store interface {
	// Load returns the current record, creating and persisting it on first use.
	Load() (Stats, error)
	// Increment adds one to ReportCount and persists it. On a persist error the
	// returned Stats still carries the incremented in-memory value.
	Increment() (Stats, error)
	Close() error
}

// Clock returns the current instant.
type Clock func() time.Time
