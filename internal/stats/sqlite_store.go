package stats

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"telereport/internal/logging"
)

// SQLiteStore keeps the record as a single row of a SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
	now    Clock
}

// NewSQLiteStore creates or opens the counter database at path.
func NewSQLiteStore(path string, now Clock) (*SQLiteStore, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: path, now: now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := s.Load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS report_stats (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		start_time INTEGER NOT NULL,
		report_count INTEGER NOT NULL DEFAULT 0 CHECK (report_count >= 0)
	);`)
	return err
}

// Load returns the singleton row, inserting it with the current instant
// the first time.
func (s *SQLiteStore) Load() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO report_stats (id, start_time, report_count) VALUES (1, ?, 0)`,
		s.now().UnixMilli(),
	)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to initialise stats row: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logging.Store("initialised stats row in %s", s.dbPath)
	}
	return s.selectLocked(s.db)
}

// Increment bumps the counter inside a transaction and returns the new row.
// When the update fails the stored row plus one is returned with the error.
func (s *SQLiteStore) Increment() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.incrementLocked()
	if err != nil {
		// The row was not updated; report the value this invocation counts as.
		cur, selErr := s.selectLocked(s.db)
		if selErr != nil {
			return Stats{}, err
		}
		cur.ReportCount++
		logging.StoreWarn("report count %d not persisted: %v", cur.ReportCount, err)
		return cur, err
	}
	logging.StoreDebug("report count now %d", st.ReportCount)
	return st, nil
}

func (s *SQLiteStore) incrementLocked() (Stats, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE report_stats SET report_count = report_count + 1 WHERE id = 1`); err != nil {
		return Stats{}, fmt.Errorf("failed to increment report count: %w", err)
	}
	st, err := s.selectLocked(tx)
	if err != nil {
		return Stats{}, err
	}
	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("failed to commit report count: %w", err)
	}
	return st, nil
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *SQLiteStore) selectLocked(q queryRower) (Stats, error) {
	var st Stats
	err := q.QueryRow(`SELECT start_time, report_count FROM report_stats WHERE id = 1`).
		Scan(&st.StartTime, &st.ReportCount)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats row: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
