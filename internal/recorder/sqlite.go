package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			trigger_type  TEXT,
			total_records INTEGER,
			range_start   TEXT,
			range_end     TEXT,
			output_file   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id)`,

		`CREATE TABLE IF NOT EXISTS source_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			source         TEXT NOT NULL,
			granularity    TEXT,
			fetched_count  INTEGER,
			fetched_start  TEXT,
			fetched_end    TEXT,
			used_count     INTEGER,
			used_start     TEXT,
			used_end       TEXT,
			fetch_error    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_source_runs_run ON source_runs(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO runs
		(run_id, timestamp, trigger_type, total_records, range_start, range_end, output_file)
		VALUES (?,?,?,?,?,?,?)`,
		run.RunID, time.Now().Unix(), run.Trigger,
		run.TotalRecords, run.RangeStart, run.RangeEnd, run.OutputFile,
	)
	return err
}

func (r *SQLiteRecorder) RecordSourceRun(sr *SourceRunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO source_runs
		(run_id, timestamp, source, granularity,
		 fetched_count, fetched_start, fetched_end,
		 used_count, used_start, used_end, fetch_error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sr.RunID, time.Now().Unix(), sr.Source, string(sr.Granularity),
		sr.Fetched.Count, sr.Fetched.Start, sr.Fetched.End,
		sr.Used.Count, sr.Used.Start, sr.Used.End, sr.FetchError,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
