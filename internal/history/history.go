// Package history persists build reports to SQLite so serve mode can answer
// "what happened to the last N builds" across restarts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Record is one stored build.
type Record struct {
	ID          int64
	BuildID     string
	Outcome     string
	Units       int
	Rendered    int
	Carried     int
	FailedUnits int
	Start       time.Time
	End         time.Time
	Report      json.RawMessage // full report as persisted to build-report.json
}

// Store is a SQLite-backed build history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the history database. Use ":memory:" for an
// in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		outcome TEXT NOT NULL,
		units INTEGER NOT NULL,
		rendered INTEGER NOT NULL,
		carried INTEGER NOT NULL,
		failed_units INTEGER NOT NULL,
		start_ts INTEGER NOT NULL,
		end_ts INTEGER NOT NULL,
		report BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_start ON builds(start_ts);
	CREATE INDEX IF NOT EXISTS idx_builds_outcome ON builds(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild stores one build report.
func (s *Store) RecordBuild(ctx context.Context, report *site.BuildReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, outcome, units, rendered, carried, failed_units, start_ts, end_ts, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.BuildID, string(report.Outcome), report.Units, report.Rendered,
		report.Carried, report.FailedUnits, report.Start.Unix(), report.End.Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// RecentBuilds returns up to limit builds, newest first.
func (s *Store) RecentBuilds(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, outcome, units, rendered, carried, failed_units, start_ts, end_ts, report
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// BuildByID returns one stored build. A missing build returns (nil, nil).
func (s *Store) BuildByID(ctx context.Context, buildID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, outcome, units, rendered, carried, failed_units, start_ts, end_ts, report
		 FROM builds WHERE build_id = ?`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var startUnix, endUnix int64
		var report []byte
		err := rows.Scan(&r.ID, &r.BuildID, &r.Outcome, &r.Units, &r.Rendered,
			&r.Carried, &r.FailedUnits, &startUnix, &endUnix, &report)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		r.Start = time.Unix(startUnix, 0)
		r.End = time.Unix(endUnix, 0)
		r.Report = json.RawMessage(report)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
