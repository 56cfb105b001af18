// Package store keeps the history of limit scans in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/t3mu-analysis/limitscan/internal/limits"
	"github.com/t3mu-analysis/limitscan/internal/scan"
	"github.com/t3mu-analysis/limitscan/internal/timeutil"
)

// ErrNoRuns is returned when a category has no stored runs.
var ErrNoRuns = errors.New("no stored runs")

// pragmas are applied by the driver to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// Run is one stored scan of a category.
type Run struct {
	RunID     string        `json:"run_id"`
	Category  string        `json:"category"`
	Interval  scan.Interval `json:"interval"`
	CreatedAt int64         `json:"created_at"`
}

// Store is a scan history database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun registers a new run for a category and returns its ID.
func (s *Store) CreateRun(category string, iv scan.Interval) (string, error) {
	runID := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO scan_runs (run_id, category, interval_min, interval_max, interval_median, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, category, iv.Min, iv.Max, iv.Median, s.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// RecordScan stores every point of sc under runID in one transaction.
// Recording a cut twice replaces the earlier point.
func (s *Store) RecordScan(runID string, sc *limits.Scan) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO scan_points (run_id, cut, label, minus2, minus1, median, plus1, plus2, observed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range sc.Points {
		var observed interface{}
		if p.Limits.HasObserved {
			observed = p.Limits.Observed
		}
		l := p.Limits
		if _, err = stmt.Exec(runID, p.Cut, p.Label, l.Minus2, l.Minus1, l.Median, l.Plus1, l.Plus2, observed); err != nil {
			return fmt.Errorf("insert point %s: %w", p.Label, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Runs returns the runs of a category, newest first.
func (s *Store) Runs(category string) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, category, interval_min, interval_max, interval_median, created_at
		FROM scan_runs
		WHERE category = ?
		ORDER BY created_at DESC, rowid DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Category, &r.Interval.Min, &r.Interval.Max, &r.Interval.Median, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the newest run of a category.
func (s *Store) LatestRun(category string) (Run, error) {
	runs, err := s.Runs(category)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w for category %q", ErrNoRuns, category)
	}
	return runs[0], nil
}

// Points returns the stored points of a run, ordered by cut.
func (s *Store) Points(runID string) ([]limits.Point, error) {
	rows, err := s.db.Query(`
		SELECT cut, label, minus2, minus1, median, plus1, plus2, observed
		FROM scan_points
		WHERE run_id = ?
		ORDER BY cut`, runID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var points []limits.Point
	for rows.Next() {
		var (
			p        limits.Point
			observed sql.NullFloat64
		)
		l := &p.Limits
		if err := rows.Scan(&p.Cut, &p.Label, &l.Minus2, &l.Minus1, &l.Median, &l.Plus1, &l.Plus2, &observed); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		if observed.Valid {
			l.Observed = observed.Float64
			l.HasObserved = true
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LatestScan rebuilds the newest stored scan of a category.
func (s *Store) LatestScan(category string) (Run, *limits.Scan, error) {
	run, err := s.LatestRun(category)
	if err != nil {
		return Run{}, nil, err
	}
	points, err := s.Points(run.RunID)
	if err != nil {
		return Run{}, nil, err
	}
	return run, &limits.Scan{Category: category, Points: points}, nil
}
