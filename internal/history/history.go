// Package history keeps a log of ranking runs in SQLite: what was queried,
// against which dataset, and the resulting ranking. Feature vectors are
// never stored.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Entry is one ranked candidate of a run.
type Entry struct {
	Path  string
	Score float64
}

// Run represents a single ranking run
type Run struct {
	ID         string
	StartedAt  time.Time
	Query      string
	Dataset    string
	Output     string
	Strategy   string
	Candidates int
	Skipped    int
	Elapsed    time.Duration
	Ranked     []Entry
}

// NewRun creates a run record with a fresh ID
func NewRun(query, dataset, output, strategy string, startedAt time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		Query:     query,
		Dataset:   dataset,
		Output:    output,
		Strategy:  strategy,
	}
}

// Store persists runs in a SQLite database
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the run log at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		query TEXT NOT NULL,
		dataset TEXT NOT NULL,
		output TEXT NOT NULL,
		strategy TEXT NOT NULL,
		candidates INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		elapsed_us INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		path TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (run_id, rank)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores run and its ranking in one transaction
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, query, dataset, output, strategy, candidates, skipped, elapsed_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UnixMicro(), run.Query, run.Dataset, run.Output, run.Strategy,
		run.Candidates, run.Skipped, run.Elapsed.Microseconds())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, e := range run.Ranked {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO results (run_id, rank, path, score) VALUES (?, ?, ?, ?)
		`, run.ID, i+1, e.Path, e.Score)
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first, without their rankings
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, query, dataset, output, strategy, candidates, skipped, elapsed_us
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Get returns the run with the given ID, including its ranking
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, query, dataset, output, strategy, candidates, skipped, elapsed_us
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, score FROM results WHERE run_id = ? ORDER BY rank
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	run.Ranked = []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Score); err != nil {
			return Run{}, fmt.Errorf("failed to scan result: %w", err)
		}
		run.Ranked = append(run.Ranked, e)
	}

	return run, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		startedAt int64
		elapsedUS int64
	)
	err := row.Scan(&run.ID, &startedAt, &run.Query, &run.Dataset, &run.Output, &run.Strategy,
		&run.Candidates, &run.Skipped, &elapsedUS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = time.UnixMicro(startedAt)
	run.Elapsed = time.Duration(elapsedUS) * time.Microsecond
	return run, nil
}
