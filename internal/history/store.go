// Package history persists a record of completed builds so the CLI can
// show recent runs and the daemon can skip publishing unchanged output.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded build. Published is set separately, once the build's
// output has actually reached the publish target.
type Run struct {
	BuildID      string
	Started      time.Time
	Duration     time.Duration
	Outcome      string
	Pages        int
	ManifestHash string
	Published    bool
}

// Store records build runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		manifest_hash TEXT,
		published INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a completed run.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (build_id, started, duration_ms, outcome, pages, manifest_hash) VALUES (?, ?, ?, ?, ?, ?)",
		run.BuildID, run.Started.Unix(), run.Duration.Milliseconds(), run.Outcome, run.Pages, run.ManifestHash,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, started, duration_ms, outcome, pages, manifest_hash, published FROM runs ORDER BY started DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			started    int64
			durationMS int64
			hash       sql.NullString
		)
		if err := rows.Scan(&run.BuildID, &started, &durationMS, &run.Outcome, &run.Pages, &hash, &run.Published); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Started = time.Unix(started, 0)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.ManifestHash = hash.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkPublished flags a recorded build as having reached the publish
// target. Builds that were never published keep the default flag.
func (s *Store) MarkPublished(ctx context.Context, buildID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET published = 1 WHERE build_id = ?", buildID,
	)
	if err != nil {
		return fmt.Errorf("mark run published: %w", err)
	}
	return nil
}

// LastPublishedHash returns the manifest hash of the most recent build
// that was actually published, or "" when none has been. A build that
// succeeded but whose publish failed does not count.
func (s *Store) LastPublishedHash(ctx context.Context) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT manifest_hash FROM runs WHERE outcome = 'success' AND published = 1 ORDER BY started DESC, id DESC LIMIT 1",
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last manifest hash: %w", err)
	}
	return hash.String, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
