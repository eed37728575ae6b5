// Package history keeps score reports across sessions in SQLite, so a
// trainee can track progress on a pattern over time.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/okian/dojo/internal/domain/scoring"
)

// Entry is one stored score report with its persistence metadata.
type Entry struct {
	ID          string
	Pattern     string
	RecordingID string
	TotalScore  float64
	Hits        int
	Misses      int
	Extras      int
	MaxCombo    int
	CreatedAt   time.Time
	Report      scoring.Report
}

// SQLiteStore implements score history on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the history database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scores (
		id           TEXT PRIMARY KEY,
		pattern      TEXT NOT NULL,
		recording_id TEXT NOT NULL DEFAULT '',
		total_score  REAL NOT NULL,
		hits         INTEGER NOT NULL,
		misses       INTEGER NOT NULL,
		extras       INTEGER NOT NULL,
		max_combo    INTEGER NOT NULL,
		report       TEXT NOT NULL,
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scores_pattern ON scores(pattern, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_scores_best ON scores(pattern, total_score DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveReport stores a report and returns its persisted entry.
func (s *SQLiteStore) SaveReport(ctx context.Context, recordingID string, report scoring.Report) (Entry, error) {
	now := time.Now().UTC()
	id := ulid.Make().String()

	body, err := report.JSON()
	if err != nil {
		return Entry{}, fmt.Errorf("encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (id, pattern, recording_id, total_score, hits, misses, extras, max_combo, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, report.Pattern, recordingID, report.TotalScore,
		report.Hits, report.Misses, report.Extras, report.MaxCombo,
		string(body), now.Format(time.RFC3339))
	if err != nil {
		return Entry{}, fmt.Errorf("insert score: %w", err)
	}

	return Entry{
		ID:          id,
		Pattern:     report.Pattern,
		RecordingID: recordingID,
		TotalScore:  report.TotalScore,
		Hits:        report.Hits,
		Misses:      report.Misses,
		Extras:      report.Extras,
		MaxCombo:    report.MaxCombo,
		CreatedAt:   now,
		Report:      report,
	}, nil
}

// ListByPattern returns the most recent entries for a pattern, newest first.
// An empty pattern name lists across all patterns.
func (s *SQLiteStore) ListByPattern(ctx context.Context, patternName string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, pattern, recording_id, total_score, hits, misses, extras, max_combo, report, created_at
		 FROM scores`
	args := []interface{}{}
	if patternName != "" {
		query += ` WHERE pattern = ?`
		args = append(args, patternName)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Best returns the highest-scoring entry for a pattern. Ties go to the
// earlier attempt, so a personal best is only displaced by strictly beating
// it.
func (s *SQLiteStore) Best(ctx context.Context, patternName string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pattern, recording_id, total_score, hits, misses, extras, max_combo, report, created_at
		 FROM scores WHERE pattern = ?
		 ORDER BY total_score DESC, created_at ASC LIMIT 1`, patternName)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("pattern %q: %w", patternName, ErrNoHistory)
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var body, createdAt string

	err := row.Scan(
		&e.ID, &e.Pattern, &e.RecordingID, &e.TotalScore,
		&e.Hits, &e.Misses, &e.Extras, &e.MaxCombo,
		&body, &createdAt,
	)
	if err != nil {
		return e, err
	}

	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if err := json.Unmarshal([]byte(body), &e.Report); err != nil {
		return e, fmt.Errorf("decode stored report %s: %w", e.ID, err)
	}
	return e, nil
}
