// SPDX-License-Identifier: MIT

// Package archive keeps the fetch history in SQLite: one record per fetch
// attempt, successful or not, newest first. It backs the history API and
// the recent-fetches list in the web page.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ExponentialDS/vid-text/internal/persistence/sqlite"
)

// ErrNotFound is returned when no record exists for the given ID.
var ErrNotFound = errors.New("archive: record not found")

// Outcome labels for fetch records. Failed fetches carry the upstream
// error class instead.
const (
	OutcomeOK = "ok"
)

// Record is one fetch-history entry.
type Record struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title,omitempty"`
	Language     string    `json:"language,omitempty"`
	LanguageCode string    `json:"languageCode,omitempty"`
	Source       string    `json:"source,omitempty"`
	Generated    bool      `json:"generated"`
	Segments     int       `json:"segments"`
	Words        int       `json:"words"`
	Formats      []string  `json:"formats,omitempty"`
	Outcome      string    `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store provides SQLite persistence for fetch records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fetch_records (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		language_code TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		generated INTEGER NOT NULL DEFAULT 0,
		segments INTEGER NOT NULL DEFAULT 0,
		words INTEGER NOT NULL DEFAULT 0,
		formats TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL DEFAULT 'ok',
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetch_records_created ON fetch_records(created_at);
	CREATE INDEX IF NOT EXISTS idx_fetch_records_video ON fetch_records(video_id);
	CREATE INDEX IF NOT EXISTS idx_fetch_records_outcome ON fetch_records(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert stores a fetch record. A zero CreatedAt is filled with the
// current time.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return errors.New("archive: record ID is required")
	}
	if rec.VideoID == "" {
		return errors.New("archive: video ID is required")
	}
	if rec.Outcome == "" {
		rec.Outcome = OutcomeOK
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO fetch_records
		(id, video_id, title, language, language_code, source, generated,
		 segments, words, formats, outcome, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.VideoID, rec.Title, rec.Language, rec.LanguageCode,
		rec.Source, boolToInt(rec.Generated), rec.Segments, rec.Words,
		strings.Join(rec.Formats, ","), rec.Outcome, rec.Error,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetByID retrieves a single fetch record.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	query := selectColumns + ` WHERE id = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records newest first. limit <= 0 falls back to 50; limit is
// capped at 500.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	query := selectColumns + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record. Returns ErrNotFound when the ID is unknown.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fetch_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of fetch records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fetch_records`).Scan(&n)
	return n, err
}

// CountByOutcome returns record counts grouped by outcome class.
func (s *Store) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM fetch_records GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// HealthCheck verifies the database connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const selectColumns = `
	SELECT id, video_id, title, language, language_code, source, generated,
	       segments, words, formats, outcome, error, created_at
	FROM fetch_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var generated int
	var formats, createdAt string

	if err := row.Scan(
		&rec.ID, &rec.VideoID, &rec.Title, &rec.Language, &rec.LanguageCode,
		&rec.Source, &generated, &rec.Segments, &rec.Words, &formats,
		&rec.Outcome, &rec.Error, &createdAt,
	); err != nil {
		return nil, err
	}

	rec.Generated = generated != 0
	if formats != "" {
		rec.Formats = strings.Split(formats, ",")
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("archive: parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = t

	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
