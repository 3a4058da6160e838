package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultSQLitePath is $HOME/.go_transcript/archive.db.
func DefaultSQLitePath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_transcript", "archive.db")
}

// sqliteTime is fixed-width so fetched_at sorts as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is the file-backed archive.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the archive at path; empty path uses DefaultSQLitePath.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("archive: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS transcripts (
		video_id   TEXT PRIMARY KEY,
		source     TEXT NOT NULL,
		transcript TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	if err := validate(r); err != nil {
		return err
	}
	if r.FetchedAt.IsZero() {
		r.FetchedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (video_id, source, transcript, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET source = excluded.source,
		 transcript = excluded.transcript, fetched_at = excluded.fetched_at`,
		r.VideoID, r.Source, r.Transcript, r.FetchedAt.UTC().Format(sqliteTime))
	if err != nil {
		return fmt.Errorf("archive: save %s: %w", r.VideoID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, videoID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT video_id, source, transcript, fetched_at FROM transcripts WHERE video_id = ?`, videoID)
	r, err := scanSQLite(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

// List returns the most recently fetched records without their transcripts.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, source, '', fetched_at FROM transcripts ORDER BY fetched_at DESC LIMIT ?`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanSQLite(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func scanSQLite(scan func(dest ...any) error) (Record, error) {
	var (
		r       Record
		fetched string
	)
	if err := scan(&r.VideoID, &r.Source, &r.Transcript, &fetched); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(sqliteTime, fetched)
	if err != nil {
		return Record{}, fmt.Errorf("archive: bad fetched_at %q: %w", fetched, err)
	}
	r.FetchedAt = t
	return r, nil
}
