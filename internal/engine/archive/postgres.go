package archive

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PostgresStore archives into PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and applies the embedded migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("archive: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply %s: %w", entry.Name(), err)
		}
		slog.Debug("archive: migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, r Record) error {
	if err := validate(r); err != nil {
		return err
	}
	if r.FetchedAt.IsZero() {
		r.FetchedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcripts (video_id, source, transcript, fetched_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (video_id) DO UPDATE SET source = EXCLUDED.source,
		 transcript = EXCLUDED.transcript, fetched_at = EXCLUDED.fetched_at`,
		r.VideoID, r.Source, r.Transcript, r.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("archive: save %s: %w", r.VideoID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, videoID string) (Record, error) {
	var r Record
	err := s.pool.QueryRow(ctx,
		`SELECT video_id, source, transcript, fetched_at FROM transcripts WHERE video_id = $1`, videoID).
		Scan(&r.VideoID, &r.Source, &r.Transcript, &r.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("archive: get %s: %w", videoID, err)
	}
	return r, nil
}

// List returns the most recently fetched records without their transcripts.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT video_id, source, fetched_at FROM transcripts ORDER BY fetched_at DESC LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.VideoID, &r.Source, &r.FetchedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
