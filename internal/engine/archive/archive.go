// Package archive keeps acquired transcripts. SQLite is the default backend;
// PostgreSQL is used when a database URL is configured.
package archive

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// ErrNotFound is returned by Get for an unknown video.
var ErrNotFound = errors.New("archive: transcript not found")

// Off disables the archive when used as the SQLite path.
const Off = "off"

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 20

// Record is one archived transcript.
type Record struct {
	VideoID    string    `json:"video_id"`
	Source     string    `json:"source"`
	Transcript string    `json:"transcript,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Store persists Records. Save replaces an existing record for the same video.
type Store interface {
	Save(ctx context.Context, r Record) error
	Get(ctx context.Context, videoID string) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Open picks the backend from configuration: PostgreSQL when databaseURL is set,
// SQLite at sqlitePath otherwise. A nil Store with nil error means archiving is off.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		pg, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	if strings.EqualFold(strings.TrimSpace(sqlitePath), Off) {
		return nil, nil
	}
	lite, err := OpenSQLite(sqlitePath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// FromCached converts a cache entry to a Record.
func FromCached(c engine.CachedTranscript) Record {
	return Record{VideoID: c.VideoID, Source: c.Source, Transcript: c.Transcript, FetchedAt: c.FetchedAt}
}

func validate(r Record) error {
	if r.VideoID == "" || strings.TrimSpace(r.Transcript) == "" {
		return errors.New("archive: video id and transcript are required")
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
