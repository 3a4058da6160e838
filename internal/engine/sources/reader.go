package sources

import (
	"context"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/reader"
)

// Reader scrapes the third-party reader page for the canonical watch URL.
type Reader struct {
	Reader *reader.Reader
}

func (r *Reader) Name() string { return engine.SourceReader }

func (r *Reader) Fetch(ctx context.Context, v engine.Video) (string, error) {
	if r.Reader == nil {
		return "", engine.NewError(engine.KindNotFound, engine.SourceReader, "reader is not configured")
	}
	return r.Reader.Fetch(ctx, v.URL)
}
