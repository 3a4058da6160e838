//go:build integration

package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, url)
	require.NoError(t, err)
	defer s.Close()

	id := "it-" + time.Now().Format("150405.000")
	require.NoError(t, s.Save(ctx, Record{VideoID: id, Source: "watch-page", Transcript: "[00:00] hi"}))
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] hi", got.Transcript)

	recs, err := s.List(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)

	_, err = s.Get(ctx, "no-such-video")
	assert.ErrorIs(t, err, ErrNotFound)
}
