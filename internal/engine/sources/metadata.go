package sources

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// OEmbedEndpoint is YouTube's public oEmbed lookup.
const OEmbedEndpoint = "https://www.youtube.com/oembed"

// VideoMeta is what the prompt header shows about a video.
type VideoMeta struct {
	Title      string `json:"title"`
	Creator    string `json:"creator"`
	UploadDate string `json:"upload_date,omitempty"` // as published, usually ISO 8601
}

// OEmbedURL returns the oEmbed lookup URL for v.
func OEmbedURL(v engine.Video) string {
	return OEmbedEndpoint + "?" + url.Values{"url": {v.URL}, "format": {"json"}}.Encode()
}

// FetchMeta looks up title, channel name and upload date. The watch page's player
// response is read first; oEmbed fills a missing title or channel. The error is
// returned only when neither lookup produced anything.
func FetchMeta(ctx context.Context, f engine.Fetcher, v engine.Video) (VideoMeta, error) {
	f = fetcherOrDefault(f)

	var meta VideoMeta
	pr, err := loadPlayer(ctx, f, v, time.Now())
	if err == nil {
		meta = VideoMeta{
			Title:      strings.TrimSpace(pr.Title()),
			Creator:    strings.TrimSpace(pr.Author()),
			UploadDate: strings.TrimSpace(pr.UploadDate()),
		}
	} else {
		slog.Debug("metadata: watch page lookup failed", slog.String("video", v.ID), slog.Any("err", err))
	}
	if meta.Title != "" && meta.Creator != "" {
		return meta, nil
	}

	o, err := fetchOEmbed(ctx, f, v)
	if err != nil {
		if meta != (VideoMeta{}) {
			return meta, nil
		}
		return VideoMeta{}, err
	}
	if meta.Title == "" {
		meta.Title = o.Title
	}
	if meta.Creator == "" {
		meta.Creator = o.Creator
	}
	return meta, nil
}

// fetchOEmbed reads title and channel from oEmbed. Private and removed videos are NotFound.
func fetchOEmbed(ctx context.Context, f engine.Fetcher, v engine.Video) (VideoMeta, error) {
	const op = "oembed"
	body, err := get(ctx, f, op, OEmbedURL(v), nil)
	if err != nil {
		return VideoMeta{}, err
	}
	var raw struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return VideoMeta{}, engine.WrapError(engine.KindMalformedResponse, op, err)
	}
	return VideoMeta{
		Title:   strings.TrimSpace(raw.Title),
		Creator: strings.TrimSpace(raw.AuthorName),
	}, nil
}
