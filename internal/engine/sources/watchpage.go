package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/payload"
)

// WatchPage reads the caption tracks embedded in the watch page and fetches the
// best one as json3.
type WatchPage struct {
	Fetcher engine.Fetcher
	Now     func() time.Time // consent bypass timestamp; time.Now when nil
}

func (w *WatchPage) Name() string { return engine.SourceWatchPage }

func (w *WatchPage) Fetch(ctx context.Context, v engine.Video) (string, error) {
	const op = engine.SourceWatchPage
	f := fetcherOrDefault(w.Fetcher)

	pr, err := loadPlayer(ctx, f, v, w.now())
	if err != nil {
		return "", err
	}
	tracks := usableTracks(pr.Tracks())
	track, ok := payload.SelectTrack(tracks)
	if !ok {
		return "", playabilityError(op, pr)
	}
	return fetchCaptions(ctx, f, op, payload.JSON3URL(track.BaseURL))
}

// loadPlayer fetches the watch page, retrying once past the consent interstitial,
// and decodes the embedded player response.
func loadPlayer(ctx context.Context, f engine.Fetcher, v engine.Video, now time.Time) (payload.PlayerResponse, error) {
	const op = engine.SourceWatchPage
	body, err := get(ctx, f, op, payload.WatchURL(v.ID), htmlHeaders)
	if err != nil {
		return payload.PlayerResponse{}, err
	}
	page := string(body)
	if payload.IsConsentInterstitial(page) {
		slog.Debug("watch-page: consent interstitial, retrying with bypass", slog.String("video", v.ID))
		headers := map[string]string{"Cookie": payload.ConsentCookie}
		for k, val := range htmlHeaders {
			headers[k] = val
		}
		if body, err = get(ctx, f, op, payload.ConsentBypassURL(v.ID, now), headers); err != nil {
			return payload.PlayerResponse{}, err
		}
		page = string(body)
	}

	pr, probe, ok := payload.ExtractPlayerResponse(page)
	if !ok {
		return payload.PlayerResponse{}, engine.NewError(engine.KindMalformedResponse, op, "no player response in watch page")
	}
	slog.Debug("watch-page: player response found", slog.String("video", v.ID), slog.String("probe", probe))
	return pr, nil
}

func (w *WatchPage) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
