package sources

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/payload"
)

// TrackList asks the timed-text endpoint for the caption track list of a video,
// picks a track and fetches it. Track lists are memoized in Cache.
type TrackList struct {
	Fetcher engine.Fetcher
	Cache   *TrackCache
}

func (t *TrackList) Name() string { return engine.SourceTrackList }

func (t *TrackList) Fetch(ctx context.Context, v engine.Video) (string, error) {
	const op = engine.SourceTrackList
	f := fetcherOrDefault(t.Fetcher)

	tracks, cached := t.Cache.Get(v.ID)
	if !cached {
		body, err := get(ctx, f, op, payload.TrackListURL(v.ID), nil)
		if err != nil {
			return "", err
		}
		tracks = payload.ParseCaptionTrackListXML(string(body))
		t.Cache.Put(v.ID, tracks)
	}
	track, ok := payload.SelectTrack(tracks)
	if !ok {
		return "", engine.NewError(engine.KindNotFound, op, "track list is empty")
	}
	slog.Debug("track-list: selected track",
		slog.String("video", v.ID), slog.String("lang", track.LanguageCode),
		slog.String("kind", string(track.Kind)), slog.Bool("cached", cached))
	return fetchCaptions(ctx, f, op, payload.TrackRequestURL(v.ID, track))
}

// SweepVariants are the language and kind combinations tried, in order, against
// the timed-text endpoint.
var SweepVariants = []url.Values{
	{"lang": {"en"}, "fmt": {"json3"}},
	{"lang": {"en"}, "kind": {"asr"}, "fmt": {"json3"}},
	{"lang": {"en-US"}, "fmt": {"json3"}},
	{"lang": {"en-US"}, "kind": {"asr"}, "fmt": {"json3"}},
}

// ParamSweep requests captions directly, walking Variants until one yields a
// non-empty transcript.
type ParamSweep struct {
	Fetcher  engine.Fetcher
	Variants []url.Values // SweepVariants when nil
}

func (p *ParamSweep) Name() string { return engine.SourceParamSweep }

// VariantURL is the request for one sweep variant.
func VariantURL(videoID string, variant url.Values) string {
	q := url.Values{"v": {videoID}}
	for k, vs := range variant {
		q[k] = vs
	}
	return payload.TimedTextEndpoint + "?" + q.Encode()
}

func (p *ParamSweep) Fetch(ctx context.Context, v engine.Video) (string, error) {
	const op = engine.SourceParamSweep
	f := fetcherOrDefault(p.Fetcher)
	variants := p.Variants
	if variants == nil {
		variants = SweepVariants
	}

	var lastErr error
	for i, variant := range variants {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := fetchCaptions(ctx, f, op, VariantURL(v.ID, variant))
		if err != nil {
			slog.Debug("param-sweep: variant failed",
				slog.String("video", v.ID), slog.Int("variant", i), slog.Any("err", err))
			lastErr = err
			continue
		}
		if text != "" {
			return text, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", nil
}
