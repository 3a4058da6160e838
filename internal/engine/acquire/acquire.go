// Package acquire runs the transcript cascade: official timed-text sources first,
// then the reader scrape, then a timestamp cross-check when the winner has none.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/reader"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

const op = "acquire"

// Attempt records one source tried during an acquisition.
type Attempt struct {
	Source   string        `json:"source"`
	OK       bool          `json:"ok"`
	Empty    bool          `json:"empty,omitempty"`
	Kind     string        `json:"error_kind,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is a successful acquisition.
type Result struct {
	Transcript   string    `json:"transcript"`
	Source       string    `json:"source"`
	VideoID      string    `json:"video_id"`
	Attempts     []Attempt `json:"attempts,omitempty"`
	CrossChecked bool      `json:"cross_checked,omitempty"`
	Cached       bool      `json:"cached,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Entry is the cache and archive form of r.
func (r Result) Entry() engine.CachedTranscript {
	return engine.CachedTranscript{VideoID: r.VideoID, Source: r.Source, Transcript: r.Transcript, FetchedAt: r.FetchedAt}
}

// Options tune a single acquisition.
type Options struct {
	Refresh bool // drop cached results for the video before the cascade
}

// Acquirer owns the ordered source lists and the per-video track cache.
type Acquirer struct {
	Official   []sources.Source
	Scrape     []sources.Source
	CrossCheck []sources.Source
	Tracks     *sources.TrackCache
}

// New wires the default cascade over f and the reader r (nil disables scraping).
func New(f engine.Fetcher, r *reader.Reader) *Acquirer {
	tracks := sources.NewTrackCache(engine.Cfg.TrackCacheSize, engine.Cfg.TrackCacheTTL)
	trackList := &sources.TrackList{Fetcher: f, Cache: tracks}
	a := &Acquirer{
		Official: []sources.Source{
			&sources.WatchPage{Fetcher: f},
			trackList,
			&sources.ParamSweep{Fetcher: f},
			&sources.InnertubePanel{Fetcher: f},
			&sources.PlayerAPI{Fetcher: f},
		},
		CrossCheck: []sources.Source{trackList},
		Tracks:     tracks,
	}
	if r != nil {
		a.Scrape = []sources.Source{&sources.Reader{Reader: r}}
	}
	return a
}

// Transcript returns just the transcript text for videoURL.
func (a *Acquirer) Transcript(ctx context.Context, videoURL string) (string, error) {
	res, err := a.Acquire(ctx, videoURL, Options{})
	if err != nil {
		return "", err
	}
	return res.Transcript, nil
}

// Acquire walks the cascade for videoURL and returns the first non-empty
// transcript. When every source fails, the returned *engine.Error carries the
// most specific kind any source reported.
func (a *Acquirer) Acquire(ctx context.Context, videoURL string, opts Options) (Result, error) {
	v, err := engine.ParseVideoURL(videoURL)
	if err != nil {
		return Result{}, err
	}
	engine.IncrAcquire()

	if !opts.Refresh {
		if c, ok := engine.CacheGetTranscript(ctx, v.ID); ok {
			return Result{Transcript: c.Transcript, Source: c.Source, VideoID: v.ID, Cached: true, FetchedAt: c.FetchedAt}, nil
		}
	} else {
		engine.CacheDelete(ctx, engine.TranscriptCacheKey(v.ID))
		a.Tracks.Invalidate(v.ID)
	}

	run := &cascade{video: v, reqID: uuid.NewString()}
	var res Result
	err = engine.TrackOperation(ctx, "acquire "+v.ID, func(ctx context.Context) error {
		var err error
		res, err = a.run(ctx, run)
		return err
	})
	if err != nil {
		engine.IncrAcquireError()
		a.Tracks.Invalidate(v.ID)
		return Result{VideoID: v.ID, Attempts: run.attempts}, err
	}

	engine.IncrSourceHit(res.Source)
	engine.CacheSetTranscript(ctx, res.Entry())
	return res, nil
}

func (a *Acquirer) run(ctx context.Context, c *cascade) (Result, error) {
	text, src := c.first(ctx, a.Official, false)
	if text == "" {
		text, src = c.first(ctx, a.Scrape, true)
	}
	if text == "" {
		return Result{}, c.failure()
	}

	res := Result{Transcript: text, Source: src, VideoID: c.video.ID, FetchedAt: time.Now().UTC()}
	if !engine.HasTimestamps(text) && len(a.CrossCheck) > 0 {
		if timed, from := c.first(ctx, a.CrossCheck, false); timed != "" {
			engine.IncrCrossCheck()
			slog.Info("acquire: cross-check replaced untimed transcript",
				slog.String("req", c.reqID), slog.String("video", c.video.ID),
				slog.String("from", src), slog.String("to", from))
			res.Transcript, res.Source, res.CrossChecked = timed, from, true
		}
	}
	res.Attempts = c.attempts
	return res, nil
}

// cascade is the state of one acquisition.
type cascade struct {
	video    engine.Video
	reqID    string
	attempts []Attempt
	errs     []error
}

// first tries srcs in order and returns the first non-empty transcript. With
// stopOnTerminal, an auth or bot error ends the list.
func (c *cascade) first(ctx context.Context, srcs []sources.Source, stopOnTerminal bool) (string, string) {
	for _, s := range srcs {
		if ctx.Err() != nil {
			c.errs = append(c.errs, engine.WrapError(engine.KindLoadTimeout, op, ctx.Err()))
			return "", ""
		}
		start := time.Now()
		text, err := s.Fetch(ctx, c.video)
		text = strings.TrimSpace(text)
		at := Attempt{Source: s.Name(), Duration: time.Since(start)}

		switch {
		case err != nil:
			at.Kind, at.Error = engine.KindOf(err).String(), err.Error()
			c.errs = append(c.errs, err)
			slog.Warn("acquire: step failed",
				slog.String("req", c.reqID), slog.String("video", c.video.ID),
				slog.String("source", at.Source), slog.Duration("elapsed", at.Duration), slog.Any("err", err))
		case text == "":
			at.Empty = true
			slog.Debug("acquire: step empty",
				slog.String("req", c.reqID), slog.String("video", c.video.ID), slog.String("source", at.Source))
		default:
			at.OK = true
			slog.Debug("acquire: step succeeded",
				slog.String("req", c.reqID), slog.String("video", c.video.ID),
				slog.String("source", at.Source), slog.Duration("elapsed", at.Duration))
		}
		c.attempts = append(c.attempts, at)

		if at.OK {
			return text, at.Source
		}
		if stopOnTerminal && err != nil && engine.KindOf(err).Terminal() {
			return "", ""
		}
	}
	return "", ""
}

// kindPriority ranks the kinds a synthesized failure may carry.
var kindPriority = []engine.Kind{
	engine.KindAuthenticationRequired,
	engine.KindBotVerificationRequired,
	engine.KindLoadTimeout,
}

// failure synthesizes one error after exhaustion.
func (c *cascade) failure() error {
	kind := engine.KindNotFound
	seen := make(map[engine.Kind]bool, len(c.errs))
	for _, err := range c.errs {
		seen[engine.KindOf(err)] = true
	}
	for _, k := range kindPriority {
		if seen[k] {
			kind = k
			break
		}
	}

	parts := make([]string, 0, len(c.attempts))
	for _, at := range c.attempts {
		switch {
		case at.Error != "":
			parts = append(parts, at.Error)
		case at.Empty:
			parts = append(parts, at.Source+": empty")
		}
	}
	msg := fmt.Sprintf("no transcript for %s", c.video.ID)
	if kind != engine.KindNotFound {
		msg = fmt.Sprintf("%s (%s)", msg, kind)
	}
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, "; ")
	}
	return engine.NewError(kind, op, "%s", msg)
}
