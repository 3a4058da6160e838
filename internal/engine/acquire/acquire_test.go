package acquire

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/payload"
	"github.com/anatolykoptev/go_transcript/internal/engine/reader"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

const (
	videoID  = "dQw4w9WgXcQ"
	videoURL = "https://youtu.be/" + videoID
)

// seqFetcher serves queued bodies per URL; an exhausted or unknown URL is a 404.
type seqFetcher struct {
	mu     sync.Mutex
	queued map[string][]string
	calls  []string
}

func (f *seqFetcher) Do(_ context.Context, r engine.Request) (*engine.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.URL)
	q := f.queued[r.URL]
	if len(q) == 0 {
		return &engine.Response{Status: http.StatusNotFound}, nil
	}
	body := q[0]
	f.queued[r.URL] = q[1:]
	if body == "" {
		return &engine.Response{Status: http.StatusNotFound}, nil
	}
	return &engine.Response{Status: http.StatusOK, Body: []byte(body)}, nil
}

type stubSource struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, engine.Video) (string, error) {
	s.calls++
	return s.text, s.err
}

type pageBrowser struct{ text string }

func (b pageBrowser) Open(context.Context, string) (reader.Tab, error) { return pageTab{b.text}, nil }

type pageTab struct{ text string }

func (t pageTab) WaitLoad(context.Context) error            { return nil }
func (t pageTab) InnerText(context.Context) (string, error) { return t.text, nil }
func (t pageTab) Close() error                              { return nil }

func newReader(text string) *reader.Reader {
	r := reader.New(pageBrowser{text: text})
	r.PollInterval = time.Millisecond
	return r
}

const fourthVariant = `{"events":[{"tStartMs":1500,"segs":[{"utf8":"fourth "},{"utf8":"variant"}]},{"tStartMs":62000,"segs":[{"utf8":"wins"}]}]}`

func TestAcquire_FallsBackToFourthSweepVariant(t *testing.T) {
	f := &seqFetcher{queued: map[string][]string{
		payload.WatchURL(videoID): {`<script>var ytInitialPlayerResponse = {"captions": {"x": [ ;</script>`},
		sources.VariantURL(videoID, sources.SweepVariants[3]): {fourthVariant},
	}}

	res, err := New(f, nil).Acquire(context.Background(), videoURL, Options{})
	require.NoError(t, err)
	assert.Equal(t, payload.ParseCaptions([]byte(fourthVariant)), res.Transcript)
	assert.Equal(t, "[00:01] fourth variant\n[01:02] wins", res.Transcript)
	assert.Equal(t, engine.SourceParamSweep, res.Source)
	assert.Equal(t, videoID, res.VideoID)
	assert.False(t, res.CrossChecked)

	require.Len(t, res.Attempts, 3)
	assert.Equal(t, engine.SourceWatchPage, res.Attempts[0].Source)
	assert.Equal(t, engine.KindMalformedResponse.String(), res.Attempts[0].Kind)
	assert.Equal(t, engine.SourceTrackList, res.Attempts[1].Source)
	assert.True(t, res.Attempts[2].OK)

	var sweeps int
	for _, u := range f.calls {
		if strings.HasPrefix(u, payload.TimedTextEndpoint+"?fmt=json3") {
			sweeps++
		}
	}
	assert.Equal(t, 4, sweeps)
}

func TestAcquire_ReaderThenCrossCheck(t *testing.T) {
	page := "Title\nSep 1, 2024\nby Creator\nShare Video\nDownload .srt\nCopy\nHost: Hello.\nGuest: Hi."

	t.Run("reader result kept when cross-check fails", func(t *testing.T) {
		f := &seqFetcher{queued: map[string][]string{}}
		res, err := New(f, newReader(page)).Acquire(context.Background(), videoURL, Options{})
		require.NoError(t, err)
		assert.Equal(t, "Host: Hello.\nGuest: Hi.", res.Transcript)
		assert.Equal(t, engine.SourceReader, res.Source)
		assert.False(t, res.CrossChecked)
	})

	t.Run("timed cross-check replaces reader result", func(t *testing.T) {
		en := payload.CaptionTrack{LanguageCode: "en", Kind: payload.TrackStandard}
		f := &seqFetcher{queued: map[string][]string{
			// first track-list call falls through, the cross-check one succeeds
			payload.TrackListURL(videoID):        {"", `<transcript_list><track lang_code="en"/></transcript_list>`},
			payload.TrackRequestURL(videoID, en): {`{"events":[{"tStartMs":0,"segs":[{"utf8":"timed"}]}]}`},
		}}
		res, err := New(f, newReader(page)).Acquire(context.Background(), videoURL, Options{})
		require.NoError(t, err)
		assert.Equal(t, "[00:00] timed", res.Transcript)
		assert.Equal(t, engine.SourceTrackList, res.Source)
		assert.True(t, res.CrossChecked)
	})
}

func TestAcquire_TerminalStopsScrape(t *testing.T) {
	official := &stubSource{name: "official", err: engine.NewError(engine.KindNotFound, "official", "nothing")}
	bot := &stubSource{name: "scrape-1", err: engine.NewError(engine.KindBotVerificationRequired, "scrape-1", "captcha")}
	next := &stubSource{name: "scrape-2", text: "never used"}
	a := &Acquirer{Official: []sources.Source{official}, Scrape: []sources.Source{bot, next}}

	_, err := a.Acquire(context.Background(), videoURL, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrBotVerificationRequired))
	assert.Equal(t, 0, next.calls)
	assert.Contains(t, err.Error(), "captcha")
}

func TestAcquire_OfficialErrorsDoNotStopCascade(t *testing.T) {
	auth := &stubSource{name: "official", err: engine.NewError(engine.KindAuthenticationRequired, "official", "sign in")}
	empty := &stubSource{name: "empty", text: "  \n "}
	scrape := &stubSource{name: "scrape", text: "[00:00] from scrape"}
	a := &Acquirer{Official: []sources.Source{auth, empty}, Scrape: []sources.Source{scrape}}

	res, err := a.Acquire(context.Background(), videoURL, Options{})
	require.NoError(t, err)
	assert.Equal(t, "[00:00] from scrape", res.Transcript)
	require.Len(t, res.Attempts, 3)
	assert.True(t, res.Attempts[1].Empty)
}

func TestAcquire_FailureKind(t *testing.T) {
	tests := []struct {
		name string
		errs []error
		want error
	}{
		{"all not found", []error{engine.ErrNotFound, engine.NewError(engine.KindMalformedResponse, "x", "bad")}, engine.ErrNotFound},
		{"auth preferred", []error{engine.ErrNotFound, engine.NewError(engine.KindAuthenticationRequired, "x", "login")}, engine.ErrAuthenticationRequired},
		{"timeout preferred over not found", []error{engine.NewError(engine.KindLoadTimeout, "reader", "slow"), engine.ErrNotFound}, engine.ErrLoadTimeout},
		{"auth over bot", []error{engine.NewError(engine.KindBotVerificationRequired, "x", "bot"), engine.NewError(engine.KindAuthenticationRequired, "y", "login")}, engine.ErrAuthenticationRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var official []sources.Source
			for i, e := range tt.errs {
				official = append(official, &stubSource{name: string(rune('a' + i)), err: e})
			}
			_, err := (&Acquirer{Official: official}).Acquire(context.Background(), videoURL, Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Acquire() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAcquire_InvalidInput(t *testing.T) {
	for _, in := range []string{"", "https://example.com/watch?v=dQw4w9WgXcQ", "youtube.com/watch"} {
		_, err := (&Acquirer{}).Acquire(context.Background(), in, Options{})
		if !errors.Is(err, engine.ErrInvalidInput) {
			t.Errorf("Acquire(%q) error = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestAcquire_InvalidatesTrackCache(t *testing.T) {
	tracks := sources.NewTrackCache(4, time.Minute)
	tracks.Put(videoID, []payload.CaptionTrack{{LanguageCode: "en"}})
	a := &Acquirer{
		Official: []sources.Source{&stubSource{name: "x", err: engine.ErrNotFound}},
		Tracks:   tracks,
	}

	_, err := a.Acquire(context.Background(), videoURL, Options{})
	require.Error(t, err)
	_, ok := tracks.Get(videoID)
	assert.False(t, ok, "failed cascade drops the cached track list")

	tracks.Put(videoID, []payload.CaptionTrack{{LanguageCode: "en"}})
	a.Official = []sources.Source{&stubSource{name: "x", text: "[00:00] ok"}}
	_, err = a.Acquire(context.Background(), videoURL, Options{Refresh: true})
	require.NoError(t, err)
	_, ok = tracks.Get(videoID)
	assert.False(t, ok, "refresh drops the cached track list")
}

func TestTranscript(t *testing.T) {
	a := &Acquirer{Official: []sources.Source{&stubSource{name: "x", text: "[00:00] hi\n"}}}
	got, err := a.Transcript(context.Background(), videoID)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] hi", got)
}

func TestAcquire_RefreshDropsCachedTranscript(t *testing.T) {
	engine.InitCache("", time.Minute, 100, 5*time.Minute)
	t.Cleanup(func() { engine.InitCache("", time.Nanosecond, 100, 5*time.Minute) })
	ctx := context.Background()
	const id = "aaaaaaaaaaa"

	engine.CacheSetTranscript(ctx, engine.CachedTranscript{VideoID: id, Source: "x", Transcript: "[00:00] old"})
	a := &Acquirer{Official: []sources.Source{&stubSource{name: "x", err: engine.NewError(engine.KindNotFound, "x", "gone")}}}

	res, err := a.Acquire(ctx, id, Options{})
	require.NoError(t, err)
	assert.True(t, res.Cached)

	_, err = a.Acquire(ctx, id, Options{Refresh: true})
	require.Error(t, err)
	_, ok := engine.CacheGetTranscript(ctx, id)
	assert.False(t, ok, "a failed refresh leaves no cached copy behind")
}
