package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/payload"
)

const testVideoID = "dQw4w9WgXcQ"

var testVideo = engine.Video{ID: testVideoID, URL: "https://www.youtube.com/watch?v=" + testVideoID}

// routeFetcher answers by exact URL and 404s everything else.
type routeFetcher struct {
	mu     sync.Mutex
	routes map[string]string
	calls  []engine.Request
}

func newRouteFetcher(routes map[string]string) *routeFetcher {
	return &routeFetcher{routes: routes}
}

func (f *routeFetcher) Do(_ context.Context, r engine.Request) (*engine.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r)
	body, ok := f.routes[r.URL]
	if !ok {
		return &engine.Response{Status: http.StatusNotFound}, nil
	}
	return &engine.Response{Status: http.StatusOK, Body: []byte(body)}, nil
}

func (f *routeFetcher) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.URL
	}
	return out
}

func json3(text string) string {
	return fmt.Sprintf(`{"events":[{"tStartMs":0,"segs":[{"utf8":%q}]}]}`, text)
}

const trackBase = "https://www.youtube.com/api/timedtext?v=" + testVideoID + "&lang=en"

func watchPage(tracks string) string {
	return `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":` +
		tracks + `}}};</script></html>`
}

func TestWatchPage(t *testing.T) {
	tracks := `[{"baseUrl":"https://x/fr","languageCode":"fr"},{"baseUrl":"` + trackBase + `","languageCode":"en"}]`
	f := newRouteFetcher(map[string]string{
		payload.WatchURL(testVideoID):    watchPage(tracks),
		payload.JSON3URL(trackBase):      json3("Hello world"),
		payload.JSON3URL("https://x/fr"): json3("Bonjour"),
	})

	got, err := (&WatchPage{Fetcher: f}).Fetch(context.Background(), testVideo)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] Hello world", got)
}

func TestWatchPage_ConsentRetry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	consent := `<form action="https://consent.youtube.com/save">Before you continue to YouTube</form>`
	tracks := `[{"baseUrl":"` + trackBase + `","languageCode":"en"}]`
	f := newRouteFetcher(map[string]string{
		payload.WatchURL(testVideoID):              consent,
		payload.ConsentBypassURL(testVideoID, now): watchPage(tracks),
		payload.JSON3URL(trackBase):                json3("Hi"),
	})

	got, err := (&WatchPage{Fetcher: f, Now: func() time.Time { return now }}).Fetch(context.Background(), testVideo)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] Hi", got)
	require.GreaterOrEqual(t, len(f.calls), 2)
	assert.Equal(t, payload.ConsentCookie, f.calls[1].Headers["Cookie"])
}

func TestWatchPage_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
		want error
	}{
		{"malformed player response", `<script>var ytInitialPlayerResponse = {"captions": {broken;</script>`, engine.ErrMalformedResponse},
		{"bot wall", `<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm you're not a bot"}};</script>`, engine.ErrBotVerificationRequired},
		{"login", `<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Private video"}};</script>`, engine.ErrAuthenticationRequired},
		{"po token only", watchPage(`[{"baseUrl":"https://x/t?v=1&exp=xpe","languageCode":"en"}]`), engine.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouteFetcher(map[string]string{payload.WatchURL(testVideoID): tt.page})
			_, err := (&WatchPage{Fetcher: f}).Fetch(context.Background(), testVideo)
			if !errors.Is(err, tt.want) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWatchPage_PageNotFound(t *testing.T) {
	_, err := (&WatchPage{Fetcher: newRouteFetcher(nil)}).Fetch(context.Background(), testVideo)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestFetchCaptions_Malformed(t *testing.T) {
	f := newRouteFetcher(map[string]string{"u": `{"events":[`, "e": `{"events":[]}`})

	_, err := fetchCaptions(context.Background(), f, "test", "u")
	assert.ErrorIs(t, err, engine.ErrMalformedResponse)

	got, err := fetchCaptions(context.Background(), f, "test", "e")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParamSweep_FourthVariantWins(t *testing.T) {
	f := newRouteFetcher(map[string]string{
		VariantURL(testVideoID, SweepVariants[3]): json3("fourth"),
	})

	got, err := (&ParamSweep{Fetcher: f}).Fetch(context.Background(), testVideo)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] fourth", got)
	assert.Len(t, f.calls, 4)
}

func TestParamSweep_AllFail(t *testing.T) {
	_, err := (&ParamSweep{Fetcher: newRouteFetcher(nil)}).Fetch(context.Background(), testVideo)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestVariantURL(t *testing.T) {
	got := VariantURL(testVideoID, SweepVariants[1])
	want := payload.TimedTextEndpoint + "?fmt=json3&kind=asr&lang=en&v=" + testVideoID
	if got != want {
		t.Errorf("VariantURL() = %q, want %q", got, want)
	}
}

func TestTrackList_UsesCache(t *testing.T) {
	list := `<transcript_list><track lang_code="fr" name="" kind=""/><track lang_code="en" name="English" kind=""/></transcript_list>`
	en := payload.CaptionTrack{LanguageCode: "en", Name: "English", Kind: payload.TrackStandard}
	f := newRouteFetcher(map[string]string{
		payload.TrackListURL(testVideoID):        list,
		payload.TrackRequestURL(testVideoID, en): json3("from list"),
	})
	cache := NewTrackCache(4, time.Minute)
	src := &TrackList{Fetcher: f, Cache: cache}

	for range 2 {
		got, err := src.Fetch(context.Background(), testVideo)
		require.NoError(t, err)
		assert.Equal(t, "[00:00] from list", got)
	}
	listCalls := 0
	for _, u := range f.urls() {
		if strings.Contains(u, "type=list") {
			listCalls++
		}
	}
	assert.Equal(t, 1, listCalls)
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate(testVideoID)
	assert.Equal(t, 0, cache.Len())
}

func TestTrackList_Empty(t *testing.T) {
	f := newRouteFetcher(map[string]string{payload.TrackListURL(testVideoID): `<transcript_list/>`})
	cache := NewTrackCache(4, time.Minute)
	_, err := (&TrackList{Fetcher: f, Cache: cache}).Fetch(context.Background(), testVideo)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	assert.Equal(t, 0, cache.Len(), "empty lists are not cached")
}

func TestTrackCache_Bounded(t *testing.T) {
	c := NewTrackCache(2, time.Minute)
	tracks := []payload.CaptionTrack{{LanguageCode: "en"}}
	c.Put("a", tracks)
	time.Sleep(2 * time.Millisecond)
	c.Put("b", tracks)
	time.Sleep(2 * time.Millisecond)
	c.Put("c", tracks)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)

	var nilCache *TrackCache
	nilCache.Put("x", tracks)
	_, ok = nilCache.Get("x")
	assert.False(t, ok)
}

func TestTranscriptToken(t *testing.T) {
	next := []byte(`{"engagementPanels":[{"x":{"getTranscriptEndpoint":{"params":"Cgt%3D"}}}]}`)
	got, ok := TranscriptToken(next)
	require.True(t, ok)
	assert.Equal(t, "Cgt=", got)

	_, ok = TranscriptToken([]byte(`{}`))
	assert.False(t, ok)
}

const getTranscriptBody = `{"actions":[{"updateEngagementPanelAction":{"content":{"transcriptRenderer":{"content":{"transcriptSearchPanelRenderer":{"body":{"transcriptSegmentListRenderer":{"initialSegments":[
{"transcriptSegmentRenderer":{"startMs":"0","snippet":{"runs":[{"text":"Hello"},{"text":" there"}]}}},
{"transcriptSegmentHeaderRenderer":{}},
{"transcriptSegmentRenderer":{"startMs":"65000","snippet":{"runs":[{"text":"Next  line"}]}}}
]}}}}}}}}]}`

func TestPanelSegments(t *testing.T) {
	segs, ok := PanelSegments([]byte(getTranscriptBody))
	require.True(t, ok)
	assert.Equal(t, "[00:00] Hello there\n[01:05] Next line", engine.JoinSegments(segs))

	_, ok = PanelSegments([]byte("not json"))
	assert.False(t, ok)
}

func TestInnertubePanel(t *testing.T) {
	f := newRouteFetcher(map[string]string{
		innertubeURL("next"):           `{"x":{"getTranscriptEndpoint":{"params":"tok"}}}`,
		innertubeURL("get_transcript"): getTranscriptBody,
	})
	got, err := (&InnertubePanel{Fetcher: f}).Fetch(context.Background(), testVideo)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] Hello there\n[01:05] Next line", got)

	require.Len(t, f.calls, 2)
	assert.Equal(t, http.MethodPost, f.calls[0].Method)
	assert.Contains(t, string(f.calls[1].Body), `"params":"tok"`)
	assert.Equal(t, ytClientNameWeb, f.calls[0].Headers["X-Youtube-Client-Name"])
}

func TestPlayerAPI(t *testing.T) {
	player := `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"` + trackBase + `","languageCode":"en"}]}}}`
	f := newRouteFetcher(map[string]string{
		innertubeURL("player"):      player,
		payload.JSON3URL(trackBase): json3("android"),
	})
	got, err := (&PlayerAPI{Fetcher: f}).Fetch(context.Background(), testVideo)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] android", got)
	assert.Equal(t, ytClientNameAndroid, f.calls[0].Headers["X-Youtube-Client-Name"])
	assert.Contains(t, string(f.calls[0].Body), `"clientName":"ANDROID"`)
}

func TestPlayerAPI_LoginRequired(t *testing.T) {
	f := newRouteFetcher(map[string]string{
		innertubeURL("player"): `{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Please sign in"}}`,
	})
	_, err := (&PlayerAPI{Fetcher: f}).Fetch(context.Background(), testVideo)
	assert.ErrorIs(t, err, engine.ErrAuthenticationRequired)
}

func TestReaderSource_Unconfigured(t *testing.T) {
	_, err := (&Reader{}).Fetch(context.Background(), testVideo)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestSourceNames(t *testing.T) {
	names := map[Source]string{
		&WatchPage{}:      engine.SourceWatchPage,
		&TrackList{}:      engine.SourceTrackList,
		&ParamSweep{}:     engine.SourceParamSweep,
		&InnertubePanel{}: engine.SourceInnertube,
		&PlayerAPI{}:      engine.SourcePlayerAPI,
		&Reader{}:         engine.SourceReader,
	}
	for src, want := range names {
		if got := src.Name(); got != want {
			t.Errorf("%T.Name() = %q, want %q", src, got, want)
		}
	}
}

func TestFetchMeta(t *testing.T) {
	f := newRouteFetcher(map[string]string{
		OEmbedURL(testVideo): `{"title":" Never Gonna Give You Up ","author_name":"Rick Astley","type":"video"}`,
	})
	meta, err := FetchMeta(context.Background(), f, testVideo)
	require.NoError(t, err)
	assert.Equal(t, VideoMeta{Title: "Never Gonna Give You Up", Creator: "Rick Astley"}, meta)

	_, err = FetchMeta(context.Background(), newRouteFetcher(nil), testVideo)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	bad := newRouteFetcher(map[string]string{OEmbedURL(testVideo): "Unauthorized"})
	_, err = FetchMeta(context.Background(), bad, testVideo)
	assert.ErrorIs(t, err, engine.ErrMalformedResponse)
}

func TestFetchMeta_PlayerResponse(t *testing.T) {
	page := `<script>var ytInitialPlayerResponse = {"videoDetails":{"title":"Demo Talk","author":"Chan"},` +
		`"microformat":{"playerMicroformatRenderer":{"uploadDate":"2024-03-01T04:00:00-08:00"}}};</script>`
	f := newRouteFetcher(map[string]string{payload.WatchURL(testVideoID): page})

	meta, err := FetchMeta(context.Background(), f, testVideo)
	require.NoError(t, err)
	assert.Equal(t, VideoMeta{Title: "Demo Talk", Creator: "Chan", UploadDate: "2024-03-01T04:00:00-08:00"}, meta)
	assert.Equal(t, []string{payload.WatchURL(testVideoID)}, f.urls(), "oembed is skipped")
}

func TestFetchMeta_OEmbedFillsCreator(t *testing.T) {
	page := `<script>var ytInitialPlayerResponse = {"videoDetails":{"title":"Demo Talk"},` +
		`"microformat":{"playerMicroformatRenderer":{"publishDate":"2024-03-01"}}};</script>`
	f := newRouteFetcher(map[string]string{
		payload.WatchURL(testVideoID): page,
		OEmbedURL(testVideo):          `{"title":"Other","author_name":"Chan"}`,
	})

	meta, err := FetchMeta(context.Background(), f, testVideo)
	require.NoError(t, err)
	assert.Equal(t, VideoMeta{Title: "Demo Talk", Creator: "Chan", UploadDate: "2024-03-01"}, meta)

	partial := newRouteFetcher(map[string]string{payload.WatchURL(testVideoID): page})
	meta, err = FetchMeta(context.Background(), partial, testVideo)
	require.NoError(t, err, "a partial player answer beats a failed oembed lookup")
	assert.Equal(t, "Demo Talk", meta.Title)
}
