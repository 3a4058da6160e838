package reader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

func TestExtract_MetadataHeaders(t *testing.T) {
	page := strings.Join([]string{
		"Glasp Reader",
		"YouTube Transcript & Summary",
		"#philosophaire",
		"September 18, 2025",
		"by",
		"Philosophaire",
		"YouTube video player",
		"#philosophaires",
		"Transcripts",
		"Share Video",
		"Download .srt",
		"Copy Transcript",
		"Summarize Transcript",
		"English (auto-generated)",
		"As you get older, you start seeing things differently.",
		"You notice how people affect your peace.",
	}, "\n")

	got, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "As you get older, you start seeing things differently.\nYou notice how people affect your peace.", got)
}

func TestExtract_FusedHeader(t *testing.T) {
	page := strings.Join([]string{
		"Glasp Reader",
		"YouTube Transcript & Summary",
		"#philosophaireSeptember 23, 2025#philosophairesShare VideoDownload .srtCopy",
		"As you get older, you start seeing things differently.",
		"You notice how people affect your peace.",
	}, "\n")

	got, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "As you get older, you start seeing things differently.\nYou notice how people affect your peace.", got)
}

func TestExtract_TitleDateAuthorBlock(t *testing.T) {
	page := "Title\nSep 1, 2024\nby Creator\nShare Video\nDownload .srt\nCopy\nHost: Hello.\nGuest: Hi."
	got, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Host: Hello.\nGuest: Hi.", got)
}

func TestExtract_Timestamped(t *testing.T) {
	page := strings.Join([]string{
		"Glasp Reader",
		"YouTube Transcript & Summary",
		"Some Video Title",
		"0:00 welcome to the show",
		"0:05 - today we talk",
		"about caching",
		"1:02:03 closing words",
		"Share This Page",
		"Pricing",
		"© 2025 Glasp Inc.",
	}, "\r\n")

	got, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "[00:00] welcome to the show\n[00:05] today we talk about caching\n[01:02:03] closing words", got)
	assert.True(t, engine.HasTimestamps(got))
}

func TestExtract_SpokenFooterWord(t *testing.T) {
	page := "Transcript\nWelcome everyone.\nCommunity\nThat is what this channel is about.\nPricing\nBlog"
	got, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, "Welcome everyone.\nCommunity\nThat is what this channel is about.", got)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
		kind engine.Kind
	}{
		{"empty", "   \n ", engine.KindNotFound},
		{"cloudflare", "Attention Required! | Cloudflare\nPlease enable cookies.", engine.KindBotVerificationRequired},
		{"sign in", "Glasp Reader\nPlease  sign in to continue", engine.KindAuthenticationRequired},
		{"log in", "please log in", engine.KindAuthenticationRequired},
		{"only chrome", "Transcript\nShare Video\nCopy\nPricing\nBlog", engine.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.page)
			require.Error(t, err)
			assert.Equal(t, tt.kind, engine.KindOf(err))
		})
	}
}

func TestIsMeaningful(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"timestamped", "[00:01] hi", true},
		{"multi line", "a\nb", true},
		{"short flat", "just a few words", false},
		{"long flat", strings.Repeat("word ", 20), true},
		{"marketing tail", "[00:01] hi\n[00:02] there\nPricing", false},
		{"spoken footer word", "[00:01] hi\n[00:02] Community\n[00:03] there", true},
		{"empty", "  ", false},
	}
	for _, tt := range tests {
		if got := IsMeaningful(tt.in); got != tt.want {
			t.Errorf("%s: IsMeaningful(%q) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

type fakeTab struct {
	texts   []string
	waitErr error
	reads   int
	closed  int
}

func (f *fakeTab) WaitLoad(ctx context.Context) error {
	if f.waitErr != nil {
		return f.waitErr
	}
	return ctx.Err()
}

func (f *fakeTab) InnerText(context.Context) (string, error) {
	i := f.reads
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	f.reads++
	return f.texts[i], nil
}

func (f *fakeTab) Close() error {
	f.closed++
	return errors.New("already gone")
}

type fakeBrowser struct {
	tab    *fakeTab
	opened string
	err    error
}

func (b *fakeBrowser) Open(_ context.Context, u string) (Tab, error) {
	b.opened = u
	if b.err != nil {
		return nil, b.err
	}
	return b.tab, nil
}

func newTestReader(b Browser) *Reader {
	r := New(b)
	r.BaseURL = "https://reader.test/?url="
	r.Timeout = time.Second
	r.PollInterval = time.Millisecond
	return r
}

func TestReader_FetchWaitsForSettledText(t *testing.T) {
	final := "Transcript\n0:00 hello there\n0:04 general kenobi"
	tab := &fakeTab{texts: []string{"", "Loading", final, final}}
	b := &fakeBrowser{tab: tab}
	r := newTestReader(b)

	got, err := r.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "[00:00] hello there\n[00:04] general kenobi", got)
	assert.Equal(t, "https://reader.test/?url=https%3A%2F%2Fwww.youtube.com%2Fwatch%3Fv%3DdQw4w9WgXcQ", b.opened)
	assert.Equal(t, 4, tab.reads)
	assert.Equal(t, 1, tab.closed)
}

func TestReader_FetchTimeout(t *testing.T) {
	tab := &fakeTab{texts: []string{""}, waitErr: context.DeadlineExceeded}
	r := newTestReader(&fakeBrowser{tab: tab})

	_, err := r.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrLoadTimeout))
	assert.Equal(t, 1, tab.closed, "tab must be closed on timeout")
}

func TestReader_FetchBotWall(t *testing.T) {
	tab := &fakeTab{texts: []string{"Attention Required! | Cloudflare"}}
	r := newTestReader(&fakeBrowser{tab: tab})

	_, err := r.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.True(t, errors.Is(err, engine.ErrBotVerificationRequired))
	assert.Equal(t, 1, tab.closed)
}

func TestReader_FetchOpenError(t *testing.T) {
	r := newTestReader(&fakeBrowser{err: fmt.Errorf("chrome missing")})
	_, err := r.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.Error(t, err)
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
	assert.Contains(t, err.Error(), "chrome missing")
}

func TestStaticBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>x</title><script>var a = "Share Video";</script></head>
<body><nav>Glasp Reader</nav><div><h1>YouTube Transcript &amp; Summary</h1>
<p>0:00 <span>first</span> line</p><p>0:03 second line</p></div>
<footer><ul><li>Pricing</li><li>Blog</li></ul></footer></body></html>`)
	}))
	defer srv.Close()

	b := &StaticBrowser{Fetcher: engine.NewHTTPFetcher(srv.Client(), 0)}
	r := newTestReader(b)
	r.BaseURL = srv.URL + "/reader?url="

	got, err := r.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "[00:00] first line\n[00:03] second line", got)
}
