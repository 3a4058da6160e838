package reader

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Browser opens pages for scraping.
type Browser interface {
	Open(ctx context.Context, pageURL string) (Tab, error)
}

// Tab is one opened page. Close must be safe to call more than once.
type Tab interface {
	WaitLoad(ctx context.Context) error
	InnerText(ctx context.Context) (string, error)
	Close() error
}

// DefaultPollInterval is the delay between innerText reads while waiting for
// the page to settle.
const DefaultPollInterval = 500 * time.Millisecond

// Reader fetches a transcript through the reader site.
type Reader struct {
	Browser      Browser
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration

	breaker *gobreaker.CircuitBreaker
}

// New builds a Reader from engine configuration. Five consecutive load failures
// open the breaker for a minute; "not found" pages do not count as failures.
func New(b Browser) *Reader {
	r := &Reader{
		Browser:      b,
		BaseURL:      engine.Cfg.ReaderBaseURL,
		Timeout:      engine.Cfg.ReaderTimeout,
		PollInterval: DefaultPollInterval,
	}
	if r.BaseURL == "" {
		r.BaseURL = engine.DefaultReaderBaseURL
	}
	if r.Timeout <= 0 {
		r.Timeout = engine.DefaultReaderTimeout
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "reader",
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || engine.KindOf(err) == engine.KindNotFound
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("reader: breaker state change", slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	return r
}

// PageURL is the reader page for a watch URL.
func (r *Reader) PageURL(videoURL string) string {
	return r.BaseURL + url.QueryEscape(videoURL)
}

// Fetch opens the reader page for videoURL and extracts its transcript.
func (r *Reader) Fetch(ctx context.Context, videoURL string) (string, error) {
	if r.breaker == nil {
		return r.fetch(ctx, videoURL)
	}
	v, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetch(ctx, videoURL)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", engine.WrapError(engine.KindNotFound, op, err)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Reader) fetch(ctx context.Context, videoURL string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = engine.DefaultReaderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tab, err := r.Browser.Open(ctx, r.PageURL(videoURL))
	if err != nil {
		return "", r.loadError(ctx, "open reader page", err)
	}
	defer closeTab(tab)

	if err := tab.WaitLoad(ctx); err != nil {
		return "", r.loadError(ctx, "wait for reader page", err)
	}
	text, err := r.settledText(ctx, tab)
	if err != nil {
		return "", r.loadError(ctx, "read reader page", err)
	}

	transcript, err := Extract(text)
	if err != nil {
		return "", err
	}
	if !IsMeaningful(transcript) {
		return "", engine.NewError(engine.KindNotFound, op, "reader page has no usable transcript")
	}
	return transcript, nil
}

// settledText polls innerText until two consecutive reads agree. When the
// deadline passes after at least one non-empty read, that read is used.
func (r *Reader) settledText(ctx context.Context, tab Tab) (string, error) {
	interval := r.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var last string
	for {
		text, err := tab.InnerText(ctx)
		if err != nil {
			if last != "" && ctx.Err() != nil {
				return last, nil
			}
			return "", err
		}
		if strings.TrimSpace(text) != "" && text == last {
			return text, nil
		}
		last = text
		select {
		case <-ctx.Done():
			if strings.TrimSpace(last) != "" {
				return last, nil
			}
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (r *Reader) loadError(ctx context.Context, msg string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		engine.IncrReaderTimeout()
		return engine.NewError(engine.KindLoadTimeout, op, "reader page did not load within %s", r.Timeout)
	}
	return &engine.Error{Kind: engine.KindNotFound, Op: op, Msg: msg, Err: err}
}

func closeTab(tab Tab) {
	if err := tab.Close(); err != nil {
		slog.Debug("reader: close tab", slog.Any("err", err))
	}
}

// onceCloser makes a close function idempotent.
type onceCloser struct {
	once sync.Once
	err  error
	fn   func() error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.fn() })
	return c.err
}
