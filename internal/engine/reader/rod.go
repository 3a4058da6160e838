package reader

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const innerTextJS = `() => document.body ? document.body.innerText : ""`

// RodBrowser renders reader pages in headless Chrome. Chrome is launched on the
// first Open and shared; every page gets its own incognito context.
type RodBrowser struct {
	Bin string // empty = let rod find or download Chrome

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodBrowser returns a browser that launches Chrome lazily.
func NewRodBrowser(bin string) *RodBrowser {
	return &RodBrowser{Bin: bin}
}

func (b *RodBrowser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}
	l := launcher.New().
		Headless(true).
		Set("mute-audio").
		Set("disable-blink-features", "AutomationControlled").
		Set("user-agent", engine.UserAgentChrome)
	if b.Bin != "" {
		l = l.Bin(b.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	br := rod.New().ControlURL(u)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	b.browser = br
	return br, nil
}

// Open navigates a fresh incognito page to pageURL.
func (b *RodBrowser) Open(ctx context.Context, pageURL string) (Tab, error) {
	br, err := b.connect()
	if err != nil {
		return nil, err
	}
	incognito, err := br.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	t := &rodTab{page: page}
	t.closer.fn = func() error {
		perr := page.Context(context.Background()).Close()
		if err := incognito.Close(); err != nil {
			return err
		}
		return perr
	}
	return t, nil
}

// Close shuts Chrome down.
func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

type rodTab struct {
	page   *rod.Page
	closer onceCloser
}

func (t *rodTab) WaitLoad(ctx context.Context) error {
	return t.page.Context(ctx).WaitLoad()
}

func (t *rodTab) InnerText(ctx context.Context) (string, error) {
	res, err := t.page.Context(ctx).Evaluate(rod.Eval(innerTextJS))
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (t *rodTab) Close() error { return t.closer.Close() }
