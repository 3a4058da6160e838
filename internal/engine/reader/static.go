package reader

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// StaticBrowser fetches reader pages without executing scripts and derives the
// visible text from the served HTML. It works for server-rendered reader pages
// and keeps tests free of Chrome.
type StaticBrowser struct {
	Fetcher engine.Fetcher
}

// Open returns a tab that fetches pageURL on WaitLoad.
func (b *StaticBrowser) Open(_ context.Context, pageURL string) (Tab, error) {
	if b.Fetcher == nil {
		return nil, fmt.Errorf("static browser: no fetcher")
	}
	return &staticTab{fetcher: b.Fetcher, url: pageURL}, nil
}

type staticTab struct {
	fetcher engine.Fetcher
	url     string
	text    string
	loaded  bool
}

func (t *staticTab) WaitLoad(ctx context.Context) error {
	resp, err := t.fetcher.Do(ctx, engine.Request{URL: t.url, Headers: map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	}})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("reader page status %d", resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("parse reader page: %w", err)
	}
	t.text = VisibleText(doc)
	t.loaded = true
	return nil
}

func (t *staticTab) InnerText(context.Context) (string, error) {
	if !t.loaded {
		return "", fmt.Errorf("reader page not loaded")
	}
	return t.text, nil
}

func (t *staticTab) Close() error { return nil }

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true, "head": true,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// VisibleText approximates innerText: text nodes joined with line breaks at
// block elements, scripts and styles skipped.
func VisibleText(doc *goquery.Document) string {
	var sb strings.Builder
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	for _, n := range root.Nodes {
		walkText(&sb, n)
	}
	var lines []string
	for _, l := range strings.Split(sb.String(), "\n") {
		if l = engine.NormalizeWhitespace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func walkText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedTags[n.Data] {
			return
		}
	}
	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(sb, c)
	}
	if block {
		sb.WriteByte('\n')
	}
}
