// Package payload parses the wire formats transcript sources receive: timed-text
// caption events (json3 and XML), caption track lists, and page-state JSON embedded
// in watch-page scripts. Parsers never fail loudly; malformed input yields a zero
// value and the caller decides what to try next.
package payload

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// xssiPrefix guards some Google JSON responses against script inclusion.
const xssiPrefix = ")]}'"

// StripXSSI removes a leading ")]}'" line and surrounding whitespace or BOM.
func StripXSSI(b []byte) []byte {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	b = bytes.TrimLeft(b, " \t\r\n")
	if bytes.HasPrefix(b, []byte(xssiPrefix)) {
		b = bytes.TrimLeft(b[len(xssiPrefix):], " \t\r\n")
	}
	return b
}

// captionEvents is the json3 timed-text format. The startMs/segments/text
// spellings appear in some proxies and are accepted as aliases.
type captionEvents struct {
	Events []captionEvent `json:"events"`
}

type captionEvent struct {
	TStartMs *float64     `json:"tStartMs"`
	StartMs  *float64     `json:"startMs"`
	Segs     []captionSeg `json:"segs"`
	Segments []captionSeg `json:"segments"`
}

type captionSeg struct {
	UTF8 string `json:"utf8"`
	Text string `json:"text"`
}

func (e captionEvent) startMillis() int64 {
	switch {
	case e.TStartMs != nil:
		return int64(*e.TStartMs)
	case e.StartMs != nil:
		return int64(*e.StartMs)
	}
	return 0
}

func (e captionEvent) text() string {
	segs := e.Segs
	if len(segs) == 0 {
		segs = e.Segments
	}
	var sb strings.Builder
	for _, s := range segs {
		if s.UTF8 != "" {
			sb.WriteString(s.UTF8)
		} else {
			sb.WriteString(s.Text)
		}
	}
	return engine.NormalizeWhitespace(sb.String())
}

// ParseCaptionEvents decodes json3 caption events into segments.
// Events with no renderable text are skipped. Returns nil on malformed input.
func ParseCaptionEvents(payload []byte) []engine.Segment {
	var ce captionEvents
	if err := json.Unmarshal(StripXSSI(payload), &ce); err != nil {
		return nil
	}
	segs := make([]engine.Segment, 0, len(ce.Events))
	for _, ev := range ce.Events {
		text := ev.text()
		if text == "" {
			continue
		}
		ms := ev.startMillis()
		if ms < 0 {
			ms = 0
		}
		segs = append(segs, engine.Segment{Seconds: int(ms / 1000), Text: text})
	}
	return segs
}

// ParseCaptionEventsJSON renders json3 caption events as a Transcript, "" when none.
func ParseCaptionEventsJSON(payload []byte) string {
	return engine.JoinSegments(ParseCaptionEvents(payload))
}

// --- Timedtext XML (srv1 <text start=".."> and srv3 <p t="..">) ---

type timedTextXML struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Body  string `xml:",innerxml"`
	} `xml:"text"`
	Paragraphs []struct {
		T    string `xml:"t,attr"`
		Body string `xml:",innerxml"`
	} `xml:"body>p"`
}

// ParseTimedTextXML decodes the legacy XML caption formats into segments.
func ParseTimedTextXML(payload []byte) []engine.Segment {
	var tt timedTextXML
	if err := xml.Unmarshal(StripXSSI(payload), &tt); err != nil {
		return nil
	}
	var segs []engine.Segment
	for _, t := range tt.Texts {
		sec, _ := strconv.ParseFloat(t.Start, 64)
		if text := xmlText(t.Body); text != "" {
			segs = append(segs, engine.Segment{Seconds: max(0, int(sec)), Text: text})
		}
	}
	for _, p := range tt.Paragraphs {
		ms, _ := strconv.Atoi(p.T)
		if text := xmlText(p.Body); text != "" {
			segs = append(segs, engine.Segment{Seconds: max(0, ms/1000), Text: text})
		}
	}
	return segs
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// xmlText strips inner tags and resolves the entity layers timedtext double-encodes.
func xmlText(inner string) string {
	s := htmlTagRe.ReplaceAllString(inner, "")
	s = html.UnescapeString(html.UnescapeString(s))
	return engine.NormalizeWhitespace(s)
}

// ParseCaptions accepts either json3 or XML timed text and renders a Transcript.
func ParseCaptions(payload []byte) string {
	body := StripXSSI(payload)
	if len(body) == 0 {
		return ""
	}
	if body[0] == '<' {
		return engine.JoinSegments(ParseTimedTextXML(body))
	}
	return ParseCaptionEventsJSON(body)
}
