// Package sanitize cleans transcript text before it is embedded into a prompt.
// It removes header chrome and UI markers left at the top of scraped text and
// never touches the body once real content starts.
package sanitize

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/noise"
)

// ErrNoUsableText is returned when nothing survives sanitization.
var ErrNoUsableText = errors.New("no usable source text")

// maxPasses bounds the fixed-point loop.
const maxPasses = 8

// Rules is the default leading-noise table.
var Rules = []noise.Rule{
	{Name: "glued-markers", Action: noise.Rewrite,
		Match:   func(l string, _ noise.State) bool { return len(noise.CountingMarkers(l)) >= 2 },
		Rewrite: func(l string) string { rest, _ := noise.CutThroughMarkers(l); return rest }},
	{Name: "duplicate", Action: noise.DropRun, Match: func(l string, st noise.State) bool { return l == st.Next }},
	{Name: "vocabulary", Action: noise.Drop, Match: func(l string, _ noise.State) bool { return noise.IsVocabulary(l) }},
	{Name: "header-noise", Action: noise.Drop, Match: func(l string, _ noise.State) bool { return noise.IsHeaderNoise(l) }},
	{Name: "marker-line", Action: noise.Drop, Match: func(l string, _ noise.State) bool { return noise.IsMarkerLine(l) }},
	{Name: "metadata-before-marker", Action: noise.Drop, Match: func(l string, st noise.State) bool {
		return noise.IsMarkerLine(st.Next) && looksLikeMetadata(l)
	}},
}

// Sanitizer strips leading boilerplate using a rule table.
type Sanitizer struct {
	Rules []noise.Rule
}

var defaultSanitizer = &Sanitizer{Rules: Rules}

// Sanitize cleans raw with the default rules.
func Sanitize(raw string) (string, error) {
	return defaultSanitizer.Sanitize(raw)
}

// Sanitize repeats a cleaning pass until the text stops changing, so the result
// is stable under another Sanitize call.
func (s *Sanitizer) Sanitize(raw string) (string, error) {
	text := s.pass(raw)
	for i := 1; i < maxPasses; i++ {
		next := s.pass(text)
		if next == text {
			break
		}
		text = next
	}
	if text == "" {
		engine.IncrSanitizeReject()
		return "", ErrNoUsableText
	}
	return text, nil
}

func (s *Sanitizer) pass(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = noise.StripInvisible(text)

	lines := strings.Split(text, "\n")
	if first := firstNonEmpty(lines); first >= 0 {
		lines[first] = trimFirstLine(lines[first])
	}
	lines = lines[noise.HeaderBlockEnd(lines, isHeaderLine):]

	pieces := splitHeader(lines)
	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}
	rest := noise.Strip(texts, s.Rules)
	if len(rest) == 0 {
		return ""
	}

	// Content starts inside lines[p.line]; the line is restored from the original
	// text so splits made for the walk never reach the output.
	p := pieces[len(texts)-len(rest)]
	line := lines[p.line]
	head := line[p.Start:]
	if rest[0] != p.Text {
		head = rest[0] + line[p.End:]
	}
	out := append([]string{head}, lines[p.line+1:]...)
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// piece is a walkable span of lines[line].
type piece struct {
	noise.Piece
	line int
}

// splitHeader isolates counting markers in the first noise.HeaderWindow lines.
// Later lines stay whole.
func splitHeader(lines []string) []piece {
	out := make([]piece, 0, len(lines))
	for i, l := range lines {
		if i >= noise.HeaderWindow {
			out = append(out, piece{Piece: noise.Piece{Text: strings.TrimSpace(l), Start: 0, End: len(l)}, line: i})
			continue
		}
		for _, p := range noise.SplitAtMarkers(l) {
			out = append(out, piece{Piece: p, line: i})
		}
	}
	return out
}

// maxTitleWords bounds a title line accepted above the marker row.
const maxTitleWords = 12

// isHeaderLine accepts the title, date and author lines that sit above the
// reader's marker row.
func isHeaderLine(line string) bool {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return true
	case noise.TimestampPattern.MatchString(t):
		return false
	case noise.IsVocabulary(t), noise.IsHeaderNoise(t), looksLikeMetadata(t):
		return true
	}
	return noise.IsTitleCase(t) && len(strings.Fields(t)) <= maxTitleWords
}

// trimFirstLine hard-cuts a first line carrying two or more markers, and drops a
// metadata prefix in front of a single marker.
func trimFirstLine(line string) string {
	if rest, ok := noise.CutThroughMarkers(line); ok {
		return rest
	}
	ms := noise.CountingMarkers(line)
	if len(ms) != 1 {
		return line
	}
	if looksLikeMetadata(line[:ms[0].Start]) {
		return strings.TrimSpace(line[ms[0].End:])
	}
	return line
}

// longPrefixRunes is the length above which unpunctuated text before a marker is
// taken for a fused title block.
const longPrefixRunes = 40

func looksLikeMetadata(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	switch {
	case noise.IsDateLine(t), noise.IsBareYear(t), noise.IsHashtagLine(t),
		noise.IsBareBy(t), noise.IsByline(t, true), noise.HasSocialMarks(t), strings.Contains(t, " | "):
		return true
	}
	if noise.TimestampPattern.MatchString(t) {
		return false
	}
	if utf8.RuneCountInString(t) >= longPrefixRunes && !strings.ContainsAny(t, ".!?") {
		return true
	}
	return false
}

func firstNonEmpty(lines []string) int {
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			return i
		}
	}
	return -1
}
