package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Segment is one timed line of a transcript.
type Segment struct {
	Seconds int    `json:"seconds"`
	Text    string `json:"text"`
}

// String renders the segment as "[MM:SS] text".
func (s Segment) String() string {
	return "[" + FormatTimestamp(s.Seconds) + "] " + s.Text
}

// JoinSegments renders segments one per line. This is the canonical Transcript form.
func JoinSegments(segs []Segment) string {
	var sb strings.Builder
	for i, s := range segs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

var timestampJunkRe = regexp.MustCompile(`[^0-9:]`)

// ParseTimestamp converts "MM:SS" or "HH:MM:SS" to seconds.
// Characters other than digits and colons are dropped first; anything unparsable yields 0.
func ParseTimestamp(raw string) int {
	clean := timestampJunkRe.ReplaceAllString(raw, "")
	if clean == "" {
		return 0
	}
	parts := strings.Split(clean, ":")
	if len(parts) > 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// FormatTimestamp renders seconds as MM:SS, or HH:MM:SS from one hour up.
// Negative input clamps to zero.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

var taggedTimestampRe = regexp.MustCompile(`\[(?:\d{1,2}:)?\d{1,2}:\d{2}\]`)

// HasTimestamps reports whether text carries at least one "[MM:SS]" tag.
func HasTimestamps(text string) bool {
	return taggedTimestampRe.MatchString(text)
}
