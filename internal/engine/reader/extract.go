// Package reader scrapes transcripts from the third-party reader page: it opens
// the page in a renderer, reads its visible text and recovers the transcript from
// the surrounding chrome.
package reader

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/noise"
)

const op = "reader"

var (
	botWallRe   = regexp.MustCompile(`(?i)Attention Required! \| Cloudflare`)
	authWallRe  = regexp.MustCompile(`(?i)Please\s+(?:sign\s+in|log\s+in)`)
	headerRe    = regexp.MustCompile(`(?i)(?:Summarize\s+)?Transcript(?:\s*English\s*\(auto-generated\))?`)
	segmentTSRe = regexp.MustCompile(`((?:\d{1,2}:)?\d{1,2}:\d{2})(?:\s*[-–:]\s*|\s+)?`)
)

// Extract recovers a transcript from the visible text of a reader page.
// Timestamped text comes back as "[MM:SS] text" lines; otherwise the surviving
// lines are returned as-is.
func Extract(pageText string) (string, error) {
	if strings.TrimSpace(pageText) == "" {
		return "", engine.NewError(engine.KindNotFound, op, "empty reader page")
	}
	if botWallRe.MatchString(pageText) {
		return "", engine.NewError(engine.KindBotVerificationRequired, op,
			"reader is requesting additional verification; open it in a browser and retry")
	}
	if authWallRe.MatchString(pageText) {
		return "", engine.NewError(engine.KindAuthenticationRequired, op,
			"sign in to the reader to access transcripts")
	}

	text := strings.ReplaceAll(pageText, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = noise.StripInvisible(text)

	section := strings.TrimSpace(truncateMarketing(locateSection(text)))
	if section == "" {
		return "", engine.NewError(engine.KindNotFound, op, "transcript not found on reader page")
	}

	lines := strings.Split(section, "\n")
	lines = lines[noise.HeaderBlockEnd(lines, noise.IsHeaderCandidate):]
	lines = noise.Strip(lines, noise.ReaderRules)
	body := strings.TrimSpace(strings.Join(lines, "\n"))

	if segs := segmentsFromText(body); len(segs) > 0 {
		return engine.JoinSegments(segs), nil
	}

	var kept []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || noise.IsMarketingLine(l) || noise.IsHeaderNoise(l) {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		return "", engine.NewError(engine.KindNotFound, op, "transcript not found on reader page")
	}
	return strings.Join(kept, "\n"), nil
}

// locateSection starts at the first timestamp, or after the transcript header
// when the page carries no timestamps.
func locateSection(text string) string {
	if loc := noise.TimestampPattern.FindStringIndex(text); loc != nil {
		return text[loc[0]:]
	}
	if loc := headerRe.FindStringIndex(text); loc != nil {
		return noise.TrimLeadingHeader(text[loc[1]:])
	}
	return text
}

// truncateMarketing cuts text at the start of the reader's footer.
func truncateMarketing(text string) string {
	lines := strings.Split(text, "\n")
	end := noise.FooterStart(lines)
	if end < 0 {
		return text
	}
	offset := 0
	for _, l := range lines[:end] {
		offset += len(l) + 1
	}
	return strings.TrimRight(text[:offset], " \t\n")
}

// segmentsFromText rebuilds segments from text flattened to one line, taking the
// words between consecutive timestamps.
func segmentsFromText(text string) []engine.Segment {
	flat := engine.NormalizeWhitespace(text)
	if flat == "" {
		return nil
	}
	matches := segmentTSRe.FindAllStringSubmatchIndex(flat, -1)
	if len(matches) == 0 {
		return nil
	}
	segs := make([]engine.Segment, 0, len(matches))
	for i, m := range matches {
		end := len(flat)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(flat[m[1]:end])
		if body == "" {
			continue
		}
		segs = append(segs, engine.Segment{
			Seconds: engine.ParseTimestamp(flat[m[2]:m[3]]),
			Text:    body,
		})
	}
	return segs
}

// minUnstructuredLen is the shortest transcript accepted without line breaks or
// timestamp brackets.
const minUnstructuredLen = 64

// IsMeaningful reports whether a scraped transcript is worth returning: no
// marketing footer in its last lines, and either some structure or enough text.
func IsMeaningful(transcript string) bool {
	t := strings.TrimSpace(transcript)
	if t == "" {
		return false
	}
	var lines []string
	for _, l := range strings.Split(t, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	tail := lines
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	if noise.FooterStart(tail) >= 0 {
		return false
	}
	if !strings.ContainsAny(t, "[\n") && len(t) < minUnstructuredLen {
		return false
	}
	return true
}
