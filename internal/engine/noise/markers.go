// Package noise holds the rule tables used to strip reader-site chrome from
// transcript text: the marketing catalogue, the boilerplate vocabulary, UI marker
// detection, and metadata line predicates. The tables are plain data so new
// noise patterns can be added without touching the extractor or the sanitizer.
package noise

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// invisible matches the zero-width characters reader pages sprinkle inside words.
const invisible = `[\x{200B}\x{200C}\x{200D}\x{2060}\x{FEFF}]*`

// spread allows invisible characters between the letters of a marker word.
func spread(word string) string {
	var sb strings.Builder
	for i, r := range word {
		if i > 0 {
			sb.WriteString(invisible)
		}
		if r == ' ' {
			sb.WriteString(`\s+`)
			continue
		}
		sb.WriteString(regexp.QuoteMeta(string(r)))
	}
	return sb.String()
}

// markerRe finds the reader's UI buttons. Matching is case-sensitive: the buttons
// are title-cased, dialogue mostly is not.
var markerRe = regexp.MustCompile(
	`(` + spread("Share Video") + `)` +
		`|(` + spread("Download") + `)(\s*\.[a-z0-9]{2,4}|\s+(?:SRT|TXT|VTT|PDF|Transcript))?` +
		`|(` + spread("Copy") + `)(\s+Transcript)?`,
)

// Marker is one UI marker occurrence within a line.
type Marker struct {
	Start, End int
	// Confirmed means only whitespace, punctuation, another marker or the end follows.
	Confirmed bool
}

// Counts reports whether the occurrence is boilerplate rather than a spoken word.
// "Share Video of the week" and "Download PDF versions" are dialogue.
func (m Marker) Counts() bool { return m.Confirmed }

// FindMarkers returns every marker occurrence in line, in order.
func FindMarkers(line string) []Marker {
	locs := markerRe.FindAllStringSubmatchIndex(line, -1)
	if len(locs) == 0 {
		return nil
	}
	starts := make(map[int]bool, len(locs))
	for _, l := range locs {
		starts[l[0]] = true
	}
	out := make([]Marker, 0, len(locs))
	for _, l := range locs {
		out = append(out, Marker{
			Start:     l[0],
			End:       l[1],
			Confirmed: followedByBoundary(line, l[1], starts),
		})
	}
	return out
}

func followedByBoundary(line string, end int, markerStarts map[int]bool) bool {
	i := end
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i >= len(line) || line[i] == '\n' || line[i] == '\r' {
		return true
	}
	if markerStarts[end] || markerStarts[i] {
		return true
	}
	r, _ := utf8.DecodeRuneInString(line[i:])
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// CountingMarkers returns the occurrences that count as boilerplate.
func CountingMarkers(line string) []Marker {
	var out []Marker
	for _, m := range FindMarkers(line) {
		if m.Counts() {
			out = append(out, m)
		}
	}
	return out
}

// CutThroughMarkers drops everything up to and including the last marker of a line
// carrying two or more boilerplate markers. Markers glued right after the last
// counting one ("…Download .srtCopyActual text") are cut as well.
func CutThroughMarkers(line string) (string, bool) {
	all := FindMarkers(line)
	counting := 0
	last := -1
	for i, m := range all {
		if m.Counts() {
			counting++
			last = i
		}
	}
	if counting < 2 {
		return line, false
	}
	end := all[last].End
	for j := last + 1; j < len(all); j++ {
		gap := line[end:all[j].Start]
		if strings.TrimSpace(gap) != "" {
			break
		}
		end = all[j].End
	}
	return strings.TrimSpace(line[end:]), true
}

// IsMarkerLine reports a line made only of markers, such as "Share Video" or
// "Share VideoDownload .srtCopy".
func IsMarkerLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	ms := FindMarkers(line)
	if len(ms) == 0 {
		return false
	}
	var rest strings.Builder
	prev := 0
	for _, m := range ms {
		rest.WriteString(line[prev:m.Start])
		prev = m.End
	}
	rest.WriteString(line[prev:])
	return strings.TrimFunc(rest.String(), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || isInvisible(r)
	}) == ""
}

// Piece is a trimmed span of a line, Text == line[Start:End].
type Piece struct {
	Text       string
	Start, End int
}

// SplitAtMarkers cuts line before and after every counting marker. A line without
// one, or made of a single marker, comes back whole.
func SplitAtMarkers(line string) []Piece {
	ms := CountingMarkers(line)
	if len(ms) == 0 || len(ms) == 1 && IsMarkerLine(line) {
		return []Piece{trimmedPiece(line, 0, len(line))}
	}
	var out []Piece
	prev := 0
	for _, m := range ms {
		if p := trimmedPiece(line, prev, m.Start); p.Text != "" {
			out = append(out, p)
		}
		out = append(out, Piece{Text: line[m.Start:m.End], Start: m.Start, End: m.End})
		prev = m.End
	}
	if p := trimmedPiece(line, prev, len(line)); p.Text != "" {
		out = append(out, p)
	}
	return out
}

func trimmedPiece(line string, start, end int) Piece {
	s := line[start:end]
	lead := len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
	s = strings.TrimSpace(s)
	return Piece{Text: s, Start: start + lead, End: start + lead + len(s)}
}

// InvisibleRunes are stripped before any matching: zero-width characters, marks
// and the bidi embedding controls.
var InvisibleRunes = []rune{
	'\u200B', // zero width space
	'\u200C', // zero width non-joiner
	'\u200D', // zero width joiner
	'\u200E', // left-to-right mark
	'\u200F', // right-to-left mark
	'\u2060', // word joiner
	'\uFEFF', // byte order mark
	'\u061C', // arabic letter mark
	// bidi embeddings and overrides
	'\u202A', '\u202B', '\u202C', '\u202D', '\u202E',
}

func isInvisible(r rune) bool {
	for _, x := range InvisibleRunes {
		if r == x {
			return true
		}
	}
	return false
}

// StripInvisible removes InvisibleRunes from s.
func StripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if isInvisible(r) {
			return -1
		}
		return r
	}, s)
}
