package noise

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Action is what a matching Rule does to the leading line.
type Action int

const (
	// Drop removes the line.
	Drop Action = iota
	// DropWithNext removes the line and the one after it ("by" followed by the author).
	DropWithNext
	// DropRun removes the line and every identical line right after it.
	DropRun
	// Rewrite replaces the line with Rule.Rewrite(line) and evaluates it again.
	Rewrite
)

// State is what rules may consult besides the line itself.
type State struct {
	// Seen is set once any rule has matched.
	Seen bool
	// Next is the following line, trimmed.
	Next string
}

// Rule is one (predicate, action) entry of a leading-noise table.
type Rule struct {
	Name    string
	Action  Action
	Match   func(line string, st State) bool
	Rewrite func(line string) string
}

// Strip drops leading lines while some rule matches and returns the remainder.
// Blank lines are skipped. Rules are tried in order; the first match applies.
func Strip(lines []string, rules []Rule) []string {
	lines = append([]string(nil), lines...)
	var st State
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		st.Next = ""
		if i+1 < len(lines) {
			st.Next = strings.TrimSpace(lines[i+1])
		}
		r, ok := firstMatch(rules, line, st)
		if !ok {
			break
		}
		st.Seen = true
		switch r.Action {
		case Rewrite:
			next := r.Rewrite(line)
			if next == line {
				return lines[i:]
			}
			lines[i] = next
		case DropWithNext:
			i += 2
		case DropRun:
			j := i + 1
			for j < len(lines) && strings.TrimSpace(lines[j]) == line {
				j++
			}
			i = j
		default:
			i++
		}
	}
	if i >= len(lines) {
		return nil
	}
	return lines[i:]
}

func firstMatch(rules []Rule, line string, st State) (Rule, bool) {
	for _, r := range rules {
		if r.Match(line, st) {
			return r, true
		}
	}
	return Rule{}, false
}

// TimestampPattern matches a bare H:MM:SS or M:SS timestamp.
var TimestampPattern = regexp.MustCompile(`((?:\d{1,2}:)?\d{1,2}:\d{2})`)

var (
	hashtagRe   = regexp.MustCompile(`^#[\p{L}\p{N}_-]+`)
	bareByRe    = regexp.MustCompile(`(?i)^by\s*[:|]*$`)
	bylineRe    = regexp.MustCompile(`(?i)^by\b\s*[:|]?\s*(\S+)`)
	titleCaseRe = regexp.MustCompile(`^\p{Lu}[\w'’.-]*(?:\s+\p{Lu}[\w'’.-]*)*$`)
)

// IsHashtagLine reports a line starting with a #tag.
func IsHashtagLine(line string) bool { return hashtagRe.MatchString(line) }

// IsBareBy reports the lone "by" that precedes an author line.
func IsBareBy(line string) bool { return bareByRe.MatchString(line) }

// IsByline reports "by @handle" always, and "by Name" once metadata was seen.
// "By popular demand, ..." as an opening line is dialogue.
func IsByline(line string, seen bool) bool {
	m := bylineRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	first := m[1]
	if strings.HasPrefix(first, "@") {
		return true
	}
	if !seen {
		return false
	}
	r, _ := utf8.DecodeRuneInString(first)
	return !(r >= 'a' && r <= 'z')
}

// IsTitleCase reports a line of capitalised words with no sentence punctuation.
func IsTitleCase(line string) bool { return titleCaseRe.MatchString(line) }

// HasSocialMarks reports hashtag, mention or bullet characters.
func HasSocialMarks(line string) bool { return strings.ContainsAny(line, "#@•") }

// ReaderRules strip the metadata block the reader site renders above a transcript.
var ReaderRules = []Rule{
	{Name: "glued-markers", Action: Rewrite,
		Match:   func(l string, _ State) bool { return len(CountingMarkers(l)) >= 2 },
		Rewrite: func(l string) string { rest, _ := CutThroughMarkers(l); return rest }},
	{Name: "header-noise", Action: Drop, Match: func(l string, _ State) bool { return IsHeaderNoise(l) }},
	{Name: "vocabulary", Action: Drop, Match: func(l string, _ State) bool { return IsVocabulary(l) }},
	{Name: "marker-line", Action: Drop, Match: func(l string, _ State) bool { return IsMarkerLine(l) }},
	{Name: "hashtag", Action: Drop, Match: func(l string, _ State) bool { return IsHashtagLine(l) }},
	{Name: "date", Action: Drop, Match: func(l string, _ State) bool { return IsDateLine(l) }},
	{Name: "year", Action: Drop, Match: func(l string, _ State) bool { return IsBareYear(l) }},
	{Name: "bare-by", Action: DropWithNext, Match: func(l string, _ State) bool { return IsBareBy(l) }},
	{Name: "byline", Action: Drop, Match: func(l string, st State) bool { return IsByline(l, st.Seen) }},
	{Name: "social", Action: Drop, Match: func(l string, st State) bool { return st.Seen && HasSocialMarks(l) }},
	{Name: "title-case", Action: Drop, Match: func(l string, st State) bool { return st.Seen && IsTitleCase(l) }},
	{Name: "stray-s", Action: Drop, Match: func(l string, st State) bool { return st.Seen && l == "s" }},
}

const (
	// HeaderWindow is how many leading lines may precede the first marker line.
	HeaderWindow = 12
	// maxHeaderRunes and maxHeaderWords bound a title-like header line.
	maxHeaderRunes = 100
	maxHeaderWords = 12
)

// IsHeaderCandidate reports a line that may belong to the title/date/author block.
func IsHeaderCandidate(line string) bool {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return true
	case TimestampPattern.MatchString(t):
		return false
	case IsVocabulary(t), IsHeaderNoise(t), IsDateLine(t), IsBareYear(t),
		IsHashtagLine(t), IsBareBy(t), IsByline(t, true), IsMarketingLine(t):
		return true
	}
	if utf8.RuneCountInString(t) > maxHeaderRunes || len(strings.Fields(t)) > maxHeaderWords {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(t)
	return !strings.ContainsRune(".!?…", last)
}

// HeaderBlockEnd returns the number of leading lines that form a header block
// closed by a marker line within HeaderWindow lines, or 0. Every line of the
// block must satisfy isHeader.
func HeaderBlockEnd(lines []string, isHeader func(string) bool) int {
	for i := 0; i < len(lines) && i < HeaderWindow; i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			continue
		}
		if IsMarkerLine(t) {
			return i
		}
		if !isHeader(t) {
			return 0
		}
	}
	return 0
}
