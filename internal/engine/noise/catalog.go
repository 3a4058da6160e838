package noise

import (
	"regexp"
	"strings"

	"github.com/araddon/dateparse"
)

// MarketingLines is the reader site's footer and navigation catalogue. The first
// of these in the text marks the end of the transcript.
var MarketingLines = []string{
	"Share This Page",
	"Get YouTube Video Transcript",
	"Download browser extensions",
	"Apps & Extensions",
	"Key Features",
	"More Features",
	"Glasp Reader",
	"Kindle Highlight Export",
	"Idea Hatch",
	"Obsidian Plugin",
	"Notion Integration",
	"Pocket Integration",
	"Instapaper Integration",
	"Medium Integration",
	"Readwise Integration",
	"Snipd Integration",
	"Hypothesis Integration",
	"Blog & Post",
	"Embed Links",
	"Image Highlight",
	"Personality Test",
	"Quote Shots",
	"Products Discover About",
	"ProductsDiscoverAbout",
	"About us",
	"Job Board",
}

// FooterWords are the generic navigation entries of the footer. They mark the
// footer only next to another footer line or as the last line of the text.
var FooterWords = []string{
	"APIs",
	"Blog",
	"Community",
	"Company",
	"FAQs",
	"Guidelines",
	"Integrations",
	"Newsletter",
	"Pricing",
	"Privacy",
	"Terms",
}

// StrongMarketingPatterns match footer lines regardless of the catalogue.
var StrongMarketingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^©\s*\d{4}\s+glasp`),
	regexp.MustCompile(`(?i)\bglasp\s+inc\.`),
	regexp.MustCompile(`(?i)^(?:©|\(c\)|copyright\s*©?)\s*\d{4}(?:\s*[-–]\s*\d{4})?\s+\S.*\ball rights reserved\b`),
}

// Vocabulary is the reader's header chrome, compared case-insensitively against
// whole lines.
var Vocabulary = []string{
	"youtube transcript & summary",
	"& summary",
	"summary",
	"transcript",
	"transcripts",
	"highlights",
	"youtube video player",
	"share video",
	"share",
	"download",
	"download .srt",
	"download transcript",
	"copy transcript",
	"copy",
	"summarize transcript",
	"get transcript & summary",
	"english (auto-generated)",
}

var (
	marketingSet  = lowerSet(MarketingLines)
	footerSet     = lowerSet(FooterWords)
	vocabularySet = lowerSet(Vocabulary)
)

func lowerSet(values []string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return m
}

var trailingSeparators = regexp.MustCompile(`[|:]+$`)

// NormalizeMarketingLine lowercases line and trims trailing "|" and ":" runs.
func NormalizeMarketingLine(line string) string {
	s := strings.ToLower(strings.TrimSpace(line))
	return strings.TrimSpace(trailingSeparators.ReplaceAllString(s, ""))
}

// IsStrongMarketingLine reports a footer line matched by StrongMarketingPatterns.
func IsStrongMarketingLine(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	for _, re := range StrongMarketingPatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// IsMarketingLine reports a catalogue entry or a strong footer line.
func IsMarketingLine(line string) bool {
	n := NormalizeMarketingLine(line)
	if n == "" {
		return false
	}
	if _, ok := marketingSet[n]; ok {
		return true
	}
	return IsStrongMarketingLine(line)
}

// IsFooterWord reports a line holding one of FooterWords.
func IsFooterWord(line string) bool {
	_, ok := footerSet[NormalizeMarketingLine(line)]
	return ok
}

// FooterStart returns the index of the first footer line, or -1. A catalogue or
// strong footer line starts the footer outright. A footer word starts it when the
// next non-empty line is also a footer line, or when nothing follows.
func FooterStart(lines []string) int {
	for i, l := range lines {
		if IsMarketingLine(l) {
			return i
		}
		if !IsFooterWord(l) {
			continue
		}
		next := i + 1
		for next < len(lines) && strings.TrimSpace(lines[next]) == "" {
			next++
		}
		if next == len(lines) || IsMarketingLine(lines[next]) || IsFooterWord(lines[next]) {
			return i
		}
	}
	return -1
}

var downloadLineRe = regexp.MustCompile(`(?i)^download\s*(?:\.[a-z0-9]{2,4}|srt|txt|vtt|pdf|transcript)$`)

// IsVocabulary reports a whole line of header chrome, including "Download <ext>".
func IsVocabulary(line string) bool {
	n := strings.ToLower(NormalizeWhitespace(line))
	if n == "" {
		return false
	}
	if _, ok := vocabularySet[n]; ok {
		return true
	}
	return downloadLineRe.MatchString(n)
}

var headerNoiseRe = regexp.MustCompile(`(?i)^(?:(?:summarize\s+)?transcripts?:?)?\s*(?:english\s*\(auto-generated\))?$`)

// IsHeaderNoise reports a line made only of transcript-header and language-label
// phrases, e.g. "Summarize TranscriptEnglish (auto-generated)".
func IsHeaderNoise(line string) bool {
	t := strings.TrimSpace(line)
	return t != "" && headerNoiseRe.MatchString(t)
}

// leadingHeaderRe strips header phrases glued to the front of the first line.
var leadingHeaderRe = regexp.MustCompile(`(?i)^\s*(?:(?:summarize\s+)?transcript:?\s*)?(?:english\s*\(auto-generated\)\s*)?`)

// TrimLeadingHeader removes transcript-header phrases at the start of s.
func TrimLeadingHeader(s string) string {
	return leadingHeaderRe.ReplaceAllString(s, "")
}

// NormalizeWhitespace collapses whitespace runs, non-breaking spaces included.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const month = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	monthDayYearRe = regexp.MustCompile(`(?i)^` + month + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s*\d{4}$`)
	dayMonthYearRe = regexp.MustCompile(`(?i)^\d{1,2}\s+` + month + `\.?,?\s+\d{4}$`)
	numericDateRe  = regexp.MustCompile(`^(?:(?:\d{1,2}[/.-]){2}\d{2,4}|\d{4}-\d{2}-\d{2})$`)
	monthWordRe    = regexp.MustCompile(`(?i)\b` + month + `\b`)
	fourDigitYear  = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	bareYearRe     = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

// maxLooseDateLen caps lines handed to the free-form date parser.
const maxLooseDateLen = 32

// IsDateLine reports a line holding only a publication date such as
// "September 18, 2025", "Sep 1, 2024", "1 Sep 2024" or "2024-09-01".
func IsDateLine(line string) bool {
	t := NormalizeWhitespace(line)
	if t == "" {
		return false
	}
	if monthDayYearRe.MatchString(t) || dayMonthYearRe.MatchString(t) || numericDateRe.MatchString(t) {
		return true
	}
	if len(t) > maxLooseDateLen || !monthWordRe.MatchString(t) || !fourDigitYear.MatchString(t) {
		return false
	}
	_, err := dateparse.ParseAny(t)
	return err == nil
}

// IsBareYear reports a line that is just a four-digit year.
func IsBareYear(line string) bool {
	return bareYearRe.MatchString(strings.TrimSpace(line))
}
