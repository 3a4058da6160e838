package engine

import (
	"fmt"
	"strings"
	"time"
)

// Prompt templates, data only.

const (
	promptOverview    = "Please give me a concise overview in %d sentences."
	promptTakeaways   = "After that, add a bulleted list of the main takeaways."
	promptActionSteps = "Call out any actionable steps or recommendations in their own short section."
	promptLanguage    = "Write the entire response in %s."
	promptSource      = "Use the transcript below as your source material."
)

// Overview sentence bounds.
const (
	MinOverviewSentences = 1
	MaxOverviewSentences = 10
)

// PromptSettings are the user-tunable parts of a summary prompt.
type PromptSettings struct {
	OverviewSentences  int    `json:"overview_sentences"`
	IncludeTakeaways   bool   `json:"include_takeaways"`
	IncludeActionSteps bool   `json:"include_action_steps"`
	ResponseLanguage   string `json:"response_language"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	AutoSubmit         bool   `json:"auto_submit"`
}

// DefaultPromptSettings mirrors what a fresh install would use.
var DefaultPromptSettings = PromptSettings{
	OverviewSentences:  2,
	IncludeTakeaways:   true,
	IncludeActionSteps: true,
	ResponseLanguage:   "English",
}

// Normalized clamps numeric settings and fills empty ones from the defaults.
func (s PromptSettings) Normalized() PromptSettings {
	s.OverviewSentences = min(max(s.OverviewSentences, MinOverviewSentences), MaxOverviewSentences)
	s.ResponseLanguage = strings.TrimSpace(s.ResponseLanguage)
	if s.ResponseLanguage == "" {
		s.ResponseLanguage = DefaultPromptSettings.ResponseLanguage
	}
	return s
}

// PromptInput is everything BuildPrompt renders.
type PromptInput struct {
	Title         string
	URL           string
	Creator       string
	UploadDate    time.Time // zero when unknown
	ReferenceDate time.Time // "now" for the relative age; time.Now when zero
	Transcript    string
	Settings      PromptSettings
}

// BuildPrompt renders the markdown summary request for a transcript.
func BuildPrompt(in PromptInput) string {
	s := in.Settings.Normalized()
	transcript := strings.TrimSpace(in.Transcript)
	if cfg.MaxPromptChars > 0 {
		transcript = TruncateRunes(transcript, cfg.MaxPromptChars, "\n[transcript truncated]")
	}

	var sb strings.Builder
	sb.WriteString("## Video details\n")
	if in.URL != "" {
		fmt.Fprintf(&sb, "- **Link:** <%s>\n", in.URL)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Untitled video"
	}
	fmt.Fprintf(&sb, "- **Title:** %s\n", title)
	if c := strings.TrimSpace(in.Creator); c != "" {
		fmt.Fprintf(&sb, "- **Creator:** %s\n", c)
	}
	if !in.UploadDate.IsZero() {
		ref := in.ReferenceDate
		if ref.IsZero() {
			ref = time.Now()
		}
		fmt.Fprintf(&sb, "- **Uploaded:** %s (%s)\n", in.UploadDate.UTC().Format("January 2, 2006"), RelativeAge(in.UploadDate, ref))
	}

	sb.WriteString("\n## Instructions\n")
	for _, line := range instructionLines(s) {
		sb.WriteString("- " + line + "\n")
	}

	fence := transcriptFence(transcript)
	sb.WriteString("\n## Transcript\n")
	sb.WriteString(fence + "\n")
	sb.WriteString(transcript + "\n")
	sb.WriteString(fence)
	return sb.String()
}

func instructionLines(s PromptSettings) []string {
	lines := []string{fmt.Sprintf(promptOverview, s.OverviewSentences)}
	if s.IncludeTakeaways {
		lines = append(lines, promptTakeaways)
	}
	if s.IncludeActionSteps {
		lines = append(lines, promptActionSteps)
	}
	lines = append(lines, fmt.Sprintf(promptLanguage, s.ResponseLanguage))
	for _, l := range strings.Split(s.CustomInstructions, "\n") {
		l = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "-*•"))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return append(lines, promptSource)
}

// transcriptFence picks a code fence the transcript does not itself contain.
func transcriptFence(transcript string) string {
	for _, f := range []string{"```", "~~~", "~~~~~"} {
		if !strings.Contains(transcript, f) {
			return f
		}
	}
	return "``````"
}

// RelativeAge describes how long before ref t was, in whole days, months or years.
func RelativeAge(t, ref time.Time) string {
	days := int(ref.Sub(t).Hours() / 24)
	switch {
	case days < 0:
		return "upcoming"
	case days == 0:
		return "today"
	case days < 30:
		return plural(days, "day") + " ago"
	case days < 365:
		return plural(days/30, "month") + " ago"
	default:
		return plural(days/365, "year") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
