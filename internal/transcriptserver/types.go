package transcriptserver

import (
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine/acquire"
	"github.com/anatolykoptev/go_transcript/internal/engine/archive"
)

// --- youtube_transcript ---

type TranscriptInput struct {
	URL      string `json:"url" jsonschema:"YouTube video URL (watch, youtu.be, shorts, embed, live) or 11-character video id"`
	Sanitize bool   `json:"sanitize,omitempty" jsonschema:"Strip page chrome and UI markers from the top of the transcript (default: false)"`
	Refresh  bool   `json:"refresh,omitempty" jsonschema:"Bypass cached results and fetch again (default: false)"`
}

type TranscriptOutput struct {
	VideoID      string            `json:"video_id"`
	URL          string            `json:"url"`
	Source       string            `json:"source"`
	Transcript   string            `json:"transcript"`
	Sanitized    bool              `json:"sanitized,omitempty"`
	Cached       bool              `json:"cached,omitempty"`
	CrossChecked bool              `json:"cross_checked,omitempty"`
	Archived     bool              `json:"archived,omitempty"`
	// Stale is set when every source failed and the archived copy was served.
	Stale        bool              `json:"stale,omitempty"`
	FetchedAt    string            `json:"fetched_at"`
	Attempts     []acquire.Attempt `json:"attempts,omitempty"`
}

// --- transcript_sanitize ---

type SanitizeInput struct {
	Text string `json:"text" jsonschema:"Raw transcript text, e.g. copied from a transcript page"`
}

type SanitizeOutput struct {
	Text    string `json:"text"`
	Changed bool   `json:"changed"`
}

// --- transcript_prompt ---

type PromptInput struct {
	URL                string `json:"url" jsonschema:"YouTube video URL or 11-character video id"`
	Title              string `json:"title,omitempty" jsonschema:"Video title (default: looked up from the watch page, then oEmbed)"`
	Creator            string `json:"creator,omitempty" jsonschema:"Channel name (default: looked up from the watch page, then oEmbed)"`
	UploadDate         string `json:"upload_date,omitempty" jsonschema:"Upload date, e.g. 2024-03-01 or March 1, 2024 (default: from the watch page)"`
	OverviewSentences  int    `json:"overview_sentences,omitempty" jsonschema:"Overview length in sentences, 1-10 (default: 2)"`
	IncludeTakeaways   *bool  `json:"include_takeaways,omitempty" jsonschema:"Ask for key takeaways (default: true)"`
	IncludeActionSteps *bool  `json:"include_action_steps,omitempty" jsonschema:"Ask for action steps (default: true)"`
	ResponseLanguage   string `json:"response_language,omitempty" jsonschema:"Language of the summary (default: English)"`
	CustomInstructions string `json:"custom_instructions,omitempty" jsonschema:"Extra instructions, one per line"`
	AutoSubmit         bool   `json:"auto_submit,omitempty" jsonschema:"Submit the prompt to the configured LLM and return its answer"`
	Refresh            bool   `json:"refresh,omitempty" jsonschema:"Bypass cached transcript"`
}

type PromptOutput struct {
	VideoID     string         `json:"video_id"`
	Source      string         `json:"source"`
	Title       string         `json:"title,omitempty"`
	Creator     string         `json:"creator,omitempty"`
	Prompt      string         `json:"prompt"`
	Request     *SubmitRequest `json:"request,omitempty"`
	Response    string         `json:"response,omitempty"`
	SubmitError string         `json:"submit_error,omitempty"`
}

// SubmitRequest reports the dispatch state of an auto-submitted prompt.
type SubmitRequest struct {
	ID           string `json:"id"`
	AttemptCount int    `json:"attempt_count"`
	InjectedOnce bool   `json:"injected_once"`
}

// --- transcript_history ---

type HistoryInput struct {
	VideoID string `json:"video_id,omitempty" jsonschema:"Return the archived transcript of one video (full text)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max records, most recent first (default: 20)"`
}

type HistoryOutput struct {
	Total   int             `json:"total"`
	Records []HistoryRecord `json:"records"`
}

type HistoryRecord struct {
	VideoID    string `json:"video_id"`
	Source     string `json:"source"`
	Transcript string `json:"transcript,omitempty"`
	FetchedAt  string `json:"fetched_at"` // RFC3339
}

func historyRecord(r archive.Record) HistoryRecord {
	return HistoryRecord{VideoID: r.VideoID, Source: r.Source, Transcript: r.Transcript, FetchedAt: formatTime(r.FetchedAt)}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
