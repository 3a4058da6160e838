package payload

import (
	"encoding/json"
	"sort"
	"strings"
)

// PlayerResponse is the subset of ytInitialPlayerResponse the transcript path reads.
type PlayerResponse struct {
	Captions          map[string]captionsRenderer `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	} `json:"videoDetails"`
	Microformat *struct {
		Renderer struct {
			UploadDate  string `json:"uploadDate"`
			PublishDate string `json:"publishDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

type captionsRenderer struct {
	CaptionTracks []wireTrack `json:"captionTracks"`
}

type wireTrack struct {
	BaseURL        string `json:"baseUrl"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	VssID          string `json:"vssId"`
	IsTranslatable bool   `json:"isTranslatable"`
	Name           struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

// Tracks returns the caption tracks under captions.*.captionTracks, in a stable order.
func (p PlayerResponse) Tracks() []CaptionTrack {
	keys := make([]string, 0, len(p.Captions))
	for k := range p.Captions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []CaptionTrack
	for _, k := range keys {
		for _, w := range p.Captions[k].CaptionTracks {
			name := w.Name.SimpleText
			if name == "" && len(w.Name.Runs) > 0 {
				name = w.Name.Runs[0].Text
			}
			out = append(out, CaptionTrack{
				LanguageCode: w.LanguageCode,
				Name:         name,
				Kind:         kindFromWire(w.Kind),
				RawKind:      w.Kind,
				VssID:        w.VssID,
				Translatable: w.IsTranslatable,
				BaseURL:      w.BaseURL,
			})
		}
	}
	return out
}

// Playability returns the status and reason YouTube attached to the response.
func (p PlayerResponse) Playability() (status, reason string) {
	if p.PlayabilityStatus == nil {
		return "", ""
	}
	return p.PlayabilityStatus.Status, p.PlayabilityStatus.Reason
}

// Title returns the video title when present.
func (p PlayerResponse) Title() string {
	if p.VideoDetails == nil {
		return ""
	}
	return p.VideoDetails.Title
}

// Author returns the channel name when present.
func (p PlayerResponse) Author() string {
	if p.VideoDetails == nil {
		return ""
	}
	return p.VideoDetails.Author
}

// UploadDate returns the ISO upload date when present.
func (p PlayerResponse) UploadDate() string {
	if p.Microformat == nil {
		return ""
	}
	if d := p.Microformat.Renderer.UploadDate; d != "" {
		return d
	}
	return p.Microformat.Renderer.PublishDate
}

// playerProbe tries one known embedding of the player response in watch HTML.
type playerProbe struct {
	name string
	find func(html string) (json.RawMessage, bool)
}

func assignmentProbe(marker string) func(string) (json.RawMessage, bool) {
	return func(html string) (json.RawMessage, bool) {
		return ExtractJSONFromAssignment(html, marker)
	}
}

// inlinePlayerResponse handles "playerResponse":{...} and the string-encoded
// "playerResponse":"{\"...\"}" form used by embed pages.
func inlinePlayerResponse(html string) (json.RawMessage, bool) {
	const key = `"playerResponse":`
	from := 0
	for {
		idx := strings.Index(html[from:], key)
		if idx < 0 {
			return nil, false
		}
		pos := from + idx + len(key)
		for pos < len(html) && isSpace(html[pos]) {
			pos++
		}
		if pos < len(html) {
			switch html[pos] {
			case '{':
				if obj, ok := ExtractBalancedBraceJSON(html, pos); ok && json.Valid([]byte(obj)) {
					return json.RawMessage(obj), true
				}
			case '"':
				if end := stringLiteralEnd(html, pos); end > 0 {
					if raw, ok := jsonFromLiteral(html[pos : end+1]); ok {
						return raw, true
					}
				}
			}
		}
		from = pos
	}
}

// playerProbes are tried in order; the first yielding caption tracks wins.
var playerProbes = []playerProbe{
	{"initial-assignment", assignmentProbe("ytInitialPlayerResponse =")},
	{"window-assignment", assignmentProbe(`window["ytInitialPlayerResponse"] =`)},
	{"minified-assignment", assignmentProbe("ytInitialPlayerResponse=")},
	{"inline-player-response", inlinePlayerResponse},
}

// ExtractPlayerResponse finds the player response in watch-page HTML.
// A response with caption tracks is preferred; otherwise the first decodable
// response is returned so callers can read its playability status.
func ExtractPlayerResponse(html string) (PlayerResponse, string, bool) {
	var (
		fallback     PlayerResponse
		fallbackName string
		found        bool
	)
	for _, p := range playerProbes {
		raw, ok := p.find(html)
		if !ok {
			continue
		}
		var pr PlayerResponse
		if err := json.Unmarshal(raw, &pr); err != nil {
			continue
		}
		if len(pr.Tracks()) > 0 {
			return pr, p.name, true
		}
		if !found {
			fallback, fallbackName, found = pr, p.name, true
		}
	}
	return fallback, fallbackName, found
}

// DecodePlayerResponse decodes a /player API body.
func DecodePlayerResponse(body []byte) (PlayerResponse, bool) {
	var pr PlayerResponse
	if err := json.Unmarshal(StripXSSI(body), &pr); err != nil {
		return PlayerResponse{}, false
	}
	return pr, true
}
