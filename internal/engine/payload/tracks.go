package payload

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// TrackKind tells a human-authored caption stream from speech recognition output.
type TrackKind string

const (
	TrackStandard      TrackKind = "standard"
	TrackAutoGenerated TrackKind = "auto-generated"
)

// CaptionTrack is one selectable caption stream of a video.
// Exactly one of BaseURL or Token locates its content.
type CaptionTrack struct {
	LanguageCode string    `json:"language_code"`
	Name         string    `json:"name,omitempty"`
	Kind         TrackKind `json:"kind"`
	RawKind      string    `json:"-"` // wire value, "asr" for auto-generated
	VssID        string    `json:"vss_id,omitempty"`
	Translatable bool      `json:"translatable,omitempty"`
	BaseURL      string    `json:"base_url,omitempty"`
	Token        string    `json:"-"`
}

func kindFromWire(raw string) TrackKind {
	if strings.EqualFold(raw, "asr") {
		return TrackAutoGenerated
	}
	return TrackStandard
}

// ScoreTrack ranks a track for English-first selection.
func ScoreTrack(t CaptionTrack) int {
	score := 0
	lang := strings.ToLower(t.LanguageCode)
	switch {
	case lang == "en":
		score += 30
	case strings.HasPrefix(lang, "en"):
		score += 25
	case lang != "":
		score += 10
	}
	if t.Kind == TrackAutoGenerated {
		score -= 5
	} else {
		score += 5
	}
	if strings.HasPrefix(t.VssID, "a.") {
		score -= 2
	}
	if t.Translatable {
		score++
	}
	return score
}

// SelectTrack returns the highest-scoring track; ties keep the earlier one.
func SelectTrack(tracks []CaptionTrack) (CaptionTrack, bool) {
	best, bestScore := -1, 0
	for i, t := range tracks {
		if s := ScoreTrack(t); best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return CaptionTrack{}, false
	}
	return tracks[best], true
}

// TimedTextEndpoint is the official captions endpoint.
const TimedTextEndpoint = "https://www.youtube.com/api/timedtext"

// JSON3URL returns rawURL with fmt=json3 set, replacing any other format.
func JSON3URL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if strings.Contains(rawURL, "?") {
			return rawURL + "&fmt=json3"
		}
		return rawURL + "?fmt=json3"
	}
	q := u.Query()
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()
	return u.String()
}

// TrackListURL lists the caption tracks of a video.
func TrackListURL(videoID string) string {
	return TimedTextEndpoint + "?" + url.Values{"type": {"list"}, "v": {videoID}}.Encode()
}

// TrackRequestURL builds a json3 request for a track taken from the track list.
func TrackRequestURL(videoID string, t CaptionTrack) string {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", t.LanguageCode)
	q.Set("fmt", "json3")
	if t.Name != "" {
		q.Set("name", t.Name)
	}
	if t.RawKind != "" {
		q.Set("kind", t.RawKind)
	}
	if t.VssID != "" {
		q.Set("vssids", t.VssID)
	}
	return TimedTextEndpoint + "?" + q.Encode()
}

// ParseCaptionTrackListXML reads the <track> elements of a type=list response.
// Attributes are scanned with the HTML tokenizer, which resolves numeric and
// named entities in values; no XML schema is assumed.
func ParseCaptionTrackListXML(doc string) []CaptionTrack {
	var tracks []CaptionTrack
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return tracks
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "track" || !hasAttr {
			continue
		}
		var t CaptionTrack
		for more := true; more; {
			var k, v []byte
			k, v, more = z.TagAttr()
			val := strings.TrimSpace(string(v))
			switch string(k) {
			case "lang_code":
				t.LanguageCode = val
			case "name":
				t.Name = val
			case "kind":
				t.RawKind = val
			case "vss_id":
				t.VssID = val
			}
		}
		if t.LanguageCode == "" {
			continue
		}
		t.Kind = kindFromWire(t.RawKind)
		tracks = append(tracks, t)
	}
}
