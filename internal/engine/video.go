package engine

import (
	"net/url"
	"regexp"
	"strings"
)

// Video identifies the YouTube video a transcript is requested for.
type Video struct {
	ID  string `json:"id"`
	URL string `json:"url"` // canonical watch URL
}

const watchURLPrefix = "https://www.youtube.com/watch?v="

var (
	videoIDRe      = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoIDScanRe  = regexp.MustCompile(`(?:v=|/)([A-Za-z0-9_-]{11})(?:[&?/#]|$)`)
	pathPrefixesID = []string{"/shorts/", "/embed/", "/live/", "/v/"}
)

// ParseVideoURL extracts the 11-char video id from any common YouTube URL form,
// or accepts a bare id. Anything else is an InvalidInput error.
func ParseVideoURL(raw string) (Video, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Video{}, NewError(KindInvalidInput, "parse-url", "video URL is empty")
	}
	if videoIDRe.MatchString(raw) {
		return newVideo(raw), nil
	}

	withScheme := raw
	if !strings.Contains(raw, "://") {
		withScheme = "https://" + raw
	}
	u, err := url.Parse(withScheme)
	if err != nil {
		return Video{}, WrapError(KindInvalidInput, "parse-url", err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case host == "youtu.be":
		if id := strings.Trim(u.Path, "/"); videoIDRe.MatchString(id) {
			return newVideo(id), nil
		}
	case host == "youtube.com" || host == "music.youtube.com" || host == "youtube-nocookie.com":
		if id := u.Query().Get("v"); videoIDRe.MatchString(id) {
			return newVideo(id), nil
		}
		for _, p := range pathPrefixesID {
			if rest, ok := strings.CutPrefix(u.Path, p); ok {
				id, _, _ := strings.Cut(rest, "/")
				if videoIDRe.MatchString(id) {
					return newVideo(id), nil
				}
			}
		}
	default:
		return Video{}, NewError(KindInvalidInput, "parse-url", "%q is not a YouTube URL", raw)
	}

	if m := videoIDScanRe.FindStringSubmatch(raw); len(m) == 2 {
		return newVideo(m[1]), nil
	}
	return Video{}, NewError(KindInvalidInput, "parse-url", "no video id in %q", raw)
}

func newVideo(id string) Video {
	return Video{ID: id, URL: watchURLPrefix + id}
}
