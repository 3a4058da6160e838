// Package sources implements the transcript sources the acquisition cascade walks:
// the watch page, the timed-text track list and parameter sweep, the innertube
// transcript panel, the ANDROID player API, and the reader service.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/payload"
)

// Source is one step of the acquisition cascade. Fetch returns "" with a nil
// error when the source answered but had nothing to offer.
type Source interface {
	Name() string
	Fetch(ctx context.Context, v engine.Video) (string, error)
}

// fetcherOrDefault falls back to the engine's configured fetcher.
func fetcherOrDefault(f engine.Fetcher) engine.Fetcher {
	if f != nil {
		return f
	}
	return engine.NewFetcher()
}

var htmlHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// get fetches u and maps transport failures and non-2xx statuses to NotFound.
func get(ctx context.Context, f engine.Fetcher, op, u string, headers map[string]string) ([]byte, error) {
	resp, err := f.Do(ctx, engine.Request{Method: http.MethodGet, URL: u, Headers: headers})
	if err != nil {
		return nil, engine.WrapError(engine.KindNotFound, op, err)
	}
	if !resp.OK() {
		return nil, engine.NewError(engine.KindNotFound, op, "HTTP %d", resp.Status)
	}
	return resp.Body, nil
}

// fetchCaptions downloads a timed-text document and renders it as a Transcript.
// A valid but empty document yields "" and no error.
func fetchCaptions(ctx context.Context, f engine.Fetcher, op, u string) (string, error) {
	body, err := get(ctx, f, op, u, map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	if err != nil {
		return "", err
	}
	body = payload.StripXSSI(body)
	if len(body) == 0 {
		return "", nil
	}
	if text := payload.ParseCaptions(body); text != "" {
		return text, nil
	}
	if body[0] == '{' && !json.Valid(body) {
		return "", engine.NewError(engine.KindMalformedResponse, op, "caption payload is not valid JSON")
	}
	return "", nil
}

// usableTracks drops tracks without a fetchable URL and those that need a
// browser-issued PoToken (&exp=xpe).
func usableTracks(tracks []payload.CaptionTrack) []payload.CaptionTrack {
	out := make([]payload.CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL == "" || strings.Contains(t.BaseURL, "&exp=xpe") {
			continue
		}
		out = append(out, t)
	}
	return out
}

// playabilityError explains why a player response carried no usable tracks.
func playabilityError(op string, pr payload.PlayerResponse) error {
	status, reason := pr.Playability()
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "not a bot"):
		return engine.NewError(engine.KindBotVerificationRequired, op, "%s", reason)
	case status == "LOGIN_REQUIRED" || strings.Contains(lower, "sign in"):
		return engine.NewError(engine.KindAuthenticationRequired, op, "%s", strings.TrimSpace(status+" "+reason))
	case status != "" && status != "OK":
		return engine.NewError(engine.KindNotFound, op, "video not playable: %s %s", status, reason)
	}
	return engine.NewError(engine.KindNotFound, op, "no caption tracks")
}

// post sends a JSON body and returns the response body of a 200 answer.
func post(ctx context.Context, f engine.Fetcher, op, u string, headers map[string]string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}
	resp, err := f.Do(ctx, engine.Request{Method: http.MethodPost, URL: u, Headers: headers, Body: data})
	if err != nil {
		return nil, engine.WrapError(engine.KindNotFound, op, err)
	}
	if resp.Status != http.StatusOK {
		snippet := resp.Body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, engine.NewError(engine.KindNotFound, op, "HTTP %d: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	return resp.Body, nil
}
