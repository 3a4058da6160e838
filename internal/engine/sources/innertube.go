package sources

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/payload"
)

// YouTube innertube API: the WEB transcript panel (/next then /get_transcript)
// and the ANDROID /player endpoint.

const (
	innertubeBase       = "https://www.youtube.com/youtubei/v1/"
	ytWebVersion        = "2.20250222.10.00"
	ytAndroidVersion    = "20.10.38"
	ytAndroidUA         = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
	ytAndroidSDK        = 30
	ytClientNameWeb     = "1"
	ytClientNameAndroid = "3"
)

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	VisitorData       string `json:"visitorData,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type innertubeContext struct {
	Client  innertubeClient `json:"client"`
	User    *innertubeUser  `json:"user,omitempty"`
	Request *innertubeReq   `json:"request,omitempty"`
}

type innertubeUser struct {
	EnableSafetyMode bool `json:"enableSafetyMode"`
}

type innertubeReq struct {
	UseSsl bool `json:"useSsl"`
}

type nextRequest struct {
	VideoID string           `json:"videoId"`
	Context innertubeContext `json:"context"`
}

type transcriptRequest struct {
	Params  string           `json:"params"`
	Context innertubeContext `json:"context"`
}

type playerRequest struct {
	VideoID        string           `json:"videoId"`
	Context        innertubeContext `json:"context"`
	RacyCheckOk    bool             `json:"racyCheckOk"`
	ContentCheckOk bool             `json:"contentCheckOk"`
}

type getTranscriptResponse struct {
	Actions []struct {
		UpdateEngagementPanelAction *struct {
			Content struct {
				TranscriptRenderer struct {
					Content struct {
						TranscriptSearchPanelRenderer struct {
							Body struct {
								TranscriptSegmentListRenderer struct {
									InitialSegments []transcriptSegment `json:"initialSegments"`
								} `json:"transcriptSegmentListRenderer"`
							} `json:"body"`
						} `json:"transcriptSearchPanelRenderer"`
					} `json:"content"`
				} `json:"transcriptRenderer"`
			} `json:"content"`
		} `json:"updateEngagementPanelAction"`
	} `json:"actions"`
}

type transcriptSegment struct {
	TranscriptSegmentRenderer *struct {
		StartMs string `json:"startMs"`
		Snippet struct {
			Runs []struct {
				Text string `json:"text"`
			} `json:"runs"`
		} `json:"snippet"`
	} `json:"transcriptSegmentRenderer"`
}

// generateVisitorData creates a random 11-char visitor ID for innertube requests.
func generateVisitorData() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	b := make([]byte, 11)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))] //nolint:gosec // non-cryptographic use
	}
	return string(b)
}

func webClient(visitorData string) innertubeClient {
	return innertubeClient{
		ClientName:    "WEB",
		ClientVersion: ytWebVersion,
		VisitorData:   visitorData,
		Hl:            "en",
		Gl:            "US",
	}
}

func webHeaders(visitorData string) map[string]string {
	return map[string]string{
		"Content-Type":             "application/json",
		"Accept":                   "*/*",
		"User-Agent":               engine.UserAgentChrome,
		"X-Youtube-Client-Name":    ytClientNameWeb,
		"X-Youtube-Client-Version": ytWebVersion,
		"X-Goog-Visitor-Id":        visitorData,
		"Origin":                   "https://www.youtube.com",
		"Referer":                  "https://www.youtube.com/",
	}
}

func innertubeURL(endpoint string) string {
	return innertubeBase + endpoint + "?prettyPrint=false"
}

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

// TranscriptToken returns the URL-decoded transcript panel token of a /next response.
func TranscriptToken(next []byte) (string, bool) {
	m := getTranscriptRE.FindSubmatch(next)
	if len(m) < 2 {
		return "", false
	}
	if decoded, err := url.QueryUnescape(string(m[1])); err == nil {
		return decoded, true
	}
	return string(m[1]), true
}

// PanelSegments renders /get_transcript segments with their start offsets.
func PanelSegments(body []byte) ([]engine.Segment, bool) {
	var resp getTranscriptResponse
	if err := json.Unmarshal(payload.StripXSSI(body), &resp); err != nil {
		return nil, false
	}
	var segs []engine.Segment
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		list := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range list {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var parts []string
			for _, run := range r.Snippet.Runs {
				if t := engine.NormalizeWhitespace(run.Text); t != "" {
					parts = append(parts, t)
				}
			}
			if len(parts) == 0 {
				continue
			}
			ms, _ := strconv.ParseInt(r.StartMs, 10, 64)
			segs = append(segs, engine.Segment{Seconds: int(ms / 1000), Text: strings.Join(parts, " ")})
		}
	}
	return segs, true
}

// InnertubePanel reads the transcript engagement panel through the WEB client.
// It works from datacenter IPs where /player answers LOGIN_REQUIRED.
type InnertubePanel struct {
	Fetcher engine.Fetcher
}

func (p *InnertubePanel) Name() string { return engine.SourceInnertube }

func (p *InnertubePanel) Fetch(ctx context.Context, v engine.Video) (string, error) {
	const op = engine.SourceInnertube
	f := fetcherOrDefault(p.Fetcher)
	visitorData := generateVisitorData()

	next, err := post(ctx, f, op, innertubeURL("next"), webHeaders(visitorData), nextRequest{
		VideoID: v.ID,
		Context: innertubeContext{
			Client:  webClient(visitorData),
			User:    &innertubeUser{},
			Request: &innertubeReq{UseSsl: true},
		},
	})
	if err != nil {
		return "", err
	}
	token, ok := TranscriptToken(next)
	if !ok {
		return "", engine.NewError(engine.KindNotFound, op, "getTranscriptEndpoint not found in engagement panels")
	}

	body, err := post(ctx, f, op, innertubeURL("get_transcript"), webHeaders(visitorData), transcriptRequest{
		Params:  token,
		Context: innertubeContext{Client: webClient(visitorData)},
	})
	if err != nil {
		return "", err
	}
	segs, ok := PanelSegments(body)
	if !ok {
		return "", engine.NewError(engine.KindMalformedResponse, op, "undecodable get_transcript response")
	}
	return engine.JoinSegments(segs), nil
}

// PlayerAPI asks the ANDROID /player endpoint for caption tracks and fetches the
// best one like the watch page does.
type PlayerAPI struct {
	Fetcher engine.Fetcher
}

func (p *PlayerAPI) Name() string { return engine.SourcePlayerAPI }

func (p *PlayerAPI) Fetch(ctx context.Context, v engine.Video) (string, error) {
	const op = engine.SourcePlayerAPI
	f := fetcherOrDefault(p.Fetcher)

	body, err := post(ctx, f, op, innertubeURL("player"), map[string]string{
		"Content-Type":             "application/json",
		"User-Agent":               ytAndroidUA,
		"X-Youtube-Client-Name":    ytClientNameAndroid,
		"X-Youtube-Client-Version": ytAndroidVersion,
	}, playerRequest{
		VideoID: v.ID,
		Context: innertubeContext{Client: innertubeClient{
			ClientName:        "ANDROID",
			ClientVersion:     ytAndroidVersion,
			AndroidSdkVersion: ytAndroidSDK,
			Hl:                "en",
			Gl:                "US",
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return "", err
	}
	pr, ok := payload.DecodePlayerResponse(body)
	if !ok {
		return "", engine.NewError(engine.KindMalformedResponse, op, "undecodable player response")
	}
	track, ok := payload.SelectTrack(usableTracks(pr.Tracks()))
	if !ok {
		return "", playabilityError(op, pr)
	}
	return fetchCaptions(ctx, f, op, payload.JSON3URL(track.BaseURL))
}
