package payload

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// consentScanLimit bounds how much of a page is inspected for the consent wall.
const consentScanLimit = 50000

// IsConsentInterstitial reports whether html is the EU cookie-consent wall
// instead of a watch page.
func IsConsentInterstitial(html string) bool {
	head := html
	if len(head) > consentScanLimit {
		head = head[:consentScanLimit]
	}
	lower := strings.ToLower(head)
	if !strings.Contains(lower, "consent.youtube.com") && !strings.Contains(lower, "consent.google.com") {
		return false
	}
	return strings.Contains(lower, "before you continue to youtube") ||
		strings.Contains(lower, `action="https://consent.youtube.com`) ||
		strings.Contains(lower, `action="https://consent.google.com`)
}

// WatchURL is the plain watch-page URL.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// ConsentBypassURL adds the locale and verification parameters that make YouTube
// serve the watch page directly instead of the consent wall.
func ConsentBypassURL(videoID string, now time.Time) string {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("app", "desktop")
	q.Set("persist_app", "1")
	q.Set("has_verified", "1")
	q.Set("hl", "en")
	q.Set("gl", "US")
	q.Set("persist_hl", "1")
	q.Set("persist_gl", "1")
	q.Set("bpctr", strconv.FormatInt(now.Unix(), 10))
	return "https://www.youtube.com/watch?" + q.Encode()
}

// ConsentCookie pre-accepts the consent form.
const ConsentCookie = "CONSENT=YES+cb; SOCS=CAI"
