package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/FranksOps/serpwords/internal/storage"
)

// Detector examines a fetch record and reports whether a bot protection or
// anti-automation page was served instead of the requested content.
type Detector func(rec *storage.FetchRecord) (detected bool, source string)

// DefaultDetectors returns the detectors applied to every fetch.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogle,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the record through the detectors in order and stamps the first
// match onto the record. Detection is informational: nothing is retried.
func Analyze(rec *storage.FetchRecord, detectors []Detector) bool {
	if rec == nil {
		return false
	}
	for _, d := range detectors {
		if detected, source := d(rec); detected {
			rec.DetectedBot = true
			rec.DetectionSrc = source
			return true
		}
	}
	rec.DetectedBot = false
	rec.DetectionSrc = ""
	return false
}

func getHeader(headers map[string][]string, key string) string {
	if vals, ok := headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	for k, vals := range headers {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func bodyContainsAny(body []byte, needles ...string) bool {
	for _, n := range needles {
		if bytes.Contains(body, []byte(n)) {
			return true
		}
	}
	return false
}

func serverContains(rec *storage.FetchRecord, needle string) bool {
	return strings.Contains(strings.ToLower(getHeader(rec.Headers, "Server")), needle)
}

// detectGoogle recognises the "unusual traffic" interstitial Google serves to
// automated clients. It can arrive with a 200 as well as a 429.
func detectGoogle(rec *storage.FetchRecord) (bool, string) {
	if bodyContainsAny(rec.Body,
		"Our systems have detected unusual traffic",
		"google.com/sorry/",
		`id="captcha-form"`) {
		return true, "Google"
	}
	if rec.StatusCode == http.StatusTooManyRequests && strings.Contains(rec.URL, "google.") {
		return true, "Google"
	}
	return false, ""
}

func detectCloudflare(rec *storage.FetchRecord) (bool, string) {
	if rec.StatusCode != http.StatusForbidden && rec.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if serverContains(rec, "cloudflare") ||
		bodyContainsAny(rec.Body, "cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare") {
		return true, "Cloudflare"
	}
	return false, ""
}

func detectAkamai(rec *storage.FetchRecord) (bool, string) {
	if rec.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if serverContains(rec, "akamai") {
		return true, "Akamai"
	}
	// generic "Reference #" block page
	if bodyContainsAny(rec.Body, "Reference #") && bodyContainsAny(rec.Body, "Access Denied") {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(rec *storage.FetchRecord) (bool, string) {
	if rec.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if serverContains(rec, "datadome") ||
		getHeader(rec.Headers, "X-DataDome") != "" ||
		getHeader(rec.Headers, "X-DataDome-Response") != "" ||
		bodyContainsAny(rec.Body, "geo.captcha-delivery.com", "datadome") {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(rec *storage.FetchRecord) (bool, string) {
	if rec.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if getHeader(rec.Headers, "X-Px-Captcha") != "" ||
		bodyContainsAny(rec.Body, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return true, "PerimeterX"
	}
	return false, ""
}
