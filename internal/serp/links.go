package serp

import (
	"net/url"
	"strings"
)

// NormalizeLinks resolves hrefs against base, unwraps Google "/url?q="
// redirects, and drops non-http(s) and duplicate links. Order is preserved.
func NormalizeLinks(base *url.URL, hrefs []string) []string {
	seen := make(map[string]bool, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		u, ok := normalizeLink(base, href)
		if !ok {
			continue
		}
		s := u.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func normalizeLink(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	if u.Path == "/url" && (isGoogleHost(u.Hostname()) || (base != nil && u.Host == base.Host)) {
		target := u.Query().Get("q")
		if target == "" {
			target = u.Query().Get("url")
		}
		if target == "" {
			return nil, false
		}
		return normalizeLink(nil, target)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, true
}

func isGoogleHost(host string) bool {
	return host == "google.com" || strings.HasSuffix(host, ".google.com") ||
		strings.HasPrefix(host, "google.") || strings.Contains(host, ".google.")
}
