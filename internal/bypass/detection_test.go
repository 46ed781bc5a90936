package bypass

import (
	"testing"

	"github.com/FranksOps/serpwords/internal/storage"
)

func TestDetectors(t *testing.T) {
	tests := []struct {
		name     string
		detector Detector
		rec      *storage.FetchRecord
		wantSrc  string
	}{
		{
			name:     "google unusual traffic body",
			detector: detectGoogle,
			rec: &storage.FetchRecord{
				URL:        "https://www.google.com/search?q=x",
				StatusCode: 200,
				Body:       []byte("<p>Our systems have detected unusual traffic from your computer network.</p>"),
			},
			wantSrc: "Google",
		},
		{
			name:     "google 429",
			detector: detectGoogle,
			rec:      &storage.FetchRecord{URL: "https://www.google.com/search?q=x", StatusCode: 429},
			wantSrc:  "Google",
		},
		{
			name:     "429 elsewhere is not google",
			detector: detectGoogle,
			rec:      &storage.FetchRecord{URL: "https://a.example/", StatusCode: 429},
		},
		{
			name:     "cloudflare ok page",
			detector: detectCloudflare,
			rec: &storage.FetchRecord{
				StatusCode: 200,
				Headers:    map[string][]string{"Server": {"cloudflare"}},
				Body:       []byte("OK"),
			},
		},
		{
			name:     "cloudflare header",
			detector: detectCloudflare,
			rec: &storage.FetchRecord{
				StatusCode: 403,
				Headers:    map[string][]string{"Server": {"cloudflare"}},
				Body:       []byte("Access Denied"),
			},
			wantSrc: "Cloudflare",
		},
		{
			name:     "cloudflare body",
			detector: detectCloudflare,
			rec:      &storage.FetchRecord{StatusCode: 503, Body: []byte("<html>... cf-turnstile ...</html>")},
			wantSrc:  "Cloudflare",
		},
		{
			name:     "akamai header",
			detector: detectAkamai,
			rec:      &storage.FetchRecord{StatusCode: 403, Headers: map[string][]string{"server": {"AkamaiGHost"}}},
			wantSrc:  "Akamai",
		},
		{
			name:     "akamai body",
			detector: detectAkamai,
			rec:      &storage.FetchRecord{StatusCode: 403, Body: []byte("Access Denied... Reference #123.456")},
			wantSrc:  "Akamai",
		},
		{
			name:     "datadome header",
			detector: detectDataDome,
			rec:      &storage.FetchRecord{StatusCode: 403, Headers: map[string][]string{"X-DataDome": {"1"}}},
			wantSrc:  "DataDome",
		},
		{
			name:     "perimeterx body",
			detector: detectPerimeterX,
			rec:      &storage.FetchRecord{StatusCode: 403, Body: []byte("window._pxBlock = true;")},
			wantSrc:  "PerimeterX",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detected, src := tt.detector(tt.rec)
			if detected != (tt.wantSrc != "") {
				t.Fatalf("detected = %v, want %v", detected, tt.wantSrc != "")
			}
			if src != tt.wantSrc {
				t.Errorf("source = %q, want %q", src, tt.wantSrc)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	detectors := DefaultDetectors()

	rec := &storage.FetchRecord{
		StatusCode: 403,
		Headers:    map[string][]string{"X-DataDome": {"1"}},
	}
	if !Analyze(rec, detectors) {
		t.Errorf("expected detection to return true")
	}
	if !rec.DetectedBot || rec.DetectionSrc != "DataDome" {
		t.Errorf("expected record to be updated: %v, %s", rec.DetectedBot, rec.DetectionSrc)
	}

	safe := &storage.FetchRecord{
		StatusCode:   200,
		Body:         []byte("hello"),
		DetectedBot:  true,
		DetectionSrc: "stale",
	}
	if Analyze(safe, detectors) {
		t.Errorf("expected safe record to return false")
	}
	if safe.DetectedBot || safe.DetectionSrc != "" {
		t.Errorf("expected safe record fields to be cleared")
	}

	if Analyze(nil, detectors) {
		t.Errorf("expected nil record to return false")
	}
}
