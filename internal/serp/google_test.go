package serp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/serpwords/internal/scraper"
)

const resultsPage = `<html><body>
<div id="result-stats">About 1,234,000 results<nobr> (0.42 seconds)&nbsp;</nobr></div>
<div class="g"><div class="tF2Cxc"><a href="https://www.dyson.com/james"><h3>James Dyson</h3></a></div></div>
<div class="g"><div class="tF2Cxc"><a href="/url?q=https://en.wikipedia.org/wiki/James_Dyson&amp;sa=U">Wiki</a></div></div>
<div class="g"><div class="tF2Cxc"><a href="https://www.dyson.com/james#top">dup</a></div></div>
<div class="g"><div class="tF2Cxc"><a href="javascript:void(0)">js</a></div></div>
<div class="g"><div class="other"><a href="https://not-organic.example.com">ad</a></div></div>
<div class="g"><div class="tF2Cxc"><a href="https://example.org/journey">Journey</a></div></div>
</body></html>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestParseResultsPage(t *testing.T) {
	res, err := ParseResultsPage([]byte(resultsPage), mustURL(t, DefaultSearchURL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 1234000 {
		t.Errorf("count = %d, want 1234000", res.Count)
	}
	want := []string{
		"https://www.dyson.com/james",
		"https://en.wikipedia.org/wiki/James_Dyson",
		"https://example.org/journey",
	}
	if !reflect.DeepEqual(res.Links, want) {
		t.Errorf("links = %v, want %v", res.Links, want)
	}
}

func TestParseResultsPage_NoStats(t *testing.T) {
	_, err := ParseResultsPage([]byte(`<html><body><div class="tF2Cxc"><a href="https://a.example">a</a></div></body></html>`), nil)
	if !errors.Is(err, ErrNoResultCount) {
		t.Errorf("expected ErrNoResultCount, got %v", err)
	}
}

func TestParseResultCount(t *testing.T) {
	tests := []struct {
		text    string
		want    int64
		wantErr bool
	}{
		{"About 1,234,000 results (0.42 seconds)", 1234000, false},
		{"About 17 results", 17, false},
		{"Page 2 of about 1,000 results", 2, false},
		{"1,500 results", 1500, false},
		{"no numbers here", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseResultCount(tt.text)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResultCount(%q) err = %v, wantErr %v", tt.text, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrNoResultCount) {
			t.Errorf("ParseResultCount(%q) err = %v, want ErrNoResultCount", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("ParseResultCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestNormalizeLinks(t *testing.T) {
	base := mustURL(t, "https://www.google.com/search?q=x")
	got := NormalizeLinks(base, []string{
		"",
		"#",
		"/search?q=related",
		"/url?q=https://b.example/page&sa=U",
		"https://b.example/page",
		"mailto:someone@example.com",
		"https://www.google.co.uk/url?q=https://c.example/",
		"/url?sa=U",
		"  https://d.example/x#frag  ",
	})
	want := []string{
		"https://www.google.com/search?q=related",
		"https://b.example/page",
		"https://c.example/",
		"https://d.example/x",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeLinks = %v, want %v", got, want)
	}
}

func newFetcher(t *testing.T) *scraper.Fetcher {
	t.Helper()
	f, err := scraper.NewFetcher(scraper.FetchConfig{Timeout: 5 * time.Second, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func TestGoogleScrape_Search(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer ts.Close()

	g, err := NewGoogle(GoogleConfig{Fetcher: newFetcher(t), SearchURL: ts.URL + "/search", Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}

	res, err := g.Search(context.Background(), "James Dyson Journey ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "James Dyson Journey " {
		t.Errorf("server saw q=%q", gotQuery)
	}
	if res.Count != 1234000 || len(res.Links) != 3 {
		t.Errorf("unexpected results: %+v", res)
	}
}

func TestGoogleScrape_UnwrapsLocalRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div id="result-stats">About 3 results</div>
<div class="tF2Cxc"><a href="/url?q=https://a.example/">a</a></div>`))
	}))
	defer ts.Close()

	g, _ := NewGoogle(GoogleConfig{Fetcher: newFetcher(t), SearchURL: ts.URL + "/search", Logger: quietLogger()})
	res, err := g.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(res.Links, []string{"https://a.example/"}) {
		t.Errorf("links = %v", res.Links)
	}
}

func TestGoogleScrape_Blocked(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Our systems have detected unusual traffic from your computer network.</body></html>`))
	}))
	defer ts.Close()

	g, _ := NewGoogle(GoogleConfig{Fetcher: newFetcher(t), SearchURL: ts.URL + "/search", Logger: quietLogger()})
	_, err := g.Search(context.Background(), "q")
	if !errors.Is(err, ErrNoResultCount) {
		t.Fatalf("expected ErrNoResultCount, got %v", err)
	}
	if !strings.Contains(err.Error(), "Google") {
		t.Errorf("expected detection source in error, got %v", err)
	}
}

func TestGoogleScrape_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	g, _ := NewGoogle(GoogleConfig{Fetcher: newFetcher(t), SearchURL: ts.URL + "/search", Logger: quietLogger()})
	if _, err := g.Search(context.Background(), "q"); err == nil {
		t.Fatal("expected error for 500")
	}
}

func TestProviderFunc(t *testing.T) {
	var p Provider = ProviderFunc(func(ctx context.Context, q string) (*Results, error) {
		return &Results{Count: 1, Links: []string{q}}, nil
	})
	res, err := p.Search(context.Background(), "x")
	if err != nil || res.Links[0] != "x" {
		t.Errorf("unexpected: %+v, %v", res, err)
	}
}
