package serp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/FranksOps/serpwords/internal/scraper"
	"github.com/FranksOps/serpwords/internal/storage"
	"github.com/PuerkitoBio/goquery"
)

// DefaultSearchURL is Google's HTML search endpoint.
const DefaultSearchURL = "https://www.google.com/search"

const (
	resultStatsSelector = "#result-stats"
	resultLinkSelector  = ".tF2Cxc a"
)

// GoogleConfig configures GoogleScrape.
type GoogleConfig struct {
	Fetcher *scraper.Fetcher
	// SearchURL overrides DefaultSearchURL.
	SearchURL string
	Logger    *slog.Logger
}

// GoogleScrape reads the result count and organic links from Google's HTML
// results page.
type GoogleScrape struct {
	fetcher   *scraper.Fetcher
	searchURL *url.URL
	logger    *slog.Logger
}

func NewGoogle(cfg GoogleConfig) (*GoogleScrape, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("serp: fetcher is required")
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	u, err := url.Parse(cfg.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search url: %w", err)
	}
	return &GoogleScrape{fetcher: cfg.Fetcher, searchURL: u, logger: cfg.Logger}, nil
}

// Search fetches the results page for query. Links are returned in page order;
// callers take as many as they need.
func (g *GoogleScrape) Search(ctx context.Context, query string) (*Results, error) {
	u := *g.searchURL
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	rec, err := g.fetcher.Fetch(ctx, u.String(), storage.KindSERP)
	if err != nil {
		return nil, err
	}
	if rec.Error != "" {
		return nil, fmt.Errorf("search request failed: %s", rec.Error)
	}
	if !rec.OK() {
		if rec.DetectedBot {
			return nil, fmt.Errorf("search returned status %d (blocked by %s)", rec.StatusCode, rec.DetectionSrc)
		}
		return nil, fmt.Errorf("search returned status %d", rec.StatusCode)
	}

	res, err := ParseResultsPage(rec.Body, &u)
	if err != nil {
		if rec.DetectedBot {
			return nil, fmt.Errorf("%w (blocked by %s)", err, rec.DetectionSrc)
		}
		return nil, err
	}

	g.logger.Info("search complete", "query", query, "count", res.Count, "links", len(res.Links))
	return res, nil
}

// ParseResultsPage extracts the result count and organic links from a Google
// results page. Relative links are resolved against base.
func ParseResultsPage(body []byte, base *url.URL) (*Results, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	stats := doc.Find(resultStatsSelector).First()
	if stats.Length() == 0 {
		return nil, ErrNoResultCount
	}
	count, err := ParseResultCount(stats.Text())
	if err != nil {
		return nil, err
	}

	var hrefs []string
	doc.Find(resultLinkSelector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})

	return &Results{Count: count, Links: NormalizeLinks(base, hrefs)}, nil
}

// ParseResultCount reads the number from result-stats text such as
// "About 1,230,000 results (0.42 seconds)". The second field is tried first,
// then the first field that is a plain number.
func ParseResultCount(text string) (int64, error) {
	fields := strings.Fields(text)
	if len(fields) > 1 {
		if n, err := parseCount(fields[1]); err == nil {
			return n, nil
		}
	}
	for _, f := range fields {
		if n, err := parseCount(f); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNoResultCount, text)
}

func parseCount(field string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(field, ",", ""), 10, 64)
}
