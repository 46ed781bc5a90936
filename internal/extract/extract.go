// Package extract fetches a single result page and turns its markup into
// keyword counts and candidate summary sentences.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/FranksOps/serpwords/internal/analyzer"
	"github.com/FranksOps/serpwords/internal/scraper"
	"github.com/FranksOps/serpwords/internal/storage"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// DefaultMaxElements caps how many content elements are visited per page.
const DefaultMaxElements = 100

// ErrDisallowed is returned when robots.txt forbids fetching the page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// FetchError describes a page that could not be retrieved or returned a
// non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	// Detection names the bot protection that served the response, if any.
	Detection string
	Err       error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	case e.Detection != "":
		return fmt.Sprintf("fetch %s: status %d (%s)", e.URL, e.StatusCode, e.Detection)
	default:
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// PageResult is the keyword and sentence yield of one successfully fetched page.
type PageResult struct {
	URL       string
	Counts    *analyzer.Counter
	Sentences []string
	// Elements is the number of content elements visited.
	Elements int
}

// Config configures an Extractor.
type Config struct {
	Fetcher *scraper.Fetcher
	// Robots, when set, is consulted before every fetch.
	Robots      *scraper.RobotsGate
	MaxElements int
	Stopwords   analyzer.Stopwords
	Logger      *slog.Logger
}

// Extractor is safe for concurrent use.
type Extractor struct {
	fetcher     *scraper.Fetcher
	robots      *scraper.RobotsGate
	maxElements int
	stop        analyzer.Stopwords
	logger      *slog.Logger
}

func New(cfg Config) (*Extractor, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("extract: fetcher is required")
	}
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = DefaultMaxElements
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = analyzer.EnglishStopwords()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{
		fetcher:     cfg.Fetcher,
		robots:      cfg.Robots,
		maxElements: cfg.MaxElements,
		stop:        cfg.Stopwords,
		logger:      cfg.Logger,
	}, nil
}

// Extract fetches pageURL and returns its keywords with query words removed.
// A nil excluder keeps every keyword.
func (e *Extractor) Extract(ctx context.Context, pageURL string, ex *analyzer.Excluder) (*PageResult, error) {
	if e.robots != nil {
		allowed, err := e.robots.Allowed(ctx, pageURL)
		if err != nil {
			return nil, &FetchError{URL: pageURL, Err: err}
		}
		if !allowed {
			return nil, &FetchError{URL: pageURL, Err: ErrDisallowed}
		}
	}

	rec, err := e.fetcher.Fetch(ctx, pageURL, storage.KindPage)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if rec.Error != "" {
		return nil, &FetchError{URL: pageURL, StatusCode: rec.StatusCode, Detection: rec.DetectionSrc, Err: errors.New(rec.Error)}
	}
	if !rec.OK() {
		return nil, &FetchError{URL: pageURL, StatusCode: rec.StatusCode, Detection: rec.DetectionSrc}
	}

	acc, n, err := Parse(rec.Body, http.Header(rec.Headers).Get("Content-Type"), e.maxElements, e.stop)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	counts := acc.Counts
	if ex != nil {
		counts = ex.Apply(counts)
	}

	e.logger.Debug("page extracted", "url", pageURL, "elements", n, "keywords", counts.Len(), "sentences", len(acc.Sentences))
	return &PageResult{
		URL:       pageURL,
		Counts:    counts,
		Sentences: acc.Sentences,
		Elements:  n,
	}, nil
}

// Parse decodes body to UTF-8 and runs the tokenizer over the first
// maxElements content elements in document order. It returns the number of
// elements visited.
func Parse(body []byte, contentType string, maxElements int, stop analyzer.Stopwords) (*analyzer.Accumulator, int, error) {
	data, err := decode(body, contentType)
	if err != nil {
		return nil, 0, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse html: %w", err)
	}

	acc := analyzer.NewAccumulator()
	visited := 0
	doc.Find(analyzer.ContentSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if maxElements > 0 && visited >= maxElements {
			return false
		}
		analyzer.ProcessFragment(acc, goquery.NodeName(s), visibleText(s), stop)
		visited++
		return true
	})
	return acc, visited, nil
}

// visibleText concatenates the text nodes under s, leaving out the contents
// of script, style and template elements.
func visibleText(s *goquery.Selection) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return sb.String()
}

func decode(body []byte, contentType string) ([]byte, error) {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if !utf8.Valid(body) {
			return nil, fmt.Errorf("failed to decode body: %w", err)
		}
		out = body
	}
	return out, nil
}
