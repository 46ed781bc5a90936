// Package pipeline runs one search: it queries the provider, extracts the top
// result pages concurrently, and aggregates their keywords and sentences.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/FranksOps/serpwords/internal/aggregate"
	"github.com/FranksOps/serpwords/internal/analyzer"
	"github.com/FranksOps/serpwords/internal/extract"
	"github.com/FranksOps/serpwords/internal/metrics"
	"github.com/FranksOps/serpwords/internal/serp"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"
)

// DefaultResults is how many result links are extracted.
const DefaultResults = 5

// ErrSearch wraps every failure to obtain a result count and links.
var ErrSearch = errors.New("search failed")

// PageExtractor turns one result URL into a PageResult.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string, ex *analyzer.Excluder) (*extract.PageResult, error)
}

// Config configures a Pipeline. Zero values select the defaults.
type Config struct {
	Provider  serp.Provider
	Extractor PageExtractor
	Results   int
	TopK      int
	Sentences int
	// Workers bounds concurrent page extraction; 0 means DefaultWorkers().
	Workers int
	Logger  *slog.Logger
}

// DefaultWorkers mirrors a thread pool sized for I/O: min(32, NumCPU+4).
func DefaultWorkers() int {
	return min(32, runtime.NumCPU()+4)
}

type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Provider == nil {
		return nil, errors.New("pipeline: provider is required")
	}
	if cfg.Extractor == nil {
		return nil, errors.New("pipeline: extractor is required")
	}
	if cfg.Results <= 0 {
		cfg.Results = DefaultResults
	}
	if cfg.TopK <= 0 {
		cfg.TopK = aggregate.DefaultTopK
	}
	if cfg.Sentences <= 0 {
		cfg.Sentences = aggregate.DefaultSentences
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: cfg.Logger}, nil
}

// Page outcomes reported per result URL.
const (
	StatusOK         = metrics.OutcomeOK
	StatusFailed     = metrics.OutcomeFailed
	StatusBlocked    = metrics.OutcomeBlocked
	StatusDisallowed = metrics.OutcomeDisallowed
	StatusPanicked   = metrics.OutcomePanicked
)

// PageOutcome records what happened to one result URL.
type PageOutcome struct {
	URL       string `json:"url"`
	Status    string `json:"status"`
	Keywords  int    `json:"keywords"`
	Sentences int    `json:"sentences"`
	Error     string `json:"error,omitempty"`
}

// Report is the result of a completed run.
type Report struct {
	Query       string              `json:"query"`
	ResultCount int64               `json:"result_count"`
	Links       []string            `json:"links"`
	Pages       []PageOutcome       `json:"pages"`
	TopK        int                 `json:"top_k"`
	Keywords    []aggregate.Keyword `json:"keywords"`
	Summary     string              `json:"summary"`
	HasSummary  bool                `json:"has_summary"`
	StartedAt   time.Time           `json:"started_at"`
	Duration    time.Duration       `json:"duration"`
}

type taskResult struct {
	url      string
	page     *extract.PageResult
	err      error
	panicked bool
}

// Run executes the search and page extraction for query. A failed search is
// returned wrapped in ErrSearch; failed pages are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, query string) (*Report, error) {
	started := time.Now()

	res, err := p.cfg.Provider.Search(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}

	// Links arrive deduplicated and fragment-free, so a repeated result does
	// not take one of the slots.
	links := res.Links
	if len(links) > p.cfg.Results {
		links = links[:p.cfg.Results]
	}
	p.logger.Info("extracting result pages", "query", query, "links", len(links), "workers", min(p.cfg.Workers, len(links)))

	outcomes, pages, err := p.extractAll(ctx, links, analyzer.NewExcluder(query))
	if err != nil {
		return nil, err
	}

	agg := aggregate.Merge(pages)
	summary, ok := aggregate.Summary(agg.Sentences, p.cfg.Sentences)

	return &Report{
		Query:       query,
		ResultCount: res.Count,
		Links:       links,
		Pages:       outcomes,
		TopK:        p.cfg.TopK,
		Keywords:    aggregate.TopK(agg.Counts, p.cfg.TopK),
		Summary:     summary,
		HasSummary:  ok,
		StartedAt:   started.UTC(),
		Duration:    time.Since(started),
	}, nil
}

// extractAll feeds links to a fixed pool of workers and collects results on
// the calling goroutine in completion order.
func (p *Pipeline) extractAll(ctx context.Context, links []string, ex *analyzer.Excluder) ([]PageOutcome, []*extract.PageResult, error) {
	if len(links) == 0 {
		return nil, nil, ctx.Err()
	}

	tasks := make(chan string, len(links))
	for _, l := range links {
		tasks <- l
	}
	close(tasks)

	results := make(chan taskResult, len(links))
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < min(p.cfg.Workers, len(links)); i++ {
		g.Go(func() error {
			for link := range tasks {
				if err := gCtx.Err(); err != nil {
					return err
				}
				results <- p.runTask(gCtx, link, ex)
			}
			return nil
		})
	}

	var waitErr error
	go func() {
		waitErr = g.Wait()
		close(results)
	}()

	outcomes := make([]PageOutcome, 0, len(links))
	pages := make([]*extract.PageResult, 0, len(links))
	for r := range results {
		outcome := p.observe(r)
		outcomes = append(outcomes, outcome)
		if outcome.Status == StatusOK {
			pages = append(pages, r.page)
		}
	}

	if waitErr != nil {
		return nil, nil, waitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return outcomes, pages, nil
}

func (p *Pipeline) runTask(ctx context.Context, link string, ex *analyzer.Excluder) (out taskResult) {
	out.url = link
	var pc panics.Catcher
	pc.Try(func() {
		out.page, out.err = p.cfg.Extractor.Extract(ctx, link, ex)
	})
	if r := pc.Recovered(); r != nil {
		out.page = nil
		out.err = r.AsError()
		out.panicked = true
	}
	return out
}

func (p *Pipeline) observe(r taskResult) PageOutcome {
	o := PageOutcome{URL: r.url}

	switch {
	case r.panicked:
		o.Status = StatusPanicked
		o.Error = r.err.Error()
		p.logger.Error("page task panicked", "url", r.url, "err", r.err)
	case r.err != nil:
		o.Status = StatusFailed
		var fe *extract.FetchError
		switch {
		case errors.Is(r.err, extract.ErrDisallowed):
			o.Status = StatusDisallowed
		case errors.As(r.err, &fe) && fe.Detection != "":
			o.Status = StatusBlocked
		}
		o.Error = r.err.Error()
		p.logger.Warn("skipping page", "url", r.url, "status", o.Status, "err", r.err)
	case r.page == nil:
		o.Status = StatusFailed
		o.Error = "no result"
		p.logger.Warn("skipping page", "url", r.url, "err", o.Error)
	default:
		o.Status = StatusOK
		o.Keywords = r.page.Counts.Len()
		o.Sentences = len(r.page.Sentences)
	}

	metrics.RecordPage(o.Status, o.Keywords)
	return o
}
