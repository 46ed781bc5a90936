package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/FranksOps/serpwords/internal/storage"
	"github.com/temoto/robotstxt"
)

// RobotsGate answers whether a result page may be fetched under its host's
// robots.txt. Each host's file is fetched at most once per gate.
type RobotsGate struct {
	fetcher   *Fetcher
	userAgent string
	logger    *slog.Logger

	mu    sync.Mutex
	hosts map[string]*robotsEntry
}

type robotsEntry struct {
	once sync.Once
	data *robotstxt.RobotsData
	err  error
}

// NewRobotsGate creates a gate that evaluates rules for userAgent ("*" when empty).
func NewRobotsGate(fetcher *Fetcher, userAgent string, logger *slog.Logger) *RobotsGate {
	if logger == nil {
		logger = slog.Default()
	}
	if userAgent == "" {
		userAgent = "*"
	}
	return &RobotsGate{
		fetcher:   fetcher,
		userAgent: userAgent,
		logger:    logger,
		hosts:     make(map[string]*robotsEntry),
	}
}

// Allowed reports whether targetURL may be fetched. A missing or unreadable
// robots.txt allows everything.
func (g *RobotsGate) Allowed(ctx context.Context, targetURL string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}
	origin := u.Scheme + "://" + u.Host

	data, err := g.load(ctx, origin)
	if err != nil {
		g.logger.Debug("robots.txt unavailable, allowing", "host", origin, "err", err)
		return true, nil
	}
	if data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, g.userAgent), nil
}

func (g *RobotsGate) load(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	g.mu.Lock()
	entry, ok := g.hosts[origin]
	if !ok {
		entry = &robotsEntry{}
		g.hosts[origin] = entry
	}
	g.mu.Unlock()

	entry.once.Do(func() {
		entry.data, entry.err = g.fetch(ctx, origin)
	})
	return entry.data, entry.err
}

func (g *RobotsGate) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	rec, err := g.fetcher.Fetch(ctx, origin+"/robots.txt", storage.KindRobots)
	if err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}
	if rec.Error != "" {
		return nil, fmt.Errorf("fetch error: %s", rec.Error)
	}
	if rec.StatusCode >= 400 {
		return nil, nil
	}

	data, err := robotstxt.FromStatusAndBytes(rec.StatusCode, rec.Body)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return data, nil
}
