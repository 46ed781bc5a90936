package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/serpwords/internal/bypass"
	"github.com/FranksOps/serpwords/internal/fingerprint"
	"github.com/FranksOps/serpwords/internal/metrics"
	"github.com/FranksOps/serpwords/internal/storage"
	"github.com/FranksOps/serpwords/pkg/httpclient"
	"github.com/FranksOps/serpwords/pkg/proxy"
	"github.com/FranksOps/serpwords/pkg/ratelimit"
	"github.com/FranksOps/serpwords/pkg/useragent"
	"github.com/google/uuid"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// DefaultTimeout bounds a single fetch when FetchConfig.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// FetchConfig configures the Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
	// Recorder, when set, receives a record of every fetch.
	Recorder storage.Recorder
	Logger   *slog.Logger
}

// Fetcher performs single GET requests with the configured User-Agent,
// TLS fingerprint, proxy rotation and rate limit. One Fetcher is shared by
// every worker in a run.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher builds the transport and client once so connections (and cookies,
// if enabled) are reused across requests.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, useragent.Sequential)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Per-request proxy rotation: the proxy chosen in Fetch rides on the request context.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "localhost" {
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{Proxy: proxyFunc})
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		MaxBodyBytes: cfg.MaxBodyBytes,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config: cfg,
		client: client,
		logger: cfg.Logger,
	}, nil
}

// Close releases idle connections held by the transport.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Fetch GETs targetURL and captures the outcome in a FetchRecord. Transport
// failures are reported on FetchRecord.Error rather than as an error return so
// callers can record and classify them uniformly; the returned error is
// reserved for a cancelled context.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, kind storage.Kind) (*storage.FetchRecord, error) {
	rec := &storage.FetchRecord{
		ID:        uuid.NewString(),
		URL:       targetURL,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	defer f.finish(ctx, rec)

	if err := f.config.Limiter.Wait(ctx); err != nil {
		rec.Error = fmt.Sprintf("rate limiter: %v", err)
		return rec, err
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		rec.Error = fmt.Sprintf("failed to create request: %v", err)
		return rec, nil
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	req.Header.Set("User-Agent", f.config.UAPool.Pick())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Redacted()).Inc()
		}
		rec.Error = fmt.Sprintf("request failed: %v", err)
		rec.Duration = time.Since(start)
		return rec, ctx.Err()
	}
	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := f.client.ReadBody(resp)
	if err != nil {
		rec.Error = fmt.Sprintf("failed to read body: %v", err)
	}

	rec.StatusCode = resp.StatusCode
	rec.Headers = resp.Header
	rec.Body = body
	rec.Duration = time.Since(start)

	bypass.Analyze(rec, bypass.DefaultDetectors())
	return rec, nil
}

func (f *Fetcher) finish(ctx context.Context, rec *storage.FetchRecord) {
	host := ""
	if u, err := url.Parse(rec.URL); err == nil {
		host = u.Hostname()
	}
	metrics.RecordFetch(host, rec)

	if rec.DetectedBot {
		f.logger.Warn("bot protection detected", "url", rec.URL, "source", rec.DetectionSrc, "status", rec.StatusCode)
	}
	f.logger.Debug("fetched", "url", rec.URL, "kind", rec.Kind, "status", rec.StatusCode, "bytes", len(rec.Body), "duration", rec.Duration)

	if f.config.Recorder != nil {
		if err := f.config.Recorder.Save(context.WithoutCancel(ctx), rec); err != nil {
			f.logger.Error("failed to record fetch", "url", rec.URL, "err", err)
		}
	}
}
