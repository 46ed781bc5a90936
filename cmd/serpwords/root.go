package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/FranksOps/serpwords/internal/extract"
	"github.com/FranksOps/serpwords/internal/metrics"
	"github.com/FranksOps/serpwords/internal/pipeline"
	"github.com/FranksOps/serpwords/internal/report"
	"github.com/FranksOps/serpwords/internal/scraper"
	"github.com/FranksOps/serpwords/internal/serp"
	"github.com/FranksOps/serpwords/internal/storage"
	"github.com/FranksOps/serpwords/internal/storage/memory"
	"github.com/FranksOps/serpwords/pkg/proxy"
	"github.com/FranksOps/serpwords/pkg/ratelimit"
	"github.com/FranksOps/serpwords/pkg/useragent"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serpwords",
		Short:         "Top keywords and a summary from the leading search results",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	registerFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg config, stdout, stderr io.Writer) error {
	logger, closer, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With("run_id", uuid.NewString())

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Start(cfg.MetricsAddr, logger)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		logger.Info("serving metrics", "addr", srv.Addr())
		defer srv.Stop(context.WithoutCancel(ctx))
	}

	recorder := memory.New()
	defer recorder.Close()

	fetcher, err := newFetcher(cfg, recorder, logger)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	provider, err := serp.NewGoogle(serp.GoogleConfig{Fetcher: fetcher, SearchURL: cfg.SearchURL, Logger: logger})
	if err != nil {
		return err
	}

	extCfg := extract.Config{Fetcher: fetcher, MaxElements: cfg.MaxElements, Logger: logger}
	if cfg.RespectRobots {
		extCfg.Robots = scraper.NewRobotsGate(fetcher, robotsAgent(cfg.UserAgents), logger)
	}
	extractor, err := extract.New(extCfg)
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Config{
		Provider:  provider,
		Extractor: extractor,
		Results:   cfg.Results,
		TopK:      cfg.TopK,
		Sentences: cfg.Sentences,
		Workers:   cfg.Workers,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	rep, err := p.Run(ctx, query)
	if errors.Is(err, pipeline.ErrSearch) {
		logger.Error("search failed", "query", query, "err", err)
		return report.WriteNoResultCount(stdout)
	}
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	records, err := recorder.Query(ctx, storage.Filter{})
	if err != nil {
		logger.Warn("failed to read fetch records", "err", err)
	}
	fetches := report.SummarizeFetches(records)

	if cfg.FetchSummary {
		if err := report.WriteFetchSummary(stderr, fetches); err != nil {
			logger.Warn("failed to write fetch summary", "err", err)
		}
	}

	logger.Info("run complete", "pages", len(rep.Pages), "keywords", len(rep.Keywords), "duration", rep.Duration)
	return report.Write(stdout, cfg.Format, report.Document{Run: rep, Fetches: fetches})
}

func newFetcher(cfg config, recorder storage.Recorder, logger *slog.Logger) (*scraper.Fetcher, error) {
	fc := scraper.FetchConfig{
		Timeout:     cfg.Timeout,
		UAPool:      useragent.NewPool(cfg.UserAgents, cfg.UAMode),
		Fingerprint: cfg.Fingerprint,
		Limiter:     ratelimit.NewLimiter(cfg.RPS, cfg.Jitter),
		Recorder:    recorder,
		Logger:      logger,
	}
	if cfg.ProxyFile != "" {
		pool := proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(cfg.ProxyFile); err != nil {
			return nil, fmt.Errorf("failed to load proxies: %w", err)
		}
		logger.Info("loaded proxies", "count", pool.Len())
		fc.ProxyPool = pool
	}
	return scraper.NewFetcher(fc)
}

// robotsAgent picks the agent name robots.txt rules are evaluated for.
func robotsAgent(uas []string) string {
	if len(uas) == 1 {
		return uas[0]
	}
	return "*"
}
