package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/serpwords/internal/aggregate"
	"github.com/FranksOps/serpwords/internal/extract"
	"github.com/FranksOps/serpwords/internal/fingerprint"
	"github.com/FranksOps/serpwords/internal/pipeline"
	"github.com/FranksOps/serpwords/internal/report"
	"github.com/FranksOps/serpwords/internal/scraper"
	"github.com/FranksOps/serpwords/internal/serp"
	"github.com/FranksOps/serpwords/pkg/useragent"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SERPWORDS"

type config struct {
	Results     int
	TopK        int
	Sentences   int
	Workers     int
	Timeout     time.Duration
	MaxElements int

	UserAgents    []string
	UAMode        useragent.Mode
	Fingerprint   fingerprint.Profile
	ProxyFile     string
	RPS           float64
	Jitter        float64
	RespectRobots bool
	SearchURL     string

	Format       report.Format
	FetchSummary bool
	MetricsAddr  string

	LogLevel  string
	LogFormat string
	LogFile   string
}

func registerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")

	fs.Int("results", pipeline.DefaultResults, "number of result links to extract")
	fs.Int("top", aggregate.DefaultTopK, "number of keywords to print")
	fs.Int("sentences", aggregate.DefaultSentences, "number of sentences in the summary")
	fs.Int("workers", 0, "concurrent page fetches (0 = min(32, NumCPU+4))")
	fs.Duration("timeout", scraper.DefaultTimeout, "per-request timeout")
	fs.Int("max-elements", extract.DefaultMaxElements, "content elements visited per page")

	fs.StringSlice("user-agent", nil, "User-Agent to send (repeatable; rotated)")
	fs.String("ua-mode", string(useragent.Sequential), "User-Agent rotation: sequential|random")
	fs.String("fingerprint", string(fingerprint.ProfileGo), "TLS fingerprint profile")
	fs.String("proxy-file", "", "file with one proxy URL per line")
	fs.Float64("rps", 0, "maximum requests per second (0 = unlimited)")
	fs.Float64("jitter", 0, "random extra delay as a fraction of the request interval (0-1)")
	fs.Bool("respect-robots", false, "skip result pages disallowed by robots.txt")
	fs.String("search-url", serp.DefaultSearchURL, "search endpoint")
	_ = fs.MarkHidden("search-url")

	fs.String("format", string(report.FormatText), "output format: text|json|html")
	fs.Bool("fetch-summary", false, "print a fetch summary to stderr")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")

	fs.String("log-level", "info", "log level: debug|info|warn|error")
	fs.String("log-format", "text", "log format: text|json")
	fs.String("log-file", "", "write logs to a rotating file instead of stderr")
}

func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Results:       v.GetInt("results"),
		TopK:          v.GetInt("top"),
		Sentences:     v.GetInt("sentences"),
		Workers:       v.GetInt("workers"),
		Timeout:       v.GetDuration("timeout"),
		MaxElements:   v.GetInt("max-elements"),
		UserAgents:    v.GetStringSlice("user-agent"),
		ProxyFile:     v.GetString("proxy-file"),
		RPS:           v.GetFloat64("rps"),
		Jitter:        v.GetFloat64("jitter"),
		RespectRobots: v.GetBool("respect-robots"),
		SearchURL:     v.GetString("search-url"),
		FetchSummary:  v.GetBool("fetch-summary"),
		MetricsAddr:   v.GetString("metrics-addr"),
		LogLevel:      v.GetString("log-level"),
		LogFormat:     v.GetString("log-format"),
		LogFile:       v.GetString("log-file"),
	}

	var err error
	if cfg.UAMode, err = useragent.ParseMode(v.GetString("ua-mode")); err != nil {
		return cfg, err
	}
	if cfg.Fingerprint, err = fingerprint.ParseProfile(v.GetString("fingerprint")); err != nil {
		return cfg, err
	}
	if cfg.Format, err = report.ParseFormat(v.GetString("format")); err != nil {
		return cfg, err
	}

	switch {
	case cfg.Results <= 0:
		return cfg, fmt.Errorf("--results must be positive, got %d", cfg.Results)
	case cfg.TopK <= 0:
		return cfg, fmt.Errorf("--top must be positive, got %d", cfg.TopK)
	case cfg.Sentences <= 0:
		return cfg, fmt.Errorf("--sentences must be positive, got %d", cfg.Sentences)
	case cfg.Workers < 0:
		return cfg, fmt.Errorf("--workers must not be negative, got %d", cfg.Workers)
	case cfg.Timeout <= 0:
		return cfg, fmt.Errorf("--timeout must be positive, got %s", cfg.Timeout)
	case cfg.MaxElements <= 0:
		return cfg, fmt.Errorf("--max-elements must be positive, got %d", cfg.MaxElements)
	case cfg.RPS < 0:
		return cfg, fmt.Errorf("--rps must not be negative, got %g", cfg.RPS)
	}
	return cfg, nil
}
