package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/serpwords/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwords_fetch_requests_total",
			Help: "Total number of outbound fetches executed",
		},
		[]string{"kind", "domain", "status", "detected", "detection_src"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serpwords_fetch_duration_seconds",
			Help:    "Duration of outbound fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwords_fetch_bytes_total",
			Help: "Total bytes downloaded across all fetches",
		},
		[]string{"kind"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwords_proxy_failures_total",
			Help: "Total number of proxy failures during fetches",
		},
		[]string{"proxy_url"},
	)

	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwords_pages_total",
			Help: "Result pages processed, by outcome",
		},
		[]string{"outcome"},
	)

	KeywordsExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serpwords_keywords_extracted_total",
			Help: "Distinct keywords kept after filtering, summed over pages",
		},
	)
)

// Page outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeFailed     = "failed"
	OutcomeBlocked    = "blocked"
	OutcomeDisallowed = "disallowed"
	OutcomePanicked   = "panicked"
)

// RecordFetch updates the fetch metrics from a FetchRecord.
func RecordFetch(domain string, rec *storage.FetchRecord) {
	if rec == nil {
		return
	}

	status := strconv.Itoa(rec.StatusCode)
	if rec.Error != "" {
		status = "error"
	}
	kind := string(rec.Kind)

	FetchRequestsTotal.WithLabelValues(kind, domain, status, strconv.FormatBool(rec.DetectedBot), rec.DetectionSrc).Inc()
	FetchDuration.WithLabelValues(kind).Observe(rec.Duration.Seconds())
	FetchBytesTotal.WithLabelValues(kind).Add(float64(len(rec.Body)))
}

// RecordPage counts one processed result page and the distinct keywords it yielded.
func RecordPage(outcome string, keywords int) {
	PagesTotal.WithLabelValues(outcome).Inc()
	if keywords > 0 {
		KeywordsExtractedTotal.Add(float64(keywords))
	}
}

// Server exposes /metrics over HTTP for the lifetime of a run.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Start listens on addr (e.g. ":9090") and serves /metrics in the background.
func Start(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()

	return &Server{srv: srv, ln: ln}, nil
}

// Addr is the bound listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
