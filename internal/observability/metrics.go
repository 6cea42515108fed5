package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters for scraping and aggregation.
type Metrics struct {
	// Request metrics
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	RequestsRetried atomic.Int64

	// Response metrics
	ResponsesTotal atomic.Int64
	Responses2xx   atomic.Int64
	Responses3xx   atomic.Int64
	Responses4xx   atomic.Int64
	Responses5xx   atomic.Int64

	BytesDownloaded atomic.Int64

	// Article metrics
	ArticlesScraped   atomic.Int64
	ArticlesStored    atomic.Int64
	ArticlesDuplicate atomic.Int64
	ExtractionErrors  atomic.Int64

	// Cycle metrics
	CyclesTotal    atomic.Int64
	CyclesFailed   atomic.Int64
	SourcesFailed  atomic.Int64
	ActiveSources  atomic.Int32
	ArticlesSwept  atomic.Int64
	LastCycleNanos atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metric struct {
	name  string
	help  string
	kind  string
	value int64
}

func (m *Metrics) all() []metric {
	return []metric{
		{"newsgoat_requests_total", "Total HTTP attempts made", "counter", m.RequestsTotal.Load()},
		{"newsgoat_requests_failed_total", "Total fetches that gave up", "counter", m.RequestsFailed.Load()},
		{"newsgoat_requests_retried_total", "Total retried attempts", "counter", m.RequestsRetried.Load()},
		{"newsgoat_responses_total", "Total responses received", "counter", m.ResponsesTotal.Load()},
		{"newsgoat_responses_2xx_total", "Total 2xx responses", "counter", m.Responses2xx.Load()},
		{"newsgoat_responses_3xx_total", "Total 3xx responses", "counter", m.Responses3xx.Load()},
		{"newsgoat_responses_4xx_total", "Total 4xx responses", "counter", m.Responses4xx.Load()},
		{"newsgoat_responses_5xx_total", "Total 5xx responses", "counter", m.Responses5xx.Load()},
		{"newsgoat_bytes_downloaded_total", "Total bytes downloaded", "counter", m.BytesDownloaded.Load()},
		{"newsgoat_articles_scraped_total", "Articles extracted from pages", "counter", m.ArticlesScraped.Load()},
		{"newsgoat_articles_stored_total", "Articles newly inserted", "counter", m.ArticlesStored.Load()},
		{"newsgoat_articles_duplicate_total", "Articles skipped as already stored", "counter", m.ArticlesDuplicate.Load()},
		{"newsgoat_extraction_errors_total", "Pages that did not yield an article", "counter", m.ExtractionErrors.Load()},
		{"newsgoat_cycles_total", "Aggregation cycles run", "counter", m.CyclesTotal.Load()},
		{"newsgoat_cycles_failed_total", "Aggregation cycles that could not run", "counter", m.CyclesFailed.Load()},
		{"newsgoat_sources_failed_total", "Source runs that failed", "counter", m.SourcesFailed.Load()},
		{"newsgoat_articles_swept_total", "Articles deactivated by retention", "counter", m.ArticlesSwept.Load()},
		{"newsgoat_active_sources", "Sources currently being scraped", "gauge", int64(m.ActiveSources.Load())},
		{"newsgoat_last_cycle_duration_ms", "Duration of the last cycle in milliseconds", "gauge", m.LastCycleNanos.Load() / int64(time.Millisecond)},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.all() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server and shuts it down when ctx ends.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Snapshot returns all metrics as a map keyed by short name.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, metric := range m.all() {
		out[metric.name] = metric.value
	}
	return out
}
