package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/aggregate"
	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/export"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/store"
)

var (
	cfgFile string
	verbose bool
	output  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsgoat",
		Short: "NewsGoat: news aggregator for BBC, CNN, Reuters and configured sites",
		Long: `NewsGoat scrapes news sites, normalizes articles into one record shape,
stores them in SQLite or PostgreSQL and answers queries over the stored corpus.

Each source is scraped with ordered selector fallback chains (CSS, XPath,
meta/JSON-LD, readability) and polite randomized delays. Articles are
deduplicated by canonical URL and enriched with a summary, word count and
sentiment score.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(cycleCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(articlesCmd())
	rootCmd.AddCommand(articleCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	fetcher  *fetcher.HTTPFetcher
	store    *store.Store
	exporter export.Exporter
	agg      *aggregate.Aggregator
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires fetcher, store, export sinks and aggregator. Export sinks
// are only opened for commands that insert articles.
func newApp(ctx context.Context, withExport bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg)
	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics(logger)}

	a.fetcher, err = fetcher.NewHTTPFetcher(cfg.Fetcher, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	a.fetcher.SetMetrics(a.metrics)

	a.store, err = store.Open(ctx, cfg.Database, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	if withExport {
		a.exporter, err = export.New(ctx, cfg.Export, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open export sinks: %w", err)
		}
	}

	a.agg, err = aggregate.New(ctx, cfg, aggregate.Options{
		Fetcher:  a.fetcher,
		Store:    a.store,
		Exporter: a.exporter,
		Metrics:  a.metrics,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create aggregator: %w", err)
	}
	return a, nil
}

// Close releases everything newApp opened.
func (a *app) Close() {
	if a.exporter != nil {
		if err := a.exporter.Close(); err != nil {
			a.logger.Warn("export close failed", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("store close failed", "error", err)
		}
	}
	if a.fetcher != nil {
		a.fetcher.Close()
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// setupLogger creates a structured logger from the logging config. The
// --verbose flag forces debug level.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
