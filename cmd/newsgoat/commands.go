package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/schedule"
	"github.com/IshaanNene/NewsGoat/internal/store"
	"github.com/IshaanNene/NewsGoat/internal/textproc"
)

// cycleCmd creates the "cycle" subcommand.
func cycleCmd() *cobra.Command {
	var maxArticles int
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Scrape every enabled source once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if maxArticles <= 0 {
				maxArticles = a.cfg.Scraper.MaxArticlesPerSource
			}
			res, err := a.agg.RunCycle(ctx, maxArticles)
			if res != nil {
				if rerr := render(res, func() { printCycle(res) }); rerr != nil {
					return rerr
				}
			}
			if err != nil {
				return fmt.Errorf("cycle: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&maxArticles, "max", "m", 0, "maximum articles per source (0 = config default)")
	return cmd
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	var maxArticles int
	cmd := &cobra.Command{
		Use:   "scrape <source>",
		Short: "Scrape one source now",
		Long:  "Scrape one configured source by name or kind (e.g. \"BBC News\" or bbc) and store new articles.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if maxArticles <= 0 {
				maxArticles = a.cfg.Scraper.MaxArticlesPerSource
			}
			articles, err := a.agg.RunSource(ctx, args[0], maxArticles)
			if err != nil {
				return fmt.Errorf("scrape %s: %w", args[0], err)
			}
			return render(articles, func() { printArticles(articles) })
		},
	}
	cmd.Flags().IntVarP(&maxArticles, "max", "m", 0, "maximum articles (0 = config default)")
	return cmd
}

// articlesCmd creates the "articles" subcommand.
func articlesCmd() *cobra.Command {
	var f store.Filter
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List stored articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			articles, err := a.agg.GetArticles(cmd.Context(), f)
			if err != nil {
				return err
			}
			return render(articles, func() { printArticles(articles) })
		},
	}
	cmd.Flags().StringSliceVarP(&f.Sources, "source", "s", nil, "filter by source name (repeatable)")
	cmd.Flags().StringSliceVar(&f.Categories, "category", nil, "filter by category, case-insensitive (repeatable)")
	cmd.Flags().StringSliceVarP(&f.Keywords, "keyword", "k", nil, "match keyword in title or content (repeatable)")
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", store.DefaultLimit, "maximum articles")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "skip this many articles")
	return cmd
}

// articleCmd creates the "article" subcommand.
func articleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "article <url>",
		Short: "Show one stored article with its text analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			art, err := a.agg.GetArticle(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no stored article for %s", args[0])
			}
			if err != nil {
				return err
			}
			analysis := textproc.Analyze(art.Title, art.Content)
			doc := struct {
				Article  any               `json:"article"  yaml:"article"`
				Analysis textproc.Analysis `json:"analysis" yaml:"analysis"`
			}{art, analysis}
			return render(doc, func() { printArticle(art, analysis) })
		},
	}
}

// statsCmd creates the "stats" subcommand.
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show article statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.agg.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			return render(st, func() { printStats(st) })
		},
	}
}

// sourcesCmd creates the "sources" subcommand.
func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List sources with their counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			sources, err := a.agg.Sources(cmd.Context())
			if err != nil {
				return err
			}
			return render(sources, func() { printSources(sources) })
		},
	}
}

// sessionsCmd creates the "sessions" subcommand.
func sessionsCmd() *cobra.Command {
	var (
		source string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Show recent scrape sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.agg.Sessions(cmd.Context(), source, limit)
			if err != nil {
				return err
			}
			return render(sessions, func() { printSessions(sessions) })
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "only sessions of this source")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum sessions")
	return cmd
}

// sweepCmd creates the "sweep" subcommand.
func sweepCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Deactivate articles older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if days <= 0 {
				days = a.cfg.Schedule.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("retention is disabled; pass --days")
			}
			n, err := a.agg.Sweep(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Deactivated %d articles older than %d days\n", n, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (0 = config default)")
	return cmd
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	var (
		interval time.Duration
		metrics  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run cycles and retention sweeps on a schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if interval > 0 {
				a.cfg.Schedule.Interval = interval
			}
			if metrics || a.cfg.Metrics.Enabled {
				a.metrics.StartServer(ctx, a.cfg.Metrics.Port, a.cfg.Metrics.Path)
			}

			sched, err := schedule.New(a.agg, a.cfg.Schedule, a.cfg.Scraper.MaxArticlesPerSource, a.logger)
			if err != nil {
				return err
			}
			sched.Start()

			<-ctx.Done()
			a.logger.Info("shutdown requested")
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "cycle interval (0 = config default)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics")
	return cmd
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NewsGoat %s\n", config.Version)
		},
	}
}
