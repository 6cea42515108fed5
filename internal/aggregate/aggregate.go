// Package aggregate runs every enabled source concurrently, persists new
// articles and serves the stored corpus.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/export"
	"github.com/IshaanNene/NewsGoat/internal/extract"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/scrape"
	"github.com/IshaanNene/NewsGoat/internal/store"
	"github.com/IshaanNene/NewsGoat/internal/textproc"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Options carries the collaborators of an Aggregator. Fetcher and Store
// are required.
type Options struct {
	Fetcher  fetcher.Fetcher
	Store    *store.Store
	Exporter export.Exporter
	Metrics  *observability.Metrics

	// Throttle overrides the per-source politeness throttle.
	Throttle func(src config.SourceConfig) *scrape.Throttle
}

// SourceOutcome is the tagged result of one source in a cycle.
type SourceOutcome struct {
	Source   string        `json:"source"`
	Scraped  int           `json:"scraped"`
	New      int           `json:"new"`
	Failures int           `json:"failures"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`

	Articles []*types.Article `json:"-"`
	Inserted []*types.Article `json:"-"`
	session  *types.ScrapeSession
	index    int
}

// Failed reports whether the source produced nothing because it failed.
func (o *SourceOutcome) Failed() bool { return o.Err != nil }

// CycleResult summarizes one aggregation cycle.
type CycleResult struct {
	Processed  int                      `json:"processed"`
	New        int                      `json:"new"`
	Duplicates []textproc.DuplicatePair `json:"duplicates,omitempty"`
	Sources    []SourceOutcome          `json:"sources"`
	Duration   time.Duration            `json:"duration"`
}

// Failed returns the number of sources that failed.
func (r *CycleResult) Failed() int {
	n := 0
	for i := range r.Sources {
		if r.Sources[i].Failed() {
			n++
		}
	}
	return n
}

// Aggregator fans out over the configured sources.
type Aggregator struct {
	cfg        *config.Config
	extractors map[string]extract.Extractor
	fetcher    fetcher.Fetcher
	store      *store.Store
	exporter   export.Exporter
	robots     *scrape.RobotsGuard
	metrics    *observability.Metrics
	throttle   func(src config.SourceConfig) *scrape.Throttle
	now        func() time.Time
	logger     *slog.Logger
}

// New builds an extractor for every configured source and registers the
// sources in the store.
func New(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Aggregator, error) {
	if opts.Fetcher == nil || opts.Store == nil {
		return nil, fmt.Errorf("aggregate: fetcher and store are required")
	}

	a := &Aggregator{
		cfg:        cfg,
		extractors: make(map[string]extract.Extractor, len(cfg.Sources)),
		fetcher:    opts.Fetcher,
		store:      opts.Store,
		exporter:   opts.Exporter,
		metrics:    opts.Metrics,
		throttle:   opts.Throttle,
		now:        time.Now,
		logger:     logger.With("component", "aggregator"),
	}
	if a.throttle == nil {
		a.throttle = func(src config.SourceConfig) *scrape.Throttle {
			return scrape.NewThrottle(cfg.Delays(src))
		}
	}
	if cfg.Scraper.RespectRobots {
		a.robots = scrape.NewRobotsGuard(opts.Fetcher, logger)
	}

	registered := make([]types.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		ext, err := extract.New(src, logger)
		if err != nil {
			return nil, err
		}
		a.extractors[src.Name] = ext
		registered = append(registered, types.Source{Name: src.Name, BaseURL: src.BaseURL, IsActive: src.Enabled})
	}

	if err := a.store.EnsureSources(ctx, registered); err != nil {
		return nil, err
	}
	return a, nil
}

// workers returns the pool size: the configured worker count, or one per
// source when unset.
func (a *Aggregator) workers(n int) int {
	w := a.cfg.Scraper.Workers
	if w <= 0 {
		w = n
	}
	return max(w, 1)
}

// RunCycle scrapes every enabled source concurrently and persists what is
// new. Failing or panicking sources become failed outcomes. The error is
// non-nil when no source is enabled, or when storing some source's articles
// failed; every other source is still persisted and the result is returned
// alongside the joined store errors.
func (a *Aggregator) RunCycle(ctx context.Context, maxPerSource int) (*CycleResult, error) {
	start := time.Now()
	if a.metrics != nil {
		a.metrics.CyclesTotal.Add(1)
	}

	sources := a.cfg.EnabledSources()
	if len(sources) == 0 {
		a.cycleFailed()
		return nil, types.ErrNoSources
	}

	workers := a.workers(len(sources))
	a.logger.Info("cycle starting", "sources", len(sources), "workers", workers, "max_per_source", maxPerSource)

	p := pool.NewWithResults[SourceOutcome]().WithMaxGoroutines(workers)
	for i, src := range sources {
		p.Go(func() SourceOutcome {
			out := a.scrapeSource(ctx, src, maxPerSource)
			out.index = i
			return out
		})
	}
	outcomes := p.Wait()
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })

	res := &CycleResult{Sources: outcomes}
	persistCtx := context.WithoutCancel(ctx)
	var (
		fresh, processed []*types.Article
		storeErrs        []error
	)
	for i := range res.Sources {
		out := &res.Sources[i]
		if err := a.persist(persistCtx, out); err != nil {
			a.logger.Error("persist failed", "source", out.Source, "error", err)
			storeErrs = append(storeErrs, err)
		}
		res.Processed += out.Scraped
		res.New += out.New
		processed = append(processed, out.Articles...)
		fresh = append(fresh, out.Inserted...)
	}

	a.export(persistCtx, fresh)
	res.Duplicates = a.logDuplicates(processed)

	if len(storeErrs) > 0 {
		a.cycleFailed()
		res.Duration = time.Since(start)
		return res, errors.Join(storeErrs...)
	}

	res.Duration = time.Since(start)
	if a.metrics != nil {
		a.metrics.LastCycleNanos.Store(int64(res.Duration))
	}
	a.logger.Info("cycle complete",
		"processed", res.Processed,
		"new", res.New,
		"failed_sources", res.Failed(),
		"elapsed", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

// RunSource scrapes one configured source now and persists what is new. It
// returns the scraped articles.
func (a *Aggregator) RunSource(ctx context.Context, name string, maxArticles int) ([]*types.Article, error) {
	src, ok := a.cfg.Source(name)
	if !ok {
		return nil, &types.SourceError{Source: name, Err: types.ErrUnknownSource}
	}

	out := a.scrapeSource(ctx, src, maxArticles)
	if err := a.persist(context.WithoutCancel(ctx), &out); err != nil {
		return out.Articles, err
	}
	a.export(context.WithoutCancel(ctx), out.Inserted)
	a.logger.Info("source run complete", "source", src.Name, "scraped", out.Scraped, "new", out.New)
	return out.Articles, out.Err
}

// scrapeSource runs one orchestrator. Panics are recovered into the outcome.
func (a *Aggregator) scrapeSource(ctx context.Context, src config.SourceConfig, maxArticles int) SourceOutcome {
	out := SourceOutcome{Source: src.Name}
	start := time.Now()

	if a.metrics != nil {
		a.metrics.ActiveSources.Add(1)
		defer a.metrics.ActiveSources.Add(-1)
	}

	ext, ok := a.extractors[src.Name]
	if !ok {
		out.Err = &types.SourceError{Source: src.Name, Err: types.ErrUnknownSource}
		return out
	}

	orch := scrape.New(ext, a.fetcher, scrape.Options{
		Throttle: a.throttle(src),
		Robots:   a.robots,
		Sessions: a.store,
		Metrics:  a.metrics,
	}, a.logger)

	var (
		result *scrape.Result
		err    error
	)
	var pc panics.Catcher
	pc.Try(func() {
		result, err = orch.Run(ctx, maxArticles)
	})
	if recovered := pc.Recovered(); recovered != nil {
		err = &types.SourceError{Source: src.Name, Err: recovered.AsError()}
		a.logger.Error("source panicked", "source", src.Name, "panic", recovered.Value, "stack", string(recovered.Stack))
	}

	out.Duration = time.Since(start)
	if result != nil {
		out.session = result.Session
		out.Failures = result.Failures
	}
	if err != nil {
		out.Err = err
		if a.metrics != nil {
			a.metrics.SourcesFailed.Add(1)
		}
		a.logger.Warn("source failed", "source", src.Name, "error", err)
		return out
	}
	out.Articles = result.Articles
	out.Scraped = len(result.Articles)
	return out
}

// persist saves the outcome's articles, then updates the source counters
// and the session's saved count.
func (a *Aggregator) persist(ctx context.Context, out *SourceOutcome) error {
	if out.Failed() {
		return nil
	}

	// SaveNew returns what it inserted before an error, so counts stay exact.
	inserted, saveErr := a.store.SaveNew(ctx, out.Articles)
	out.Inserted = inserted
	out.New = len(inserted)
	if saveErr != nil {
		saveErr = fmt.Errorf("save %s: %w", out.Source, saveErr)
	}

	if a.metrics != nil {
		a.metrics.ArticlesStored.Add(int64(out.New))
		if saveErr == nil {
			a.metrics.ArticlesDuplicate.Add(int64(out.Scraped - out.New))
		}
	}

	var runErr error
	if saveErr == nil || out.New > 0 {
		if err := a.store.RecordRun(ctx, out.Source, out.New, a.now()); err != nil {
			runErr = fmt.Errorf("record run %s: %w", out.Source, err)
		}
	}
	a.finishSession(ctx, out, saveErr)
	return errors.Join(saveErr, runErr)
}

// finishSession writes the saved count, or marks the session failed when
// the articles could not be stored.
func (a *Aggregator) finishSession(ctx context.Context, out *SourceOutcome, saveErr error) {
	if out.session == nil {
		return
	}
	out.session.ArticlesSaved = out.New
	if saveErr != nil {
		out.session.Status = types.SessionFailed
		out.session.ErrorMessage = saveErr.Error()
	}
	if err := a.store.FinishSession(ctx, out.session); err != nil {
		a.logger.Warn("session not updated", "source", out.Source, "error", err)
	}
}

func (a *Aggregator) export(ctx context.Context, articles []*types.Article) {
	if a.exporter == nil || len(articles) == 0 {
		return
	}
	if err := a.exporter.Export(ctx, articles); err != nil {
		a.logger.Error("export failed", "sink", a.exporter.Name(), "articles", len(articles), "error", err)
	}
}

// logDuplicates reports articles of the cycle whose text repeats an earlier
// one under a different URL.
func (a *Aggregator) logDuplicates(articles []*types.Article) []textproc.DuplicatePair {
	texts := make([]string, len(articles))
	for i, art := range articles {
		texts[i] = art.Text()
	}
	pairs := textproc.FindDuplicates(texts)
	for _, p := range pairs {
		a.logger.Info("duplicate content",
			"url", articles[p.Duplicate].URL,
			"first_url", articles[p.First].URL,
		)
	}
	return pairs
}

func (a *Aggregator) cycleFailed() {
	if a.metrics != nil {
		a.metrics.CyclesFailed.Add(1)
	}
}
