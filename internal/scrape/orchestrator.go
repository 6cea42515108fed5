// Package scrape drives one news source end to end: listing pages, candidate
// links, article pages, extraction and enrichment.
package scrape

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/NewsGoat/internal/extract"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/pipeline"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// State is the orchestrator's position in a run.
type State int32

const (
	StateIdle               State = 0
	StateFetchingLinks      State = 1
	StateExtractingArticles State = 2
	StateDone               State = 3
	StateFailed             State = 4
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingLinks:
		return "fetching-links"
	case StateExtractingArticles:
		return "extracting-articles"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionRecorder persists the audit record of each run.
type SessionRecorder interface {
	StartSession(ctx context.Context, s *types.ScrapeSession) error
	FinishSession(ctx context.Context, s *types.ScrapeSession) error
}

// Options carries the optional collaborators of an Orchestrator.
type Options struct {
	Throttle *Throttle
	Robots   *RobotsGuard
	Sessions SessionRecorder
	Metrics  *observability.Metrics
}

// Result is the outcome of one run.
type Result struct {
	Source     string
	Articles   []*types.Article
	LinksFound int
	Failures   int
	Session    *types.ScrapeSession
	Duration   time.Duration
}

// Orchestrator scrapes a single source.
type Orchestrator struct {
	ext      extract.Extractor
	fetcher  fetcher.Fetcher
	pipeline *pipeline.Pipeline
	throttle *Throttle
	robots   *RobotsGuard
	sessions SessionRecorder
	metrics  *observability.Metrics
	state    atomic.Int32
	logger   *slog.Logger
}

// New creates an Orchestrator for the source behind ext.
func New(ext extract.Extractor, f fetcher.Fetcher, opts Options, logger *slog.Logger) *Orchestrator {
	logger = logger.With("component", "orchestrator", "source", ext.Name())
	throttle := opts.Throttle
	if throttle == nil {
		throttle = NewThrottle(0, 0)
	}
	return &Orchestrator{
		ext:      ext,
		fetcher:  f,
		pipeline: pipeline.Enrichment(ext.Name(), logger),
		throttle: throttle,
		robots:   opts.Robots,
		sessions: opts.Sessions,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Name returns the source name.
func (o *Orchestrator) Name() string { return o.ext.Name() }

// State returns the state of the most recent run.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

// Run scrapes up to maxArticles articles. Per-URL failures are logged and
// skipped. The run fails with a *types.SourceError only when no listing or
// feed page could be fetched.
func (o *Orchestrator) Run(ctx context.Context, maxArticles int) (*Result, error) {
	start := time.Now()
	res := &Result{Source: o.ext.Name()}
	res.Session = o.startSession(ctx)

	o.setState(StateFetchingLinks)
	links, err := o.collectLinks(ctx, maxArticles)
	if err != nil {
		o.setState(StateFailed)
		serr := &types.SourceError{Source: o.ext.Name(), Err: err}
		res.Duration = time.Since(start)
		o.finishSession(ctx, res, serr)
		o.logger.Error("source failed", "error", err)
		return res, serr
	}
	res.LinksFound = len(links)

	o.setState(StateExtractingArticles)
	for _, link := range links {
		if err := o.throttle.Wait(ctx, o.crawlDelay(ctx, link)); err != nil {
			o.logger.Warn("run interrupted", "error", err, "scraped", len(res.Articles))
			break
		}

		article, err := o.scrapeArticle(ctx, link)
		if err != nil {
			res.Failures++
			o.logger.Warn("article skipped", "url", link, "error", err)
			continue
		}
		if article == nil {
			continue
		}
		res.Articles = append(res.Articles, article)
	}

	if len(res.Articles) == 0 {
		o.logger.Warn("no articles scraped", "links", len(links), "failures", res.Failures)
	}

	o.setState(StateDone)
	res.Duration = time.Since(start)
	o.finishSession(ctx, res, nil)
	o.logger.Info("source scraped",
		"links", res.LinksFound,
		"articles", len(res.Articles),
		"failures", res.Failures,
		"elapsed", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

// collectLinks fetches listing pages then feeds, unioning their candidate
// links in discovery order until maxArticles links are known.
func (o *Orchestrator) collectLinks(ctx context.Context, maxArticles int) ([]string, error) {
	type page struct {
		url  string
		tag  string
		list func(*types.Response) []string
	}
	var pages []page
	for _, u := range o.ext.ListingURLs() {
		pages = append(pages, page{u, types.TagListing, o.ext.ListCandidateLinks})
	}
	for _, u := range o.ext.FeedURLs() {
		pages = append(pages, page{u, types.TagFeed, o.ext.FeedLinks})
	}
	if len(pages) == 0 {
		return nil, types.ErrNoListings
	}

	dedup := NewDeduplicator(maxArticles)
	var (
		links   []string
		fetched int
		lastErr error
	)
	for i, p := range pages {
		if maxArticles > 0 && len(links) >= maxArticles {
			break
		}
		if i > 0 {
			if err := o.throttle.Wait(ctx, o.crawlDelay(ctx, p.url)); err != nil {
				lastErr = err
				break
			}
		}

		resp, err := fetcher.Get(ctx, o.fetcher, p.url, o.ext.Name(), p.tag)
		if err != nil {
			lastErr = err
			o.logger.Warn("listing fetch failed", "url", p.url, "error", err)
			continue
		}
		fetched++

		for _, link := range p.list(resp) {
			if maxArticles > 0 && len(links) >= maxArticles {
				break
			}
			if !dedup.Add(link) {
				continue
			}
			if o.robots != nil && !o.robots.Allowed(ctx, link) {
				o.logger.Debug("disallowed by robots.txt", "url", link)
				continue
			}
			links = append(links, link)
		}
	}

	if fetched == 0 {
		if lastErr == nil {
			return nil, types.ErrNoListings
		}
		return nil, errors.Join(types.ErrNoListings, lastErr)
	}
	return links, nil
}

func (o *Orchestrator) scrapeArticle(ctx context.Context, link string) (*types.Article, error) {
	resp, err := fetcher.Get(ctx, o.fetcher, link, o.ext.Name(), types.TagArticle)
	if err != nil {
		return nil, err
	}

	article, err := o.ext.ExtractArticle(resp)
	if err != nil {
		if o.metrics != nil {
			o.metrics.ExtractionErrors.Add(1)
		}
		return nil, err
	}

	article, err = o.pipeline.Process(article)
	if err != nil {
		return nil, err
	}
	if article != nil && o.metrics != nil {
		o.metrics.ArticlesScraped.Add(1)
	}
	return article, nil
}

func (o *Orchestrator) crawlDelay(ctx context.Context, link string) time.Duration {
	if o.robots == nil {
		return 0
	}
	return o.robots.CrawlDelay(ctx, link)
}

func (o *Orchestrator) startSession(ctx context.Context) *types.ScrapeSession {
	s := &types.ScrapeSession{
		ID:        uuid.NewString(),
		Source:    o.ext.Name(),
		StartTime: time.Now().UTC(),
		Status:    types.SessionRunning,
	}
	if o.sessions != nil {
		if err := o.sessions.StartSession(ctx, s); err != nil {
			o.logger.Warn("session not recorded", "error", err)
		}
	}
	return s
}

func (o *Orchestrator) finishSession(ctx context.Context, res *Result, runErr error) {
	s := res.Session
	end := time.Now().UTC()
	s.EndTime = &end
	s.ArticlesFound = len(res.Articles)
	s.Status = types.SessionCompleted
	if runErr != nil {
		s.Status = types.SessionFailed
		s.ErrorMessage = runErr.Error()
	}
	if o.sessions != nil {
		if err := o.sessions.FinishSession(context.WithoutCancel(ctx), s); err != nil {
			o.logger.Warn("session not closed", "error", err)
		}
	}
}
