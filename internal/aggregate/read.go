package aggregate

import (
	"context"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/store"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// GetArticles returns active articles matching f, newest first.
func (a *Aggregator) GetArticles(ctx context.Context, f store.Filter) ([]*types.Article, error) {
	return a.store.List(ctx, f)
}

// GetArticle returns the stored article for url.
func (a *Aggregator) GetArticle(ctx context.Context, url string) (*types.Article, error) {
	return a.store.GetByURL(ctx, url)
}

// Statistics returns corpus statistics.
func (a *Aggregator) Statistics(ctx context.Context) (*store.Statistics, error) {
	return a.store.Statistics(ctx)
}

// Sources returns the registered sources with their counters.
func (a *Aggregator) Sources(ctx context.Context) ([]types.Source, error) {
	return a.store.Sources(ctx)
}

// Sessions returns recent scrape sessions, optionally for one source.
func (a *Aggregator) Sessions(ctx context.Context, source string, limit int) ([]types.ScrapeSession, error) {
	return a.store.RecentSessions(ctx, source, limit)
}

// Sweep deactivates articles older than retention. A non-positive retention
// sweeps nothing.
func (a *Aggregator) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := a.store.Deactivate(ctx, a.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if a.metrics != nil {
		a.metrics.ArticlesSwept.Add(n)
	}
	return n, nil
}
