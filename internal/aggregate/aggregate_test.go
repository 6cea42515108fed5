package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/scrape"
	"github.com/IshaanNene/NewsGoat/internal/store"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	fail   map[string]bool
	panics map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, fail: map[string]bool{}, panics: map[string]bool{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, req *types.Request) (*types.Response, error) {
	u := req.URLString()
	f.mu.Lock()
	body, ok := f.pages[u]
	fail, boom := f.fail[u], f.panics[u]
	f.mu.Unlock()

	if boom {
		panic("parser exploded on " + u)
	}
	if fail {
		return nil, &types.FetchError{URL: u, StatusCode: 503, Attempts: 3, Err: types.ErrMaxRetries, Retryable: true}
	}
	if !ok {
		return nil, &types.FetchError{URL: u, StatusCode: 404, Attempts: 1, Err: errors.New("not found")}
	}
	return types.NewHTMLResponse(u, []byte(body)), nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

type recordingExporter struct {
	mu       sync.Mutex
	articles []*types.Article
}

func (r *recordingExporter) Name() string { return "recording" }
func (r *recordingExporter) Close() error { return nil }
func (r *recordingExporter) Export(_ context.Context, articles []*types.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles = append(r.articles, articles...)
	return nil
}

func source(name string) config.SourceConfig {
	profile := config.SiteProfile{
		LinkStrategies:    []config.Strategy{{Selector: "a"}},
		ArticlePatterns:   []string{`/story/\d+$`},
		TitleStrategies:   []config.Strategy{{Selector: "h1"}},
		ContentStrategies: []config.Strategy{{Selector: "article p"}},
		DefaultCategory:   "World",
	}
	return config.SourceConfig{
		Name:     name,
		Kind:     config.KindGeneric,
		BaseURL:  "https://" + strings.ToLower(name) + ".example.com",
		Enabled:  true,
		Listings: []string{"/latest"},
		Profile:  &profile,
	}
}

// serve publishes n stories for src. Story bodies only depend on the story
// number, so the same number on two sources has the same content.
func serve(f *fakeFetcher, src config.SourceConfig, n int) {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<a href="/story/%d">Story %d</a>`, i, i)
		f.pages[fmt.Sprintf("%s/story/%d", src.BaseURL, i)] = fmt.Sprintf(
			`<html><body><h1>%s story %d</h1><article><p>Shared wire copy for story number %d.</p></article></body></html>`,
			src.Name, i, i)
	}
	f.pages[src.BaseURL+"/latest"] = "<html><body>" + b.String() + "</body></html>"
}

type fixture struct {
	agg      *Aggregator
	store    *store.Store
	fetcher  *fakeFetcher
	exporter *recordingExporter
	metrics  *observability.Metrics
	sources  []config.SourceConfig
	dsn      string
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "news.db") + "?_pragma=busy_timeout(5000)"
	st, err := store.Open(ctx, config.DatabaseConfig{
		Driver:       store.DriverSQLite,
		DSN:          dsn,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	}, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.Scraper.RespectRobots = false
	cfg.Sources = nil
	for _, name := range names {
		cfg.Sources = append(cfg.Sources, source(name))
	}

	fx := &fixture{
		store:    st,
		fetcher:  newFakeFetcher(),
		exporter: &recordingExporter{},
		metrics:  observability.NewMetrics(testLogger),
		sources:  cfg.Sources,
		dsn:      dsn,
	}
	fx.agg, err = New(ctx, cfg, Options{
		Fetcher:  fx.fetcher,
		Store:    st,
		Exporter: fx.exporter,
		Metrics:  fx.metrics,
		Throttle: func(config.SourceConfig) *scrape.Throttle { return scrape.NewThrottle(0, 0) },
	}, testLogger)
	require.NoError(t, err)
	return fx
}

// --- Cycle Tests ---

func TestRunCycleIsolatesFailingSource(t *testing.T) {
	fx := newFixture(t, "Alpha", "Beta", "Gamma")
	serve(fx.fetcher, fx.sources[0], 3)
	serve(fx.fetcher, fx.sources[1], 3)
	fx.fetcher.fail[fx.sources[2].BaseURL+"/latest"] = true

	res, err := fx.agg.RunCycle(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Processed)
	assert.Equal(t, 6, res.New)
	assert.Equal(t, 1, res.Failed())
	require.Len(t, res.Sources, 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"},
		[]string{res.Sources[0].Source, res.Sources[1].Source, res.Sources[2].Source})

	gamma := res.Sources[2]
	assert.Zero(t, gamma.Scraped)
	var srcErr *types.SourceError
	require.True(t, errors.As(gamma.Err, &srcErr))
	assert.Equal(t, "Gamma", srcErr.Source)

	st, err := fx.agg.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, map[string]int{"Alpha": 3, "Beta": 3}, st.BySource)

	sessions, err := fx.agg.Sessions(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	bySource := map[string]types.ScrapeSession{}
	for _, s := range sessions {
		bySource[s.Source] = s
	}
	assert.Equal(t, types.SessionFailed, bySource["Gamma"].Status)
	assert.Equal(t, types.SessionCompleted, bySource["Alpha"].Status)
	assert.Equal(t, 3, bySource["Alpha"].ArticlesSaved)

	assert.Equal(t, int64(1), fx.metrics.SourcesFailed.Load())
	assert.Equal(t, int32(0), fx.metrics.ActiveSources.Load())
}

func TestRunCycleDeduplicatesAcrossCycles(t *testing.T) {
	fx := newFixture(t, "Alpha", "Beta")
	serve(fx.fetcher, fx.sources[0], 3)
	serve(fx.fetcher, fx.sources[1], 2)

	first, err := fx.agg.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 5, first.New)

	second, err := fx.agg.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Processed)
	assert.Zero(t, second.New)

	assert.Len(t, fx.exporter.articles, 5)
	assert.Equal(t, int64(5), fx.metrics.ArticlesStored.Load())
	assert.Equal(t, int64(5), fx.metrics.ArticlesDuplicate.Load())

	sources, err := fx.agg.Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Alpha", sources[0].Name)
	assert.Equal(t, 3, sources[0].TotalArticles)
	assert.NotNil(t, sources[0].LastScraped)
}

func TestRunCycleReportsContentDuplicates(t *testing.T) {
	fx := newFixture(t, "Alpha", "Beta")
	serve(fx.fetcher, fx.sources[0], 2)
	serve(fx.fetcher, fx.sources[1], 2)

	res, err := fx.agg.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 4, res.New)
	require.Len(t, res.Duplicates, 2)
	assert.Equal(t, 0, res.Duplicates[0].First)
	assert.Equal(t, 2, res.Duplicates[0].Duplicate)
}

func TestRunCycleRecoversPanickingSource(t *testing.T) {
	fx := newFixture(t, "Alpha", "Beta")
	serve(fx.fetcher, fx.sources[0], 2)
	fx.fetcher.panics[fx.sources[1].BaseURL+"/latest"] = true

	res, err := fx.agg.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.New)
	assert.Equal(t, 1, res.Failed())
	assert.Contains(t, res.Sources[1].Err.Error(), "parser exploded")
}

func TestRunCyclePersistsPastStoreFailure(t *testing.T) {
	fx := newFixture(t, "Alpha", "Beta")
	serve(fx.fetcher, fx.sources[0], 2)
	serve(fx.fetcher, fx.sources[1], 3)

	db, err := sqlx.Open("sqlite", fx.dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TRIGGER reject_alpha BEFORE INSERT ON articles
		WHEN NEW.source = 'Alpha' BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)

	res, err := fx.agg.RunCycle(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Alpha")
	require.NotNil(t, res)
	require.Len(t, res.Sources, 2)
	assert.Zero(t, res.Sources[0].New)
	assert.Equal(t, 3, res.Sources[1].New)
	assert.Equal(t, 3, res.New)
	assert.Len(t, fx.exporter.articles, 3)

	sessions, err := fx.agg.Sessions(context.Background(), "", 10)
	require.NoError(t, err)
	bySource := map[string]types.ScrapeSession{}
	for _, s := range sessions {
		bySource[s.Source] = s
	}
	assert.Equal(t, types.SessionFailed, bySource["Alpha"].Status)
	assert.Contains(t, bySource["Alpha"].ErrorMessage, "disk full")
	assert.Equal(t, types.SessionCompleted, bySource["Beta"].Status)
	assert.Equal(t, 3, bySource["Beta"].ArticlesSaved)

	beta, err := fx.store.Source(context.Background(), "Beta")
	require.NoError(t, err)
	assert.Equal(t, 3, beta.TotalArticles)
	assert.Equal(t, int64(1), fx.metrics.CyclesFailed.Load())
}

func TestRunCycleWithoutSources(t *testing.T) {
	fx := newFixture(t, "Alpha")
	fx.agg.cfg.Sources[0].Enabled = false

	_, err := fx.agg.RunCycle(context.Background(), 10)
	assert.ErrorIs(t, err, types.ErrNoSources)
	assert.Equal(t, int64(1), fx.metrics.CyclesFailed.Load())
}

func TestRunCycleZeroArticlesIsSuccess(t *testing.T) {
	fx := newFixture(t, "Alpha")
	fx.fetcher.pages[fx.sources[0].BaseURL+"/latest"] = `<html><body><a href="/about">About</a></body></html>`

	res, err := fx.agg.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
	assert.Zero(t, res.New)
	assert.Zero(t, res.Failed())
}

// --- Source and Read Tests ---

func TestRunSource(t *testing.T) {
	fx := newFixture(t, "Alpha", "Beta")
	serve(fx.fetcher, fx.sources[0], 4)

	articles, err := fx.agg.RunSource(context.Background(), "alpha", 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Alpha", articles[0].Source)

	stored, err := fx.agg.GetArticle(context.Background(), articles[0].URL)
	require.NoError(t, err)
	assert.Equal(t, articles[0].ID, stored.ID)
	assert.Len(t, fx.exporter.articles, 2)

	_, err = fx.agg.RunSource(context.Background(), "Delta", 2)
	assert.ErrorIs(t, err, types.ErrUnknownSource)
}

func TestGetArticlesAndSweep(t *testing.T) {
	fx := newFixture(t, "Alpha")
	serve(fx.fetcher, fx.sources[0], 3)

	_, err := fx.agg.RunCycle(context.Background(), 10)
	require.NoError(t, err)

	list, err := fx.agg.GetArticles(context.Background(), store.Filter{Keywords: []string{"story 2"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alpha story 2", list[0].Title)

	n, err := fx.agg.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	fx.agg.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	n, err = fx.agg.Sweep(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, int64(3), fx.metrics.ArticlesSwept.Load())

	list, err = fx.agg.GetArticles(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
