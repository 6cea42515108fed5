package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/extract"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testBase = "https://news.example.com"

// fakeFetcher serves in-memory pages and fails configured URLs.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]int
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string]string), fail: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, req *types.Request) (*types.Response, error) {
	u := req.URLString()
	f.mu.Lock()
	f.calls = append(f.calls, u)
	f.mu.Unlock()

	if status, ok := f.fail[u]; ok {
		return nil, &types.FetchError{URL: u, StatusCode: status, Attempts: 3, Err: types.ErrMaxRetries, Retryable: true}
	}
	body, ok := f.pages[u]
	if !ok {
		return nil, &types.FetchError{URL: u, StatusCode: 404, Attempts: 1, Err: errors.New("not found")}
	}
	return types.NewHTMLResponse(u, []byte(body)), nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

type recordingSessions struct {
	started  []*types.ScrapeSession
	finished []types.ScrapeSession
}

func (r *recordingSessions) StartSession(_ context.Context, s *types.ScrapeSession) error {
	r.started = append(r.started, s)
	return nil
}

func (r *recordingSessions) FinishSession(_ context.Context, s *types.ScrapeSession) error {
	r.finished = append(r.finished, *s)
	return nil
}

func testExtractor(t *testing.T) extract.Extractor {
	t.Helper()
	profile := config.SiteProfile{
		LinkStrategies:    []config.Strategy{{Selector: "a"}},
		ArticlePatterns:   []string{`/story/\d+$`},
		TitleStrategies:   []config.Strategy{{Selector: "h1"}},
		ContentStrategies: []config.Strategy{{Selector: "article p"}},
	}
	ext, err := extract.New(config.SourceConfig{
		Name:     "Example",
		Kind:     config.KindGeneric,
		BaseURL:  testBase,
		Listings: []string{"/latest"},
		Profile:  &profile,
	}, testLogger)
	require.NoError(t, err)
	return ext
}

func storyURL(i int) string { return fmt.Sprintf("%s/story/%d", testBase, i) }

func listing(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<a href="/story/%d">Story %d</a>`, i, i)
	}
	b.WriteString(`<a href="/about">About</a></body></html>`)
	return b.String()
}

func story(i int) string {
	return fmt.Sprintf(`<html><body><h1>Story number %d</h1><article><p>Body of story %d with good news.</p></article></body></html>`, i, i)
}

func recordingThrottle(sleeps *[]time.Duration) *Throttle {
	return NewThrottle(time.Millisecond, 5*time.Millisecond).WithSleeper(func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	})
}

// --- Run Tests ---

func TestRunSkipsFailedArticles(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testBase+"/latest"] = listing(10)
	for i := 1; i <= 10; i++ {
		f.pages[storyURL(i)] = story(i)
	}
	f.fail[storyURL(3)] = 503
	f.fail[storyURL(7)] = 503

	var sleeps []time.Duration
	sessions := &recordingSessions{}
	metrics := observability.NewMetrics(testLogger)
	o := New(testExtractor(t), f, Options{
		Throttle: recordingThrottle(&sleeps),
		Sessions: sessions,
		Metrics:  metrics,
	}, testLogger)

	res, err := o.Run(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, StateDone, o.State())
	assert.Equal(t, 10, res.LinksFound)
	assert.Equal(t, 2, res.Failures)
	require.Len(t, res.Articles, 8)

	var urls []string
	for _, a := range res.Articles {
		urls = append(urls, a.URL)
		assert.Equal(t, "Example", a.Source)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, 1.0, a.SentimentScore)
	}
	assert.Equal(t, []string{
		storyURL(1), storyURL(2), storyURL(4), storyURL(5),
		storyURL(6), storyURL(8), storyURL(9), storyURL(10),
	}, urls)

	require.Len(t, sleeps, 10)
	for _, d := range sleeps {
		assert.GreaterOrEqual(t, d, time.Millisecond)
		assert.LessOrEqual(t, d, 5*time.Millisecond)
	}

	require.Len(t, sessions.finished, 1)
	assert.Equal(t, types.SessionCompleted, sessions.finished[0].Status)
	assert.Equal(t, 8, sessions.finished[0].ArticlesFound)
	assert.Equal(t, int64(8), metrics.ArticlesScraped.Load())
}

func TestRunRespectsMaxArticles(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testBase+"/latest"] = listing(10)
	for i := 1; i <= 10; i++ {
		f.pages[storyURL(i)] = story(i)
	}

	var sleeps []time.Duration
	o := New(testExtractor(t), f, Options{Throttle: recordingThrottle(&sleeps)}, testLogger)

	res, err := o.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, res.Articles, 3)
	assert.Len(t, f.calls, 4)
}

func TestRunCountsTitlelessPageAsFailure(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testBase+"/latest"] = listing(2)
	f.pages[storyURL(1)] = story(1)
	f.pages[storyURL(2)] = `<html><body><article><p>No headline at all.</p></article></body></html>`

	var sleeps []time.Duration
	metrics := observability.NewMetrics(testLogger)
	o := New(testExtractor(t), f, Options{Throttle: recordingThrottle(&sleeps), Metrics: metrics}, testLogger)

	res, err := o.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, res.Articles, 1)
	assert.Equal(t, 1, res.Failures)
	assert.Equal(t, int64(1), metrics.ExtractionErrors.Load())
}

func TestRunFailsWhenNoListingFetched(t *testing.T) {
	f := newFakeFetcher()
	f.fail[testBase+"/latest"] = 503

	var sleeps []time.Duration
	sessions := &recordingSessions{}
	o := New(testExtractor(t), f, Options{Throttle: recordingThrottle(&sleeps), Sessions: sessions}, testLogger)

	res, err := o.Run(context.Background(), 10)
	require.Error(t, err)
	assert.Empty(t, res.Articles)
	assert.Equal(t, StateFailed, o.State())

	var srcErr *types.SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "Example", srcErr.Source)
	assert.True(t, errors.Is(err, types.ErrNoListings))

	require.Len(t, sessions.finished, 1)
	assert.Equal(t, types.SessionFailed, sessions.finished[0].Status)
	assert.NotEmpty(t, sessions.finished[0].ErrorMessage)
}

func TestRunWithNoLinksIsNotAnError(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testBase+"/latest"] = `<html><body><a href="/about">About</a></body></html>`

	o := New(testExtractor(t), f, Options{}, testLogger)
	res, err := o.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Articles)
	assert.Equal(t, StateDone, o.State())
}

func TestRunHonorsRobots(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testBase+"/robots.txt"] = "User-agent: *\nDisallow: /story/2\nCrawl-delay: 2\n"
	f.pages[testBase+"/latest"] = listing(3)
	for i := 1; i <= 3; i++ {
		f.pages[storyURL(i)] = story(i)
	}

	var sleeps []time.Duration
	o := New(testExtractor(t), f, Options{
		Throttle: recordingThrottle(&sleeps),
		Robots:   NewRobotsGuard(f, testLogger),
	}, testLogger)

	res, err := o.Run(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, res.Articles, 2)
	assert.Equal(t, storyURL(1), res.Articles[0].URL)
	assert.Equal(t, storyURL(3), res.Articles[1].URL)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeps)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testBase+"/latest"] = listing(5)
	for i := 1; i <= 5; i++ {
		f.pages[storyURL(i)] = story(i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	throttle := NewThrottle(time.Millisecond, time.Millisecond).WithSleeper(func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return ctx.Err()
	})

	o := New(testExtractor(t), f, Options{Throttle: throttle}, testLogger)
	res, err := o.Run(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, res.Articles, 2)
}

// --- Throttle and Dedup Tests ---

func TestThrottleRange(t *testing.T) {
	th := NewThrottle(10*time.Millisecond, 20*time.Millisecond)
	for i := 0; i < 100; i++ {
		d := th.Next()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
	assert.Equal(t, 5*time.Millisecond, NewThrottle(5*time.Millisecond, time.Millisecond).Next())
}

func TestDeduplicatorCanonicalizes(t *testing.T) {
	d := NewDeduplicator(4)
	assert.True(t, d.Add("https://example.com/a?b=2&a=1"))
	assert.False(t, d.Add("HTTPS://EXAMPLE.com/a?a=1&b=2#top"))
	assert.True(t, d.Add("https://example.com/b"))
	assert.Equal(t, 2, d.Count())
}
