package scrape

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// RobotsAgent is the user agent token matched against robots.txt groups.
const RobotsAgent = "NewsGoat"

// RobotsGuard fetches, caches and enforces robots.txt per host.
type RobotsGuard struct {
	fetcher fetcher.Fetcher
	agent   string
	cache   map[string]*robotstxt.Group
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewRobotsGuard creates a RobotsGuard that loads robots.txt through f.
func NewRobotsGuard(f fetcher.Fetcher, logger *slog.Logger) *RobotsGuard {
	return &RobotsGuard{
		fetcher: f,
		agent:   RobotsAgent,
		cache:   make(map[string]*robotstxt.Group),
		logger:  logger.With("component", "robots"),
	}
}

// Allowed reports whether rawURL may be fetched. A robots.txt that cannot be
// fetched allows everything.
func (g *RobotsGuard) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	group := g.group(ctx, u)
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(path)
}

// CrawlDelay returns the Crawl-delay robots.txt sets for rawURL's host.
func (g *RobotsGuard) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	if group := g.group(ctx, u); group != nil {
		return group.CrawlDelay
	}
	return 0
}

func (g *RobotsGuard) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	origin := u.Scheme + "://" + u.Host

	g.mu.RLock()
	group, ok := g.cache[origin]
	g.mu.RUnlock()
	if ok {
		return group
	}

	group = g.load(ctx, origin)
	if ctx.Err() != nil {
		return group
	}

	g.mu.Lock()
	g.cache[origin] = group
	g.mu.Unlock()
	return group
}

func (g *RobotsGuard) load(ctx context.Context, origin string) *robotstxt.Group {
	resp, err := fetcher.Get(ctx, g.fetcher, origin+"/robots.txt", "", "robots")
	status := 0
	var body []byte
	if err != nil {
		var fe *types.FetchError
		if !errors.As(err, &fe) || fe.StatusCode < 400 || fe.StatusCode >= 500 {
			g.logger.Debug("robots.txt unavailable, allowing all", "origin", origin, "error", err)
			return nil
		}
		status = fe.StatusCode
	} else {
		status, body = resp.StatusCode, resp.Body
	}

	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		g.logger.Debug("robots.txt unparseable, allowing all", "origin", origin, "error", err)
		return nil
	}
	return data.FindGroup(g.agent)
}
