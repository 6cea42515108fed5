package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

const (
	// MaxSummaryLength caps the extracted summary in runes.
	MaxSummaryLength = 500

	// fallbackParagraphLength is the minimum length of a bare <p> used when
	// no content strategy matched.
	fallbackParagraphLength = 30

	maxAuthorLength = 120
)

// Generic is a fully profile-driven extractor. The built-in site variants
// embed it and adjust its output.
type Generic struct {
	name     string
	baseURL  *url.URL
	listings []string
	feeds    []string
	profile  config.SiteProfile
	links    *linkFilter
	logger   *slog.Logger
}

// NewGeneric creates an extractor for src driven entirely by profile.
func NewGeneric(src config.SourceConfig, profile config.SiteProfile, logger *slog.Logger) (*Generic, error) {
	base, err := url.Parse(src.BaseURL)
	if err != nil || base.Host == "" {
		return nil, &types.SourceError{Source: src.Name, Err: fmt.Errorf("%w: %q", types.ErrInvalidURL, src.BaseURL)}
	}
	links, err := newLinkFilter(profile)
	if err != nil {
		return nil, &types.SourceError{Source: src.Name, Err: fmt.Errorf("article pattern: %w", err)}
	}

	g := &Generic{
		name:    src.Name,
		baseURL: base,
		profile: profile,
		links:   links,
		logger:  logger.With("component", "extractor", "source", src.Name),
	}
	for _, l := range src.Listings {
		if abs := resolve(base, l); abs != "" {
			g.listings = append(g.listings, abs)
		}
	}
	for _, f := range src.Feeds {
		if abs := resolve(base, f); abs != "" {
			g.feeds = append(g.feeds, abs)
		}
	}
	return g, nil
}

// Name implements Extractor.
func (g *Generic) Name() string { return g.name }

// ListingURLs implements Extractor.
func (g *Generic) ListingURLs() []string { return g.listings }

// FeedURLs implements Extractor.
func (g *Generic) FeedURLs() []string { return g.feeds }

// Profile returns the extraction profile in use.
func (g *Generic) Profile() config.SiteProfile { return g.profile }

func (g *Generic) maxLinks() int {
	if g.profile.MaxLinks > 0 {
		return g.profile.MaxLinks
	}
	return DefaultMaxLinks
}

// ListCandidateLinks implements Extractor. Every link strategy contributes;
// results are unioned in strategy order, deduplicated and capped.
func (g *Generic) ListCandidateLinks(page *types.Response) []string {
	d, err := openDocument(page, g.logger)
	if err != nil {
		g.logger.Warn("listing page unparseable", "url", page.URL(), "error", err)
		return nil
	}

	var hrefs []string
	for _, s := range g.profile.LinkStrategies {
		if s.Attribute == "" {
			s.Attribute = "href"
		}
		hrefs = append(hrefs, d.values(s)...)
	}
	links := filterLinks(g.links, d.pageURL, hrefs, g.maxLinks())
	g.logger.Debug("candidate links", "url", page.URL(), "anchors", len(hrefs), "links", len(links))
	return links
}

// FeedLinks implements Extractor.
func (g *Generic) FeedLinks(page *types.Response) []string {
	raw, err := feedLinks(page.Body)
	if err != nil {
		g.logger.Warn("feed unparseable", "url", page.URL(), "error", err)
		return nil
	}
	base, err := url.Parse(page.URL())
	if err != nil || base.Host == "" {
		g.logger.Warn("feed url unusable, resolving links against base url", "url", page.URL(), "error", err)
		base = g.baseURL
	}
	return filterLinks(g.links, base, raw, g.maxLinks())
}

// ExtractArticle implements Extractor.
func (g *Generic) ExtractArticle(page *types.Response) (*types.Article, error) {
	d, err := openDocument(page, g.logger)
	if err != nil {
		return nil, &types.ExtractionError{URL: page.URL(), Source: g.name, Err: err}
	}

	title := g.title(d)
	if title == "" {
		return nil, &types.ExtractionError{URL: page.URL(), Source: g.name, Field: "title", Err: types.ErrNoTitle}
	}

	sd := readStructured(d.doc)
	paragraphs := g.paragraphs(d)
	content := strings.Join(paragraphs, " ")
	if content == "" && g.profile.ReadabilityFallback {
		content = readableText(page.Body, d.pageURL)
	}
	if content == "" {
		g.logger.Debug("article has title only", "url", page.URL())
	}

	return &types.Article{
		Title:         title,
		Content:       content,
		Summary:       g.summary(d, sd, paragraphs),
		Author:        g.author(d, sd),
		PublishedDate: g.publishedDate(d, sd),
		URL:           CanonicalizeURL(page.URL()),
		Source:        g.name,
		Category:      g.category(d),
		ImageURL:      g.image(d, sd),
		IsActive:      true,
	}, nil
}

// title returns the first title longer than MinTitleLength, or failing that
// the first non-empty one.
func (g *Generic) title(d *document) string {
	var fallback string
	t := d.first(g.profile.TitleStrategies, func(v string) bool {
		if fallback == "" {
			fallback = v
		}
		return utf8.RuneCountInString(v) > g.profile.MinTitleLength
	})
	if t == "" {
		return fallback
	}
	return t
}

func (g *Generic) paragraphs(d *document) []string {
	min := g.profile.MinParagraphLength
	long := func(v string) bool { return utf8.RuneCountInString(v) > min }

	if seq := g.profile.ParagraphSequence; seq != "" {
		var out []string
		for i := 0; i < g.profile.ParagraphSequenceMax; i++ {
			sel := d.doc.Find(fmt.Sprintf(seq, i)).First()
			if sel.Length() == 0 {
				break
			}
			if text := squash(sel.Text()); long(text) {
				out = append(out, text)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	for _, s := range g.profile.ContentStrategies {
		var out []string
		for _, v := range d.values(s) {
			if long(v) {
				out = append(out, v)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	var out []string
	for _, v := range d.values(config.Strategy{Selector: "p"}) {
		if utf8.RuneCountInString(v) > fallbackParagraphLength && !g.boilerplate(v) {
			out = append(out, v)
		}
	}
	return out
}

func (g *Generic) boilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range g.profile.BoilerplatePhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

func (g *Generic) summary(d *document, sd *structuredData, paragraphs []string) string {
	var s string
	switch {
	case len(paragraphs) > 0:
		s = paragraphs[0]
	case d.meta("description") != "":
		s = d.meta("description")
	case sd.og["description"] != "":
		s = sd.og["description"]
	default:
		s = sd.field("description")
	}
	return clip(squash(s), MaxSummaryLength)
}

func (g *Generic) author(d *document, sd *structuredData) string {
	a := d.first(g.profile.AuthorStrategies, func(v string) bool {
		return g.cleanAuthor(v) != ""
	})
	if a != "" {
		return g.cleanAuthor(a)
	}
	return g.cleanAuthor(sd.field("author"))
}

func (g *Generic) cleanAuthor(v string) string {
	v = squash(v)
	if len(v) >= 3 && strings.EqualFold(v[:3], "by ") {
		v = strings.TrimSpace(v[3:])
	}
	lower := strings.ToLower(v)
	for _, prefix := range g.profile.AuthorSkipPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return ""
		}
	}
	if utf8.RuneCountInString(v) > maxAuthorLength {
		return ""
	}
	return v
}

func (g *Generic) publishedDate(d *document, sd *structuredData) string {
	if v := d.first(g.profile.DateStrategies, nil); v != "" {
		return v
	}
	if v := squash(d.meta("article:published_time")); v != "" {
		return v
	}
	return sd.field("datePublished")
}

func (g *Generic) image(d *document, sd *structuredData) string {
	accept := func(v string) bool {
		abs := resolve(d.pageURL, v)
		return abs != "" && g.imageHostAllowed(abs)
	}
	if v := d.first(g.profile.ImageStrategies, accept); v != "" {
		return resolve(d.pageURL, v)
	}
	for _, v := range []string{sd.og["image"], sd.field("image")} {
		if v != "" && accept(v) {
			return resolve(d.pageURL, v)
		}
	}
	return ""
}

func (g *Generic) imageHostAllowed(src string) bool {
	if len(g.profile.ImageHostHints) == 0 {
		return true
	}
	for _, hint := range g.profile.ImageHostHints {
		if strings.Contains(src, hint) {
			return true
		}
	}
	return false
}

// category maps URL keywords to a category, then falls back to breadcrumb
// text and finally the profile default.
func (g *Generic) category(d *document) string {
	path := strings.ToLower(d.pageURL.Path)
	for _, rule := range g.profile.CategoryRules {
		if strings.Contains(path, strings.ToLower(rule.Match)) {
			return rule.Category
		}
	}

	skip := make(map[string]bool, len(g.profile.BreadcrumbSkip))
	for _, s := range g.profile.BreadcrumbSkip {
		skip[strings.ToLower(s)] = true
	}
	crumb := d.first(g.profile.BreadcrumbStrategies, func(v string) bool {
		return !skip[strings.ToLower(v)]
	})
	if crumb != "" {
		return cases.Title(language.English).String(crumb)
	}

	if g.profile.DefaultCategory != "" {
		return g.profile.DefaultCategory
	}
	return types.DefaultCategory
}

// clip cuts s to at most max runes.
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
