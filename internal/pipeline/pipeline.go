package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/textproc"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Middleware processes an article and returns the (possibly modified) article.
// Return nil to drop the article from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(article *types.Article) (*types.Article, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Enrichment returns the standard chain every scraped article goes through
// before it is persisted.
func Enrichment(source string, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(&RequiredTitleMiddleware{})
	p.Use(&SourceStampMiddleware{Source: source})
	p.Use(&IdentityMiddleware{})
	p.Use(NewDateNormalizeMiddleware(time.RFC3339))
	p.Use(&WordCountMiddleware{})
	p.Use(&SentimentMiddleware{})
	p.Use(&SummaryMiddleware{MaxSentences: textproc.DefaultSummarySentences, MaxLength: textproc.DefaultSummaryLength})
	p.Use(&DefaultCategoryMiddleware{Category: types.DefaultCategory})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order.
func (p *Pipeline) Process(article *types.Article) (*types.Article, error) {
	current := article

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				URL:   current.URL,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", article.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// TrimMiddleware collapses whitespace in every text field.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(a *types.Article) (*types.Article, error) {
	for _, field := range []*string{
		&a.Title, &a.Content, &a.Summary, &a.Author, &a.PublishedDate,
		&a.Category, &a.ImageURL, &a.URL,
	} {
		*field = strings.Join(strings.Fields(*field), " ")
	}
	return a, nil
}

// RequiredTitleMiddleware drops articles whose title is empty.
type RequiredTitleMiddleware struct{}

func (m *RequiredTitleMiddleware) Name() string { return "required_title" }

func (m *RequiredTitleMiddleware) Process(a *types.Article) (*types.Article, error) {
	if a.Title == "" || a.URL == "" {
		return nil, nil
	}
	return a, nil
}

// SourceStampMiddleware records which source produced the article and when.
type SourceStampMiddleware struct {
	Source string
	Now    func() time.Time
}

func (m *SourceStampMiddleware) Name() string { return "source_stamp" }

func (m *SourceStampMiddleware) Process(a *types.Article) (*types.Article, error) {
	if m.Source != "" {
		a.Source = m.Source
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	if a.ScrapedAt.IsZero() {
		a.ScrapedAt = now().UTC()
	}
	a.IsActive = true
	return a, nil
}

// IdentityMiddleware assigns the deterministic article id.
type IdentityMiddleware struct{}

func (m *IdentityMiddleware) Name() string { return "identity" }

func (m *IdentityMiddleware) Process(a *types.Article) (*types.Article, error) {
	a.ID = textproc.ArticleID(a.Title, a.URL)
	return a, nil
}

// DefaultCategoryMiddleware fills an empty category.
type DefaultCategoryMiddleware struct {
	Category string
}

func (m *DefaultCategoryMiddleware) Name() string { return "default_category" }

func (m *DefaultCategoryMiddleware) Process(a *types.Article) (*types.Article, error) {
	if a.Category == "" {
		a.Category = m.Category
	}
	return a, nil
}
