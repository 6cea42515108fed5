package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/textproc"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	article := &types.Article{Title: "  Hello   World  ", Author: " Jane "}

	result, err := p.Process(article)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Title != "Hello World" {
		t.Errorf("expected trimmed title, got %q", result.Title)
	}
	if result.Author != "Jane" {
		t.Errorf("expected trimmed author, got %q", result.Author)
	}
}

func TestRequiredTitleMiddleware(t *testing.T) {
	m := &RequiredTitleMiddleware{}

	result, err := m.Process(&types.Article{Title: "Hello", URL: "https://example.com/a"})
	if err != nil || result == nil {
		t.Error("article with title should pass")
	}

	result, _ = m.Process(&types.Article{Content: "no title", URL: "https://example.com/a"})
	if result != nil {
		t.Error("article without title should be dropped (nil)")
	}
}

func TestDateNormalizeMiddleware(t *testing.T) {
	m := NewDateNormalizeMiddleware("2006-01-02")

	tests := []struct {
		input    string
		expected string
	}{
		{"January 15, 2024", "2024-01-15"},
		{"2024-01-15", "2024-01-15"},
		{"2024-01-15T10:30:00Z", "2024-01-15"},
		{"01/15/2024", "2024-01-15"},
		{"15 minutes ago", "15 minutes ago"},
	}

	for _, tt := range tests {
		result, _ := m.Process(&types.Article{PublishedDate: tt.input})
		if result.PublishedDate != tt.expected {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.expected, result.PublishedDate)
		}
	}
}

// --- Enrichment Tests ---

func TestEnrichment(t *testing.T) {
	p := Enrichment("BBC News", testLogger)

	article := &types.Article{
		Title:   " Markets rally ",
		URL:     "https://www.bbc.com/news/business-12345678",
		Content: "Stocks saw strong gains. Investors were happy with the excellent results today.",
	}

	result, err := p.Process(article)
	if err != nil {
		t.Fatalf("enrichment error: %v", err)
	}
	if result.Source != "BBC News" {
		t.Errorf("expected source stamp, got %q", result.Source)
	}
	if want := textproc.ArticleID("Markets rally", article.URL); result.ID != want {
		t.Errorf("expected id %q, got %q", want, result.ID)
	}
	if result.WordCount != 12 {
		t.Errorf("expected 12 words, got %d", result.WordCount)
	}
	if result.SentimentScore != 1.0 {
		t.Errorf("expected sentiment 1.0, got %v", result.SentimentScore)
	}
	if result.Summary == "" {
		t.Error("expected a generated summary")
	}
	if result.Category != types.DefaultCategory {
		t.Errorf("expected default category, got %q", result.Category)
	}
	if result.ScrapedAt.IsZero() || !result.IsActive {
		t.Error("expected scraped_at and is_active to be set")
	}
}

func TestEnrichmentKeepsExtractedSummary(t *testing.T) {
	p := Enrichment("CNN", testLogger)

	result, err := p.Process(&types.Article{
		Title:    "Vote passes",
		URL:      "https://www.cnn.com/2025/01/02/politics/vote",
		Content:  "The vote passed late on Thursday night after a long debate.",
		Summary:  "Lead paragraph.",
		Category: "Politics",
	})
	if err != nil {
		t.Fatalf("enrichment error: %v", err)
	}
	if result.Summary != "Lead paragraph." {
		t.Errorf("extracted summary overwritten: %q", result.Summary)
	}
	if result.Category != "Politics" {
		t.Errorf("category overwritten: %q", result.Category)
	}
}

func TestEnrichmentScoresTitleOnlyArticle(t *testing.T) {
	p := Enrichment("Reuters", testLogger)

	result, err := p.Process(&types.Article{
		Title: "Devastating crash and war disaster",
		URL:   "https://www.reuters.com/world/crash-2025-01-02/",
	})
	if err != nil {
		t.Fatalf("enrichment error: %v", err)
	}
	if result.SentimentScore != -1.0 {
		t.Errorf("expected sentiment -1.0 from the title, got %v", result.SentimentScore)
	}
	if want := textproc.Analyze(result.Title, result.Content).Sentiment; result.SentimentScore != want {
		t.Errorf("stored sentiment %v differs from analysis %v", result.SentimentScore, want)
	}
}

func TestEnrichmentKeepsAngleBracketsInText(t *testing.T) {
	p := Enrichment("Reuters", testLogger)
	content := "Inflation fell to <2% in May while unemployment stayed >4% across the region."

	result, err := p.Process(&types.Article{
		Title:   "Inflation <b>falls</b>",
		URL:     "https://www.reuters.com/business/inflation-2025-06-01/",
		Content: content,
	})
	if err != nil {
		t.Fatalf("enrichment error: %v", err)
	}
	if result.Content != content {
		t.Errorf("content altered: %q", result.Content)
	}
	if result.Title != "Inflation <b>falls</b>" {
		t.Errorf("title altered: %q", result.Title)
	}
	if result.WordCount != 13 {
		t.Errorf("expected 13 words, got %d", result.WordCount)
	}
}

func TestSourceStampUsesClock(t *testing.T) {
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	m := &SourceStampMiddleware{Source: "Reuters", Now: func() time.Time { return fixed }}

	result, _ := m.Process(&types.Article{})
	if !result.ScrapedAt.Equal(fixed) {
		t.Errorf("expected %v, got %v", fixed, result.ScrapedAt)
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }

func (failingMiddleware) Process(*types.Article) (*types.Article, error) {
	return nil, errors.New("boom")
}

func TestPipelineErrorCarriesStage(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})
	p.Use(failingMiddleware{})

	_, err := p.Process(&types.Article{Title: "x", URL: "https://example.com/x"})
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "failing" || pe.URL != "https://example.com/x" {
		t.Errorf("unexpected error fields: %+v", pe)
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 middleware, got %d", p.Len())
	}
}
