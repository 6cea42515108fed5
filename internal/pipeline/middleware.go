package pipeline

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/IshaanNene/NewsGoat/internal/textproc"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// --- Date Middleware ---

// DateNormalizeMiddleware rewrites parseable publication dates in one
// format. Known layouts are tried first, then dateparse's format guessing.
// Unparseable values are kept as scraped.
type DateNormalizeMiddleware struct {
	outFormat string
	inFormats []string
}

func NewDateNormalizeMiddleware(outFormat string) *DateNormalizeMiddleware {
	if outFormat == "" {
		outFormat = time.RFC3339
	}
	return &DateNormalizeMiddleware{
		outFormat: outFormat,
		inFormats: []string{
			time.RFC3339,
			time.RFC1123,
			time.RFC1123Z,
			time.RFC822,
			time.RFC822Z,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"January 2, 2006",
			"Jan 2, 2006",
			"2 January 2006",
			"2 Jan 2006",
			"Mon, 02 Jan 2006",
			"02-Jan-2006",
			"2006/01/02",
			"Mon Jan 2 15:04:05 2006",
		},
	}
}

func (m *DateNormalizeMiddleware) Name() string { return "date_normalize" }

func (m *DateNormalizeMiddleware) Process(a *types.Article) (*types.Article, error) {
	s := strings.TrimSpace(a.PublishedDate)
	if s == "" {
		return a, nil
	}
	for _, format := range m.inFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			a.PublishedDate = t.UTC().Format(m.outFormat)
			return a, nil
		}
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		a.PublishedDate = t.UTC().Format(m.outFormat)
	}
	return a, nil
}

// --- Analysis Middleware ---

// WordCountMiddleware counts whitespace-separated words of the content.
type WordCountMiddleware struct{}

func (m *WordCountMiddleware) Name() string { return "word_count" }

func (m *WordCountMiddleware) Process(a *types.Article) (*types.Article, error) {
	a.WordCount = textproc.WordCount(a.Content)
	return a, nil
}

// SentimentMiddleware scores title and content together with the sentiment
// lexicon, matching textproc.Analyze.
type SentimentMiddleware struct{}

func (m *SentimentMiddleware) Name() string { return "sentiment" }

func (m *SentimentMiddleware) Process(a *types.Article) (*types.Article, error) {
	a.SentimentScore = textproc.Sentiment(a.Title + " " + a.Content)
	return a, nil
}

// SummaryMiddleware builds an extractive summary when the extractor found none.
type SummaryMiddleware struct {
	MaxSentences int
	MaxLength    int
}

func (m *SummaryMiddleware) Name() string { return "summary" }

func (m *SummaryMiddleware) Process(a *types.Article) (*types.Article, error) {
	if a.Summary == "" && a.Content != "" {
		a.Summary = textproc.Summarize(a.Content, m.MaxSentences, m.MaxLength)
	}
	return a, nil
}
