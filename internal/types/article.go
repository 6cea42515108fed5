package types

import (
	"time"
)

// DefaultCategory is the label used when no category can be determined.
const DefaultCategory = "General"

// Article is a normalized news article.
type Article struct {
	// ID is the hex MD5 of title + "_" + url.
	ID string `db:"id" json:"id" bson:"_id"`

	Title         string `db:"title"          json:"title"          bson:"title"`
	Content       string `db:"content"        json:"content"        bson:"content"`
	Summary       string `db:"summary"        json:"summary"        bson:"summary"`
	Author        string `db:"author"         json:"author"         bson:"author"`
	PublishedDate string `db:"published_date" json:"published_date" bson:"published_date"`

	// URL is the canonical article URL and the deduplication key.
	URL string `db:"url" json:"url" bson:"url"`

	Source         string  `db:"source"          json:"source"          bson:"source"`
	Category       string  `db:"category"        json:"category"        bson:"category"`
	ImageURL       string  `db:"image_url"       json:"image_url"       bson:"image_url"`
	WordCount      int     `db:"word_count"      json:"word_count"      bson:"word_count"`
	SentimentScore float64 `db:"sentiment_score" json:"sentiment_score" bson:"sentiment_score"`

	ScrapedAt time.Time `db:"scraped_at" json:"scraped_at" bson:"scraped_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at" bson:"created_at"`
	IsActive  bool      `db:"is_active"  json:"is_active"  bson:"is_active"`
}

// Text returns the text used for duplicate detection: content, or the title
// when the page had no body.
func (a *Article) Text() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Title
}

// Source is a configured news site and its running counters.
type Source struct {
	Name          string     `db:"name"           json:"name"`
	BaseURL       string     `db:"base_url"       json:"base_url"`
	LastScraped   *time.Time `db:"last_scraped"   json:"last_scraped,omitempty"`
	TotalArticles int        `db:"total_articles" json:"total_articles"`
	ArticlesToday int        `db:"articles_today" json:"articles_today"`
	IsActive      bool       `db:"is_active"      json:"is_active"`
}

// SessionStatus is the lifecycle status of a ScrapeSession.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// ScrapeSession is one audit record of an orchestration run.
type ScrapeSession struct {
	ID            string        `db:"id"             json:"id"`
	Source        string        `db:"source"         json:"source"`
	StartTime     time.Time     `db:"start_time"     json:"start_time"`
	EndTime       *time.Time    `db:"end_time"       json:"end_time,omitempty"`
	ArticlesFound int           `db:"articles_found" json:"articles_found"`
	ArticlesSaved int           `db:"articles_saved" json:"articles_saved"`
	Status        SessionStatus `db:"status"         json:"status"`
	ErrorMessage  string        `db:"error_message"  json:"error_message,omitempty"`
}

// Duration returns how long the session ran, or zero while it is running.
func (s *ScrapeSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Category is a display category seeded into the store.
type Category struct {
	Name        string `db:"name"         json:"name"`
	DisplayName string `db:"display_name" json:"display_name"`
	Description string `db:"description"  json:"description"`
	Color       string `db:"color"        json:"color"`
}
