package config

import (
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Source kinds with built-in extraction profiles.
const (
	KindGeneric = "generic"
	KindBBC     = "bbc"
	KindCNN     = "cnn"
	KindReuters = "reuters"
)

// Config is the root configuration for NewsGoat.
type Config struct {
	Scraper  ScraperConfig  `mapstructure:"scraper"  yaml:"scraper"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Sources  []SourceConfig `mapstructure:"sources"  yaml:"sources"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Export   ExportConfig   `mapstructure:"export"   yaml:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// ScraperConfig controls orchestration and aggregation.
type ScraperConfig struct {
	MaxArticlesPerSource int           `mapstructure:"max_articles_per_source" yaml:"max_articles_per_source"`
	Workers              int           `mapstructure:"workers"                 yaml:"workers"`
	DelayMin             time.Duration `mapstructure:"delay_min"               yaml:"delay_min"`
	DelayMax             time.Duration `mapstructure:"delay_max"               yaml:"delay_max"`
	RespectRobots        bool          `mapstructure:"respect_robots"          yaml:"respect_robots"`
}

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	RequestTimeout    time.Duration `mapstructure:"request_timeout"     yaml:"request_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"         yaml:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"         yaml:"retry_delay"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MaxRedirects      int           `mapstructure:"max_redirects"       yaml:"max_redirects"`
	MaxBodySize       int64         `mapstructure:"max_body_size"       yaml:"max_body_size"`
	TLSInsecure       bool          `mapstructure:"tls_insecure"        yaml:"tls_insecure"`
	IdleConnTimeout   time.Duration `mapstructure:"idle_conn_timeout"   yaml:"idle_conn_timeout"`
	MaxIdleConns      int           `mapstructure:"max_idle_conns"      yaml:"max_idle_conns"`
	UserAgents        []string      `mapstructure:"user_agents"         yaml:"user_agents"`
}

// SourceConfig describes one news source.
type SourceConfig struct {
	Name    string `mapstructure:"name"     yaml:"name"`
	Kind    string `mapstructure:"kind"     yaml:"kind"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Enabled bool   `mapstructure:"enabled"  yaml:"enabled"`

	// Listings are section paths (relative to BaseURL) or absolute URLs.
	Listings []string `mapstructure:"listings" yaml:"listings"`

	// Feeds are RSS or Atom URLs used as extra listing pages.
	Feeds []string `mapstructure:"feeds" yaml:"feeds,omitempty"`

	// DelayMin and DelayMax override the scraper politeness range when set.
	DelayMin time.Duration `mapstructure:"delay_min" yaml:"delay_min,omitempty"`
	DelayMax time.Duration `mapstructure:"delay_max" yaml:"delay_max,omitempty"`

	// Profile replaces the built-in extraction profile. Required for generic sources.
	Profile *SiteProfile `mapstructure:"profile" yaml:"profile,omitempty"`
}

// Strategy locates one element of a page.
type Strategy struct {
	Kind      string `mapstructure:"kind"      yaml:"kind,omitempty"` // css (default), xpath, meta
	Selector  string `mapstructure:"selector"  yaml:"selector"`
	Attribute string `mapstructure:"attribute" yaml:"attribute,omitempty"`
}

// CategoryRule maps a URL path fragment to a category label.
type CategoryRule struct {
	Match    string `mapstructure:"match"    yaml:"match"`
	Category string `mapstructure:"category" yaml:"category"`
}

// SiteProfile is the data-driven extraction recipe for a site. Every
// strategy list is an ordered fallback chain.
type SiteProfile struct {
	LinkStrategies   []Strategy `mapstructure:"link_strategies"   yaml:"link_strategies"`
	ExcludeFragments []string   `mapstructure:"exclude_fragments" yaml:"exclude_fragments"`
	ArticlePatterns  []string   `mapstructure:"article_patterns"  yaml:"article_patterns"`
	RequireHost      string     `mapstructure:"require_host"      yaml:"require_host,omitempty"`
	MinPathSegments  int        `mapstructure:"min_path_segments" yaml:"min_path_segments,omitempty"`
	MaxLinks         int        `mapstructure:"max_links"         yaml:"max_links"`

	TitleStrategies []Strategy `mapstructure:"title_strategies" yaml:"title_strategies"`
	MinTitleLength  int        `mapstructure:"min_title_length" yaml:"min_title_length"`

	// ParagraphSequence is a selector with one %d verb, tried for 0..ParagraphSequenceMax-1.
	ParagraphSequence    string     `mapstructure:"paragraph_sequence"     yaml:"paragraph_sequence,omitempty"`
	ParagraphSequenceMax int        `mapstructure:"paragraph_sequence_max" yaml:"paragraph_sequence_max,omitempty"`
	ContentStrategies    []Strategy `mapstructure:"content_strategies"     yaml:"content_strategies"`
	MinParagraphLength   int        `mapstructure:"min_paragraph_length"   yaml:"min_paragraph_length"`
	BoilerplatePhrases   []string   `mapstructure:"boilerplate_phrases"    yaml:"boilerplate_phrases,omitempty"`
	ReadabilityFallback  bool       `mapstructure:"readability_fallback"   yaml:"readability_fallback"`

	AuthorStrategies   []Strategy `mapstructure:"author_strategies"    yaml:"author_strategies"`
	AuthorSkipPrefixes []string   `mapstructure:"author_skip_prefixes" yaml:"author_skip_prefixes,omitempty"`
	DateStrategies     []Strategy `mapstructure:"date_strategies"      yaml:"date_strategies"`
	ImageStrategies    []Strategy `mapstructure:"image_strategies"     yaml:"image_strategies"`
	ImageHostHints     []string   `mapstructure:"image_host_hints"     yaml:"image_host_hints,omitempty"`

	CategoryRules        []CategoryRule `mapstructure:"category_rules"        yaml:"category_rules"`
	BreadcrumbStrategies []Strategy     `mapstructure:"breadcrumb_strategies" yaml:"breadcrumb_strategies,omitempty"`
	BreadcrumbSkip       []string       `mapstructure:"breadcrumb_skip"       yaml:"breadcrumb_skip,omitempty"`
	DefaultCategory      string         `mapstructure:"default_category"      yaml:"default_category"`
}

// DatabaseConfig controls the relational store.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"            yaml:"driver"` // sqlite, postgres
	DSN             string        `mapstructure:"dsn"               yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"      yaml:"auto_migrate"`
}

// ScheduleConfig controls the background scheduler.
type ScheduleConfig struct {
	Interval       time.Duration `mapstructure:"interval"        yaml:"interval"`
	RunOnStart     bool          `mapstructure:"run_on_start"    yaml:"run_on_start"`
	RetentionDays  int           `mapstructure:"retention_days"  yaml:"retention_days"`
	RetentionEvery string        `mapstructure:"retention_every" yaml:"retention_every"`
}

// ExportConfig controls optional sinks for newly inserted articles.
type ExportConfig struct {
	Types           []string `mapstructure:"types"            yaml:"types"` // jsonl, csv, mongodb
	OutputDir       string   `mapstructure:"output_dir"       yaml:"output_dir"`
	MongoURI        string   `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string   `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string   `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			MaxArticlesPerSource: 20,
			Workers:              3,
			DelayMin:             1 * time.Second,
			DelayMax:             3 * time.Second,
			RespectRobots:        true,
		},
		Fetcher: FetcherConfig{
			RequestTimeout:    15 * time.Second,
			MaxRetries:        3,
			RetryDelay:        2 * time.Second,
			RequestsPerSecond: 2,
			MaxRedirects:      10,
			MaxBodySize:       10 * 1024 * 1024, // 10MB
			IdleConnTimeout:   90 * time.Second,
			MaxIdleConns:      20,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			},
		},
		Sources: []SourceConfig{
			{
				Name:     "BBC News",
				Kind:     KindBBC,
				BaseURL:  "https://www.bbc.com",
				Enabled:  true,
				Listings: []string{"/news", "/news/world", "/news/uk", "/news/technology", "/news/business"},
			},
			{
				Name:     "CNN",
				Kind:     KindCNN,
				BaseURL:  "https://www.cnn.com",
				Enabled:  true,
				Listings: []string{"/"},
			},
			{
				Name:     "Reuters",
				Kind:     KindReuters,
				BaseURL:  "https://www.reuters.com",
				Enabled:  true,
				Listings: []string{"/", "/world/", "/business/", "/technology/"},
				DelayMin: 2 * time.Second,
				DelayMax: 4 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "file:newsgoat.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Schedule: ScheduleConfig{
			Interval:       time.Hour,
			RunOnStart:     true,
			RetentionDays:  30,
			RetentionEvery: "@daily",
		},
		Export: ExportConfig{
			OutputDir:       "./output",
			MongoDatabase:   "newsgoat",
			MongoCollection: "articles",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// EnabledSources returns the sources with Enabled set.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Source finds a source by name, or by kind when no name matches. Both
// comparisons ignore case.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	for _, s := range c.Sources {
		if strings.EqualFold(s.Kind, name) {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Delays returns the politeness range for a source, falling back to the
// scraper defaults.
func (c *Config) Delays(src SourceConfig) (time.Duration, time.Duration) {
	lo, hi := c.Scraper.DelayMin, c.Scraper.DelayMax
	if src.DelayMin > 0 || src.DelayMax > 0 {
		lo, hi = src.DelayMin, src.DelayMax
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
