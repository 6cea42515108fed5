package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

func invalid(field, format string, args ...any) error {
	return &types.ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

// Validate checks the configuration for invalid values. Any error it returns
// is a *types.ConfigError and is fatal at startup.
func Validate(cfg *Config) error {
	if cfg.Scraper.MaxArticlesPerSource < 1 {
		return invalid("scraper.max_articles_per_source", "must be >= 1, got %d", cfg.Scraper.MaxArticlesPerSource)
	}
	if cfg.Scraper.Workers < 1 {
		return invalid("scraper.workers", "must be >= 1, got %d", cfg.Scraper.Workers)
	}
	if cfg.Scraper.DelayMin < 0 || cfg.Scraper.DelayMax < cfg.Scraper.DelayMin {
		return invalid("scraper.delay_min", "politeness range must satisfy 0 <= min <= max, got %s..%s",
			cfg.Scraper.DelayMin, cfg.Scraper.DelayMax)
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return invalid("fetcher.request_timeout", "must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 1 {
		return invalid("fetcher.max_retries", "must be >= 1, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryDelay < 0 {
		return invalid("fetcher.retry_delay", "must be >= 0")
	}
	if cfg.Fetcher.RequestsPerSecond < 0 {
		return invalid("fetcher.requests_per_second", "must be >= 0 (0 disables the limit)")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return invalid("fetcher.max_body_size", "must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return invalid("fetcher.max_redirects", "must be >= 0")
	}

	if err := validateSources(cfg.Sources); err != nil {
		return err
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return invalid("database.driver", "must be 'sqlite' or 'postgres', got %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return invalid("database.dsn", "must not be empty")
	}

	if cfg.Schedule.Interval <= 0 {
		return invalid("schedule.interval", "must be > 0")
	}
	if cfg.Schedule.RetentionDays < 0 {
		return invalid("schedule.retention_days", "must be >= 0 (0 disables retention)")
	}

	validExports := map[string]bool{"jsonl": true, "csv": true, "mongodb": true}
	for _, t := range cfg.Export.Types {
		if !validExports[t] {
			return invalid("export.types", "%q is not supported (valid: jsonl, csv, mongodb)", t)
		}
		if t == "mongodb" && cfg.Export.MongoURI == "" {
			return invalid("export.mongo_uri", "required when exporting to mongodb")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return invalid("logging.level", "must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return invalid("logging.format", "must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return invalid("metrics.port", "must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

func validateSources(sources []SourceConfig) error {
	if len(sources) == 0 {
		return invalid("sources", "at least one source is required")
	}

	kinds := map[string]bool{KindGeneric: true, KindBBC: true, KindCNN: true, KindReuters: true}
	seen := make(map[string]bool, len(sources))

	for i, src := range sources {
		field := fmt.Sprintf("sources[%d]", i)
		if strings.TrimSpace(src.Name) == "" {
			return invalid(field+".name", "must not be empty")
		}
		key := strings.ToLower(src.Name)
		if seen[key] {
			return invalid(field+".name", "duplicate source name %q", src.Name)
		}
		seen[key] = true

		if !kinds[src.Kind] {
			return invalid(field+".kind", "unknown kind %q (valid: generic, bbc, cnn, reuters)", src.Kind)
		}
		if err := ValidateURL(src.BaseURL); err != nil {
			return invalid(field+".base_url", "%v", err)
		}
		if len(src.Listings) == 0 && len(src.Feeds) == 0 {
			return invalid(field+".listings", "source %q needs at least one listing or feed", src.Name)
		}
		if src.DelayMin < 0 || src.DelayMax < src.DelayMin {
			return invalid(field+".delay_min", "politeness range must satisfy 0 <= min <= max")
		}

		if src.Kind == KindGeneric && src.Profile == nil {
			return invalid(field+".profile", "generic source %q requires a profile", src.Name)
		}
		if src.Profile != nil {
			if err := validateProfile(field+".profile", src.Profile); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateProfile(field string, p *SiteProfile) error {
	if len(p.LinkStrategies) == 0 {
		return invalid(field+".link_strategies", "must not be empty")
	}
	if len(p.ArticlePatterns) == 0 {
		return invalid(field+".article_patterns", "must not be empty")
	}
	for _, pattern := range p.ArticlePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return invalid(field+".article_patterns", "bad pattern %q: %v", pattern, err)
		}
	}
	if len(p.TitleStrategies) == 0 {
		return invalid(field+".title_strategies", "must not be empty")
	}
	all := [][]Strategy{
		p.LinkStrategies, p.TitleStrategies, p.ContentStrategies, p.AuthorStrategies,
		p.DateStrategies, p.ImageStrategies, p.BreadcrumbStrategies,
	}
	for _, list := range all {
		for _, s := range list {
			switch s.Kind {
			case "", "css", "xpath", "meta":
			default:
				return invalid(field, "strategy kind %q is not supported (valid: css, xpath, meta)", s.Kind)
			}
			if s.Selector == "" {
				return invalid(field, "strategy selector must not be empty")
			}
		}
	}
	return nil
}

// ValidateURL checks if a URL string is usable as a source address.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
