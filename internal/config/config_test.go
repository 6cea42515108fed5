package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// --- Defaults ---

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))
	assert.Len(t, cfg.EnabledSources(), 3)
	assert.Equal(t, time.Hour, cfg.Schedule.Interval)
}

func TestSourceLookup(t *testing.T) {
	cfg := DefaultConfig()

	src, ok := cfg.Source("bbc news")
	require.True(t, ok)
	assert.Equal(t, KindBBC, src.Kind)

	src, ok = cfg.Source("reuters")
	require.True(t, ok)
	lo, hi := cfg.Delays(src)
	assert.Equal(t, 2*time.Second, lo)
	assert.Equal(t, 4*time.Second, hi)

	cnn, _ := cfg.Source("cnn")
	lo, hi = cfg.Delays(cnn)
	assert.Equal(t, cfg.Scraper.DelayMin, lo)
	assert.Equal(t, cfg.Scraper.DelayMax, hi)

	_, ok = cfg.Source("nope")
	assert.False(t, ok)
}

// --- Loading ---

func TestLoadFromFileReplacesSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsgoat.yaml")
	yaml := `
scraper:
  max_articles_per_source: 7
  delay_min: 0s
  delay_max: 10ms
fetcher:
  request_timeout: 5s
sources:
  - name: Local
    kind: generic
    base_url: https://news.example.com
    enabled: true
    listings: ["/latest"]
    profile:
      link_strategies:
        - selector: "a.story"
      article_patterns: ["/story/\\d+$"]
      title_strategies:
        - selector: h1
      min_title_length: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 7, cfg.Scraper.MaxArticlesPerSource)
	assert.Equal(t, 10*time.Millisecond, cfg.Scraper.DelayMax)
	assert.Equal(t, 5*time.Second, cfg.Fetcher.RequestTimeout)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "Local", cfg.Sources[0].Name)
	require.NotNil(t, cfg.Sources[0].Profile)
	assert.Equal(t, "a.story", cfg.Sources[0].Profile.LinkStrategies[0].Selector)
	assert.Equal(t, 3, cfg.Fetcher.MaxRetries)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NEWSGOAT_SCRAPER_WORKERS", "5")
	t.Setenv("NEWSGOAT_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Scraper.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Len(t, cfg.Sources, 3)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// --- Validation ---

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"workers":        func(c *Config) { c.Scraper.Workers = 0 },
		"delay range":    func(c *Config) { c.Scraper.DelayMin, c.Scraper.DelayMax = 3*time.Second, time.Second },
		"timeout":        func(c *Config) { c.Fetcher.RequestTimeout = 0 },
		"retries":        func(c *Config) { c.Fetcher.MaxRetries = 0 },
		"no sources":     func(c *Config) { c.Sources = nil },
		"duplicate name": func(c *Config) { c.Sources[1].Name = "bbc news" },
		"bad kind":       func(c *Config) { c.Sources[0].Kind = "rss" },
		"bad base url":   func(c *Config) { c.Sources[0].BaseURL = "ftp://x" },
		"generic needs profile": func(c *Config) {
			c.Sources[0].Kind = KindGeneric
		},
		"bad pattern": func(c *Config) {
			c.Sources[0].Profile = &SiteProfile{
				LinkStrategies:  []Strategy{{Selector: "a"}},
				ArticlePatterns: []string{"("},
				TitleStrategies: []Strategy{{Selector: "h1"}},
			}
		},
		"bad strategy kind": func(c *Config) {
			c.Sources[0].Profile = &SiteProfile{
				LinkStrategies:  []Strategy{{Kind: "regex", Selector: "a"}},
				ArticlePatterns: []string{"x"},
				TitleStrategies: []Strategy{{Selector: "h1"}},
			}
		},
		"driver":       func(c *Config) { c.Database.Driver = "mysql" },
		"export":       func(c *Config) { c.Export.Types = []string{"parquet"} },
		"mongo no uri": func(c *Config) { c.Export.Types = []string{"mongodb"} },
		"log level":    func(c *Config) { c.Logging.Level = "trace" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			var cfgErr *types.ConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://www.bbc.com"))
	assert.Error(t, ValidateURL("mailto:x@y"))
	assert.Error(t, ValidateURL("https://"))
}
