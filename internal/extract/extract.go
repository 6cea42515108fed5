// Package extract turns fetched listing and article pages into candidate
// links and normalized articles. Every site is described by a
// config.SiteProfile: ordered strategy chains per field, evaluated lazily
// until one yields a usable value.
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Extractor is implemented by every source variant.
type Extractor interface {
	// Name returns the source name articles are stamped with.
	Name() string

	// ListingURLs returns the absolute listing page URLs to crawl.
	ListingURLs() []string

	// FeedURLs returns the absolute RSS/Atom feed URLs to crawl.
	FeedURLs() []string

	// ListCandidateLinks returns canonical article URLs found on a listing page.
	ListCandidateLinks(page *types.Response) []string

	// FeedLinks returns canonical article URLs found in an RSS/Atom feed.
	FeedLinks(page *types.Response) []string

	// ExtractArticle builds an Article from an article page. A page with no
	// resolvable title yields an *types.ExtractionError wrapping types.ErrNoTitle.
	ExtractArticle(page *types.Response) (*types.Article, error)
}

// New creates the extractor for a configured source. A profile set on the
// source replaces the built-in one for its kind.
func New(src config.SourceConfig, logger *slog.Logger) (Extractor, error) {
	switch strings.ToLower(src.Kind) {
	case config.KindBBC:
		return NewBBC(src, logger)
	case config.KindCNN:
		return NewCNN(src, logger)
	case config.KindReuters:
		return NewReuters(src, logger)
	case config.KindGeneric, "":
		if src.Profile == nil {
			return nil, &types.SourceError{
				Source: src.Name,
				Err:    fmt.Errorf("generic source requires a profile"),
			}
		}
		return NewGeneric(src, *src.Profile, logger)
	default:
		return nil, &types.SourceError{
			Source: src.Name,
			Err:    fmt.Errorf("%w: kind %q", types.ErrUnknownSource, src.Kind),
		}
	}
}

// profileFor returns the source's override profile or the built-in default.
func profileFor(src config.SourceConfig, builtin config.SiteProfile) config.SiteProfile {
	if src.Profile != nil {
		return *src.Profile
	}
	return builtin
}
