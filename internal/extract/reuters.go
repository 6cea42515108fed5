package extract

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

const reutersTitleSuffix = " | Reuters"

// Reuters extracts articles from Reuters.
type Reuters struct {
	*Generic
}

// NewReuters creates the Reuters extractor.
func NewReuters(src config.SourceConfig, logger *slog.Logger) (*Reuters, error) {
	g, err := NewGeneric(src, profileFor(src, ReutersProfile()), logger)
	if err != nil {
		return nil, err
	}
	return &Reuters{Generic: g}, nil
}

// ExtractArticle implements Extractor. Titles that came from og:title carry a
// " | Reuters" suffix which is removed.
func (r *Reuters) ExtractArticle(page *types.Response) (*types.Article, error) {
	article, err := r.Generic.ExtractArticle(page)
	if err != nil {
		return nil, err
	}
	article.Title = strings.TrimSpace(strings.TrimSuffix(article.Title, reutersTitleSuffix))
	return article, nil
}
