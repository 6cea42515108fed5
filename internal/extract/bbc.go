package extract

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// bbcWidth fills the {width} placeholder in ichef image URLs, raw or escaped.
var bbcWidth = strings.NewReplacer("{width}", "976", "%7Bwidth%7D", "976")

// BBC extracts articles from BBC News.
type BBC struct {
	*Generic
}

// NewBBC creates the BBC News extractor.
func NewBBC(src config.SourceConfig, logger *slog.Logger) (*BBC, error) {
	g, err := NewGeneric(src, profileFor(src, BBCProfile()), logger)
	if err != nil {
		return nil, err
	}
	return &BBC{Generic: g}, nil
}

// ExtractArticle implements Extractor. BBC image URLs carry a width template
// that has to be filled before the URL is usable.
func (b *BBC) ExtractArticle(page *types.Response) (*types.Article, error) {
	article, err := b.Generic.ExtractArticle(page)
	if err != nil {
		return nil, err
	}
	article.ImageURL = bbcWidth.Replace(article.ImageURL)
	return article, nil
}
