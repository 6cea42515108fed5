package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// cnnDateline matches the "(CNN) —" style lead-in of the first paragraph.
var cnnDateline = regexp.MustCompile(`^(?:[A-Z][A-Za-z .,']{0,40})?\(?CNN(?: Business)?\)?\s*[—–-]+\s*`)

// CNN extracts articles from CNN.
type CNN struct {
	*Generic
}

// NewCNN creates the CNN extractor.
func NewCNN(src config.SourceConfig, logger *slog.Logger) (*CNN, error) {
	g, err := NewGeneric(src, profileFor(src, CNNProfile()), logger)
	if err != nil {
		return nil, err
	}
	return &CNN{Generic: g}, nil
}

// ExtractArticle implements Extractor, dropping the CNN dateline from the
// start of the body and summary.
func (c *CNN) ExtractArticle(page *types.Response) (*types.Article, error) {
	article, err := c.Generic.ExtractArticle(page)
	if err != nil {
		return nil, err
	}
	article.Content = stripCNNDateline(article.Content)
	article.Summary = stripCNNDateline(article.Summary)
	return article, nil
}

func stripCNNDateline(s string) string {
	loc := cnnDateline.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return strings.TrimSpace(s[loc[1]:])
}
