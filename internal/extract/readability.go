package extract

import (
	"bytes"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// readableText runs a readability pass over the whole page and returns its
// plain text. Used only when no content strategy produced paragraphs.
func readableText(body []byte, pageURL *url.URL) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	return squash(strings.TrimSpace(article.TextContent))
}
