package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

// feedLinks parses an RSS/Atom document and returns the article URL of each
// item, falling back to a GUID that is itself a URL.
func feedLinks(body []byte) ([]string, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && strings.HasPrefix(item.GUID, "http") {
			link = item.GUID
		}
		if link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}

// filterLinks applies the listing link filter to raw links in order,
// dropping duplicates and stopping at max.
func filterLinks(f *linkFilter, base *url.URL, raw []string, max int) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, href := range raw {
		if max > 0 && len(out) >= max {
			break
		}
		link, ok := f.accept(base, href)
		if !ok {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}
