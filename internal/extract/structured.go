package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleTypes are the JSON-LD @type values describing a news article.
var articleTypes = map[string]bool{
	"newsarticle":          true,
	"article":              true,
	"reportagenewsarticle": true,
	"analysisnewsarticle":  true,
	"blogposting":          true,
	"liveblogposting":      true,
}

// structuredData holds the JSON-LD objects and OpenGraph tags of a page.
type structuredData struct {
	jsonLD []map[string]any
	og     map[string]string
}

// readStructured parses <script type="application/ld+json"> blocks, including
// arrays and @graph containers, and og: meta tags.
func readStructured(doc *goquery.Document) *structuredData {
	sd := &structuredData{og: make(map[string]string)}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			sd.addJSONLD(data)
			return
		}

		var dataArr []map[string]any
		if err := json.Unmarshal([]byte(raw), &dataArr); err == nil {
			for _, d := range dataArr {
				sd.addJSONLD(d)
			}
		}
	})

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if property != "" && content != "" {
			sd.og[strings.TrimPrefix(property, "og:")] = content
		}
	})

	return sd
}

func (sd *structuredData) addJSONLD(data map[string]any) {
	if graph, ok := data["@graph"].([]any); ok {
		for _, node := range graph {
			if m, ok := node.(map[string]any); ok {
				sd.jsonLD = append(sd.jsonLD, m)
			}
		}
		return
	}
	sd.jsonLD = append(sd.jsonLD, data)
}

// article returns the first JSON-LD object typed as an article, if any.
func (sd *structuredData) article() map[string]any {
	for _, obj := range sd.jsonLD {
		for _, t := range typeNames(obj["@type"]) {
			if articleTypes[strings.ToLower(t)] {
				return obj
			}
		}
	}
	return nil
}

// field returns the first non-empty string value for key on the article object.
// Nested objects yield their "name" or "url"; lists yield their first entry.
func (sd *structuredData) field(key string) string {
	obj := sd.article()
	if obj == nil {
		return ""
	}
	return squash(stringValue(obj[key]))
}

func typeNames(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if name := stringValue(t["name"]); name != "" {
			return name
		}
		return stringValue(t["url"])
	case []any:
		for _, e := range t {
			if s := stringValue(e); s != "" {
				return s
			}
		}
	}
	return ""
}
