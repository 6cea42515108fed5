package extract

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Strategy kinds.
const (
	KindCSS   = "css"
	KindXPath = "xpath"
	KindMeta  = "meta"
)

// attrText selects an element's text content instead of an attribute.
const attrText = "text"

// attrHTML selects an element's inner markup reduced to its text tokens, so
// extracted fields stay plain text.
const attrHTML = "html"

// document is a parsed page that strategies are evaluated against.
type document struct {
	doc     *goquery.Document
	root    *html.Node
	pageURL *url.URL
	logger  *slog.Logger
}

func openDocument(page *types.Response, logger *slog.Logger) (*document, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}
	pageURL, err := url.Parse(page.URL())
	if err != nil {
		return nil, err
	}
	d := &document{doc: doc, pageURL: pageURL, logger: logger}
	if len(doc.Nodes) > 0 {
		d.root = doc.Nodes[0]
	}
	return d, nil
}

// values evaluates one strategy and returns the whitespace-collapsed value of
// every match in document order. Empty values are dropped.
func (d *document) values(s config.Strategy) []string {
	attrs := attributes(s.Attribute)

	var out []string
	add := func(v string) {
		if v = squash(v); v != "" {
			out = append(out, v)
		}
	}

	switch s.Kind {
	case "", KindCSS:
		d.doc.Find(s.Selector).Each(func(_ int, sel *goquery.Selection) {
			add(selectionValue(sel, attrs))
		})
	case KindXPath:
		if d.root == nil {
			return nil
		}
		nodes, err := htmlquery.QueryAll(d.root, s.Selector)
		if err != nil {
			d.logger.Warn("invalid xpath", "selector", s.Selector, "error", err)
			return nil
		}
		for _, node := range nodes {
			add(nodeValue(node, attrs))
		}
	case KindMeta:
		add(d.meta(s.Selector))
	default:
		d.logger.Warn("unknown strategy kind", "kind", s.Kind)
	}
	return out
}

// first walks the strategies in order and returns the first value accepted.
// Strategies after the accepted one are never evaluated.
func (d *document) first(strategies []config.Strategy, accept func(string) bool) string {
	for _, s := range strategies {
		for _, v := range d.values(s) {
			if accept == nil || accept(v) {
				return v
			}
		}
	}
	return ""
}

// meta returns the content of a <meta> tag matched by name, property or itemprop.
func (d *document) meta(key string) string {
	for _, attr := range []string{"name", "property", "itemprop"} {
		content, ok := d.doc.Find(`meta[` + attr + `="` + key + `"]`).First().Attr("content")
		if ok && strings.TrimSpace(content) != "" {
			return content
		}
	}
	return ""
}

// attributes splits "datetime|text" into an ordered attribute fallback list.
func attributes(list string) []string {
	if list == "" {
		return []string{attrText}
	}
	parts := strings.Split(list, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func selectionValue(sel *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		var v string
		switch attr {
		case attrText:
			v = sel.Text()
		case attrHTML:
			inner, _ := sel.Html()
			v = markupText(inner)
		default:
			v, _ = sel.Attr(attr)
		}
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func nodeValue(node *html.Node, attrs []string) string {
	for _, attr := range attrs {
		var v string
		switch attr {
		case attrText:
			v = htmlquery.InnerText(node)
		case attrHTML:
			v = markupText(htmlquery.OutputHTML(node, false))
		default:
			v = htmlquery.SelectAttr(node, attr)
		}
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// markupText returns the text tokens of an HTML fragment with entities
// decoded. Text that is not a tag, like "<2%", is kept as written.
func markupText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

// squash trims and collapses internal whitespace runs to single spaces.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
