package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/IshaanNene/NewsGoat/internal/config"
)

// DefaultMaxLinks caps candidate links per listing page when a profile sets none.
const DefaultMaxLinks = 30

// linkFilter decides which anchors on a listing page are article links.
type linkFilter struct {
	exclude     []string
	patterns    []*regexp.Regexp
	requireHost string
	minSegments int
}

func newLinkFilter(p config.SiteProfile) (*linkFilter, error) {
	f := &linkFilter{
		requireHost: strings.ToLower(p.RequireHost),
		minSegments: p.MinPathSegments,
	}
	for _, frag := range p.ExcludeFragments {
		f.exclude = append(f.exclude, strings.ToLower(frag))
	}
	for _, pattern := range p.ArticlePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// accept resolves href against base and returns its canonical form when the
// result looks like an article URL.
func (f *linkFilter) accept(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}

	// Exclusions look at path and query only so host names never trip them.
	target := strings.ToLower(abs.EscapedPath())
	if abs.RawQuery != "" {
		target += "?" + strings.ToLower(abs.RawQuery)
	}
	for _, frag := range f.exclude {
		if strings.Contains(target, frag) {
			return "", false
		}
	}

	if f.requireHost != "" && !hostMatches(abs.Hostname(), f.requireHost) {
		return "", false
	}
	if f.minSegments > 0 && pathSegments(abs.Path) < f.minSegments {
		return "", false
	}

	canonical := CanonicalizeURL(abs.String())
	for _, re := range f.patterns {
		if re.MatchString(canonical) {
			return canonical, true
		}
	}
	return "", false
}

func hostMatches(host, want string) bool {
	host = strings.ToLower(host)
	return host == want || strings.HasSuffix(host, "."+want)
}

func pathSegments(p string) int {
	n := 0
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// CanonicalizeURL normalizes a URL so the same article always maps to the
// same key:
// - lowercases scheme and host
// - removes fragment
// - sorts query parameters
// - removes trailing slash (except root)
// - removes default ports (80 for http, 443 for https)
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// resolve makes ref absolute against base. Protocol-relative references
// become https; absolute references are returned untouched.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if lower := strings.ToLower(ref); strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
