package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request tags describe what kind of page a request targets.
const (
	TagListing = "listing"
	TagArticle = "article"
	TagFeed    = "feed"
)

// Request represents an HTTP request to be fetched.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Headers are extra HTTP headers that override the browser defaults.
	Headers http.Header

	// Tag categorizes this request (listing, article, feed).
	Tag string

	// Source is the name of the news source this request belongs to.
	Source string

	// Timeout overrides the fetcher timeout for this request when > 0.
	Timeout time.Duration

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a GET request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:       u,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
