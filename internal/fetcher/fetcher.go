package fetcher

import (
	"context"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Fetcher is the interface for all request fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL, retrying
	// transient failures. A failure is always a *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// Get builds a request for rawURL and fetches it.
func Get(ctx context.Context, f Fetcher, rawURL, source, tag string) (*types.Response, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	req.Source = source
	req.Tag = tag
	return f.Fetch(ctx, req)
}
