// Package fetch performs the single blocking GET against an origin URL. There
// is no retry and no caching here; failures are reported as ErrNetwork or
// ErrDecode and the caller decides what to do with them.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"
)

var (
	// ErrNetwork covers request construction and transport failures.
	ErrNetwork = errors.New("origin request failed")
	// ErrDecode means the body could not be read or is not valid UTF-8 text.
	ErrDecode = errors.New("origin body is not text")
)

// Fetcher retrieves the body of url as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch makes FetcherFunc satisfy Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// HTTPFetcher issues GET requests with a shared client.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher wraps client; a nil client falls back to NewClient(0).
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = NewClient(0)
	}
	return &HTTPFetcher{client: client}
}

// Fetch returns the body for any status code the origin answers with.
// A fetch that has started is not aborted when ctx is cancelled.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrDecode, err)
	}
	if !utf8.Valid(body) {
		return "", fmt.Errorf("%w: invalid utf-8", ErrDecode)
	}
	return string(body), nil
}
