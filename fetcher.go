package esmirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Fetcher retrieves the text of a module by absolute URL.
type Fetcher interface {
	// Fetch returns the body of url. Implementations should report failures
	// as *NetworkError; other errors are wrapped in one by the Mirror.
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// HTTPFetcher fetches modules with HTTP GET. Any status outside 2xx fails.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher creates an HTTP fetcher.
// If client is nil, http.DefaultClient is used.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client, UserAgent: "esmirror"}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("reading response: %w", err)}
	}
	return string(body), nil
}

// CachingFetcher keeps the most recently fetched module texts in memory so
// repeated loads in one process skip the network.
type CachingFetcher struct {
	next  Fetcher
	cache *lru.Cache[string, string]
}

// NewCachingFetcher wraps next with an LRU cache holding up to size entries.
func NewCachingFetcher(next Fetcher, size int) (*CachingFetcher, error) {
	if next == nil {
		return nil, errors.New("esmirror: caching fetcher needs a fetcher to wrap")
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("esmirror: creating fetch cache: %w", err)
	}
	return &CachingFetcher{next: next, cache: cache}, nil
}

func (f *CachingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if text, ok := f.cache.Get(url); ok {
		return text, nil
	}
	text, err := f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	f.cache.Add(url, text)
	return text, nil
}

// Len reports the number of cached modules.
func (f *CachingFetcher) Len() int {
	return f.cache.Len()
}
