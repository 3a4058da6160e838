package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

var DefaultRetryConfig = stealth.DefaultRetryConfig

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }
func IsRetryableStatus(code int) bool  { return stealth.IsRetryableStatus(code) }

func RetryDo[T any](ctx context.Context, rc stealth.RetryConfig, fn func() (T, error)) (T, error) {
	return stealth.RetryDo(ctx, rc, fn)
}

func RetryHTTP(ctx context.Context, rc stealth.RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	return stealth.RetryHTTP(ctx, rc, fn)
}

// BrowserFetcher sends requests through the Chrome-fingerprinted stealth client.
// YouTube serves consent walls and bot checks less often to it than to net/http.
type BrowserFetcher struct {
	Client *BrowserClient
}

// Do implements Fetcher. Retryable statuses are retried; others are returned as is.
func (f *BrowserFetcher) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	headers := ChromeHeaders()
	for k, v := range r.Headers {
		headers[k] = v
	}
	metrics.FetchRequests.Add(1)

	resp, err := RetryDo(ctx, DefaultRetryConfig, func() (*Response, error) {
		var body io.Reader
		if r.Body != nil {
			body = bytes.NewReader(r.Body)
		}
		data, _, status, err := f.Client.Do(method, r.URL, headers, body)
		if err != nil {
			return nil, err
		}
		if IsRetryableStatus(status) {
			return nil, fmt.Errorf("status %d", status)
		}
		return &Response{Status: status, Body: data}, nil
	})
	if err != nil {
		metrics.FetchErrors.Add(1)
		return nil, fmt.Errorf("%s %s: %w", method, r.URL, err)
	}
	return resp, nil
}
