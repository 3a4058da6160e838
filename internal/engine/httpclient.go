package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// maxBodyBytes caps any single response read. Watch pages run to ~2MB.
const maxBodyBytes = 6 * 1024 * 1024

// Request is one outbound call made by a transcript source.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response carries the status and the (size-capped) body. Non-2xx is not an error.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Fetcher performs HTTP requests for transcript sources.
type Fetcher interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (*Response, error)

func (fn FetcherFunc) Do(ctx context.Context, req Request) (*Response, error) { return fn(ctx, req) }

// HTTPFetcher performs requests with net/http, stealth retries and an optional rate limit.
type HTTPFetcher struct {
	Client  *http.Client
	Limiter *rate.Limiter // nil = unlimited
}

// NewHTTPFetcher builds a fetcher limited to rps requests per second (0 = unlimited).
func NewHTTPFetcher(client *http.Client, rps float64) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{Client: client}
	if rps > 0 {
		f.Limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	return f
}

// Do implements Fetcher.
func (f *HTTPFetcher) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	metrics.FetchRequests.Add(1)

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		var body io.Reader
		if r.Body != nil {
			body = bytes.NewReader(r.Body)
		}
		req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
		if err != nil {
			return nil, err
		}
		for k, v := range r.Headers {
			req.Header.Set(k, v)
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", UserAgentChrome)
		}
		return f.Client.Do(req)
	})
	if err != nil {
		metrics.FetchErrors.Add(1)
		return nil, fmt.Errorf("%s %s: %w", method, r.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.FetchErrors.Add(1)
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}
