package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Browser user agents rotated across requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
}

// StatusError represents a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       []byte

	// RetryAfter is the server-advertised delay on 429 responses,
	// zero when the server provided none.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetryable returns true if the error should trigger a retry.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Request describes one logical request to Do.
type Request struct {
	Method string // Defaults to GET
	URL    string
	Query  url.Values
	Header http.Header
	Body   any // JSON-encoded when non-nil
}

// Fetcher performs HTTP requests with rate limiting, user-agent rotation and
// retry with exponential backoff. One Fetcher is bound to one source's
// RateLimiter.
type Fetcher struct {
	httpClient  *http.Client
	limiter     *RateLimiter
	logger      *slog.Logger
	maxAttempts int
	baseBackoff time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// New creates a Fetcher bound to the given rate limiter.
func New(limiter *RateLimiter, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:     limiter,
		logger:      slog.Default(),
		maxAttempts: 3,
		baseBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// WithAttempts sets the attempt budget and base backoff.
func WithAttempts(max int, backoff time.Duration) Option {
	return func(f *Fetcher) {
		f.maxAttempts = max
		f.baseBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// Do performs one logical request, retrying transient failures until the
// attempt budget is exhausted. The caller never receives a half-read body:
// the result is either the complete response body or an error.
func (f *Fetcher) Do(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		// Rate limit applies to every physical request, retries included.
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := f.attempt(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.IsRetryable() {
			// Client error other than 429: do not consume remaining attempts.
			return nil, err
		}

		if attempt == f.maxAttempts-1 {
			break
		}

		delay := f.backoff(attempt)
		if statusErr != nil && statusErr.StatusCode == http.StatusTooManyRequests && statusErr.RetryAfter > 0 {
			delay = min(statusErr.RetryAfter, delay)
		}

		f.logger.Warn("request failed, retrying",
			"url", req.URL,
			"attempt", attempt+1,
			"backoff", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	f.logger.Error("request failed after all attempts",
		"url", req.URL,
		"attempts", f.maxAttempts,
		"error", lastErr,
	)
	return nil, fmt.Errorf("fetch %s: %w", req.URL, lastErr)
}

// GetJSON fetches rawURL and unmarshals the response body into v.
// A parse failure is a fetch failure.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, query url.Values, header http.Header, v any) error {
	h := http.Header{}
	h.Set("Accept", "application/json")
	for k, vals := range header {
		for _, val := range vals {
			h.Add(k, val)
		}
	}

	body, err := f.Do(ctx, Request{URL: rawURL, Query: query, Header: h})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", rawURL, err)
	}
	return nil
}

// attempt performs a single physical request.
func (f *Fetcher) attempt(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	fullURL := req.URL
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RetryAfter: retryAfter(resp),
		}
	}

	return body, nil
}

// backoff returns base * 2^attempt plus up to one base interval of jitter.
func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.baseBackoff << uint(attempt)
	return d + time.Duration(rand.Int64N(int64(f.baseBackoff)))
}

// retryAfter extracts the server-advertised wait from a 429 response.
// Supports Retry-After seconds and epoch-style X-Rate-Limit-Reset headers.
func retryAfter(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}

	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	if v := resp.Header.Get("X-Rate-Limit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if wait := time.Until(time.Unix(epoch, 0)); wait > 0 {
				return wait
			}
		}
	}

	return 0
}
