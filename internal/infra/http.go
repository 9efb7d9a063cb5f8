package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrRateLimited is returned once retries on 429/403 are exhausted.
	ErrRateLimited = errors.New("rate limited by remote server")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")
)

// StatusError is a non-success response that is not retried.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond int
	MaxRetries        int
	Backoff           time.Duration
	BackoffCap        time.Duration
	Logger            zerolog.Logger
	Transport         http.RoundTripper
}

// HTTPClient performs rate-limited GETs with a fixed User-Agent and backs
// off exponentially when the server throttles.
type HTTPClient struct {
	http    *http.Client
	limiter *RateLimiter
	opts    HTTPOptions
	log     zerolog.Logger
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewHTTPClient builds a client; zero options fall back to EDGAR-friendly
// defaults.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 30 * time.Second
	}
	if opts.BackoffCap < opts.Backoff {
		opts.BackoffCap = max(opts.Backoff, 300*time.Second)
	}
	return &HTTPClient{
		http:    &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		limiter: NewRateLimiter(opts.RequestsPerSecond, max(opts.RequestsPerSecond, 1)),
		opts:    opts,
		log:     opts.Logger,
	}
}

// Get fetches url. 304 responses are returned without error so callers can
// use conditional requests. 429 and 403 are retried up to MaxRetries times,
// waiting the current backoff or the server's Retry-After, whichever is
// longer; the backoff doubles after each attempt up to BackoffCap.
func (c *HTTPClient) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	backoff := c.opts.Backoff
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.do(ctx, url, header)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
			if attempt >= c.opts.MaxRetries {
				return nil, fmt.Errorf("GET %s: %w after %d attempts (status %d)", url, ErrRateLimited, attempt, resp.StatusCode)
			}
			wait := RetryAfter(resp.Header.Get("Retry-After"), backoff, time.Now())
			c.log.Warn().Str("url", url).Int("status", resp.StatusCode).Dur("wait", wait).Msg("throttled by SEC, backing off")
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, c.opts.BackoffCap)
			continue
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("GET %s: %w", url, ErrNotFound)
		case resp.StatusCode == http.StatusNotModified:
			return resp, nil
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		}
		return resp, nil
	}
}

func (c *HTTPClient) do(ctx context.Context, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	c.log.Debug().Str("url", url).Msg("GET")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// RetryAfter returns how long to wait given a Retry-After header value,
// never less than fallback. Both delta-seconds and HTTP-date forms are
// understood.
func RetryAfter(value string, fallback time.Duration, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return max(time.Duration(secs)*time.Second, fallback)
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return max(d, fallback)
		}
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
