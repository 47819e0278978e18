package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPError carries the upstream status so callers can classify retryability.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error (%d): %s", e.Status, truncate(e.Body, 200))
}

// Client is a token-bucket-gated HTTP fetcher shared by all callers of one
// upstream. When the bucket is empty Fetch blocks the calling worker until
// capacity frees; requests are never dropped.
type Client struct {
	HTTP       *http.Client
	Limiter    *rate.Limiter
	UserAgent  string
	MaxRetries int
	Logger     *zap.Logger
}

// NewClient builds a fetcher allowing ratePerMinute requests over a rolling
// minute with a burst of one second's worth.
func NewClient(httpClient *http.Client, ratePerMinute int, userAgent string, maxRetries int, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	burst := ratePerMinute / 60
	if burst < 1 {
		burst = 1
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	return &Client{
		HTTP:       httpClient,
		Limiter:    rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), burst),
		UserAgent:  userAgent,
		MaxRetries: maxRetries,
		Logger:     logger,
	}
}

// Fetch GETs url, retrying transient failures (transport errors, 5xx, 429)
// with exponential backoff up to MaxRetries. Other 4xx fail immediately with
// *HTTPError. A 429 Retry-After header overrides the computed backoff.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c == nil || c.HTTP == nil {
		return nil, fmt.Errorf("fetch client is nil")
	}
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := c.doOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if c.Logger != nil {
			c.Logger.Debug("fetch retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		}
	}
	return nil, fmt.Errorf("fetch %s: retries exhausted: %w", url, lastErr)
}

func (c *Client) doOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json, application/xml, text/html, */*")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		herr := &HTTPError{Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				return nil, &RateLimitedError{HTTPError: herr, RetryAfter: d}
			}
		}
		return nil, herr
	}
	return body, nil
}

// RateLimitedError wraps a 429 with the server-requested wait.
type RateLimitedError struct {
	*HTTPError
	RetryAfter time.Duration
}

func (e *RateLimitedError) Unwrap() error { return e.HTTPError }

func retryable(err error) bool {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.Status == http.StatusTooManyRequests || herr.Status >= 500
	}
	// Transport-level failures (timeouts, resets) are retryable.
	return true
}

func backoffDelay(attempt int, lastErr error) time.Duration {
	var rl *RateLimitedError
	if errors.As(lastErr, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	base := 500 * time.Millisecond
	delay := base << uint(attempt-1)
	if delay > 15*time.Second {
		delay = 15 * time.Second
	}
	// Jitter spreads concurrent workers retrying the same upstream.
	return delay + time.Duration(rand.Int63n(int64(250*time.Millisecond)))
}

func parseRetryAfter(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(raw); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
