// Package retryhttp wraps http.Client with the bounded-attempt retry
// discipline shared by all external service adapters: transport errors and
// non-2xx statuses are logged and retried up to a per-call cap with a short
// exponential backoff, everything else surfaces immediately. An optional
// rate limiter throttles outbound calls; the hydrography endpoints are
// shared public infrastructure.
package retryhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// Client is a retrying, rate-limited HTTP JSON client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a client with an explicit per-call timeout. requestsPerSecond
// of zero or less disables rate limiting.
func New(timeout time.Duration, requestsPerSecond float64, logger *slog.Logger) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// GetJSON performs a GET with query parameters and decodes the JSON response
// body into out, retrying transport and status failures up to maxAttempts.
// Exhausting the budget returns ErrServiceUnavailable.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, maxAttempts int, out any) error {
	u := rawURL
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, "", nil, maxAttempts, out)
}

// PostFormJSON performs a form-encoded POST and decodes the JSON response
// body into out, with the same retry discipline as GetJSON.
func (c *Client) PostFormJSON(ctx context.Context, rawURL string, form url.Values, maxAttempts int, out any) error {
	return c.do(ctx, http.MethodPost, rawURL, "application/x-www-form-urlencoded",
		[]byte(form.Encode()), maxAttempts, out)
}

// GetBytes performs a GET and returns the status and body of the first
// response whose status is not retryable. Transport failures always retry.
// The default predicate (nil) retries everything outside 2xx.
func (c *Client) GetBytes(ctx context.Context, rawURL string, query url.Values, maxAttempts int, retryable func(status int) bool) (int, []byte, error) {
	u := rawURL
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	if retryable == nil {
		retryable = statusNotOK
	}

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limit wait: %w", err)
		}

		status, payload, err := c.exchange(ctx, http.MethodGet, u, "", nil)
		if err == nil && !retryable(status) {
			return status, payload, nil
		}
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}

		if err == nil {
			err = fmt.Errorf("status %d: %s", status, truncate(payload, 200))
		}
		lastErr = err
		c.logger.Warn("request failed",
			"method", http.MethodGet,
			"url", u,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
		if attempt < maxAttempts && !sleepWithContext(ctx, backoff) {
			return 0, nil, ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
	return 0, nil, fmt.Errorf("%w: %d attempts exhausted: %v", domain.ErrServiceUnavailable, maxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, u, contentType string, body []byte, maxAttempts int, out any) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		status, payload, err := c.exchange(ctx, method, u, contentType, body)
		if err == nil && !statusNotOK(status) {
			if decodeErr := json.Unmarshal(payload, out); decodeErr != nil {
				// A malformed body is a data problem, not a transport one.
				return fmt.Errorf("decode response: %w", decodeErr)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			err = fmt.Errorf("status %d: %s", status, truncate(payload, 200))
		}
		lastErr = err
		c.logger.Warn("request failed",
			"method", method,
			"url", u,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
		if attempt < maxAttempts && !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
	return fmt.Errorf("%w: %d attempts exhausted: %v", domain.ErrServiceUnavailable, maxAttempts, lastErr)
}

// exchange performs a single HTTP round trip and returns the status code and
// body. Only transport-level failures produce an error.
func (c *Client) exchange(ctx context.Context, method, u, contentType string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, payload, nil
}

func statusNotOK(status int) bool {
	return status < 200 || status > 299
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
