package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/market-radar/pkg/config"
	"github.com/wonny/market-radar/pkg/logger"
	"github.com/wonny/market-radar/pkg/redis"
)

const defaultTimeout = 30 * time.Second

// Client wraps http.Client with rate limiting and retry for price sources
// ⭐ SSOT: every outbound HTTP request goes through this client
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	backoff    Backoff

	local  *rate.Limiter
	shared *redis.RateLimiter
	quota  redis.RateLimitConfig
}

// Backoff controls retries of 5xx and 429 responses.
// MaxRetries == 0 means a single attempt.
type Backoff struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
}

// New creates a client whose timeout follows the per-asset fetch bound
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.Pipeline.FetchTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		backoff: Backoff{
			MaxRetries: 3,
			Initial:    time.Second,
			Max:        10 * time.Second,
		},
	}
}

// WithRetry sets the retry count and the first backoff delay
func (c *Client) WithRetry(maxRetries int, initial time.Duration) *Client {
	c.backoff.MaxRetries = maxRetries
	c.backoff.Initial = initial
	return c
}

// DisableRetry makes every request a single attempt
func (c *Client) DisableRetry() *Client {
	c.backoff.MaxRetries = 0
	return c
}

// WithLocalRateLimit caps this process at perSecond requests.
// perSecond <= 0 removes the cap.
func (c *Client) WithLocalRateLimit(perSecond int) *Client {
	c.local = nil
	if perSecond > 0 {
		c.local = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	return c
}

// WithRateLimiter shares a quota with other processes through Redis
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, quota redis.RateLimitConfig) *Client {
	c.shared = limiter
	c.quota = quota
	return c
}

// Get issues a GET with the given headers.
// The caller closes the body; non-retryable statuses are returned as-is.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, attempts, err := c.do(req)
	log := c.logger.WithFields(map[string]interface{}{
		"url":      url,
		"attempts": attempts,
		"duration": time.Since(start),
	})
	if err != nil {
		log.WithError(err).Warn("HTTP request failed")
		return nil, err
	}

	log.WithField("status_code", resp.StatusCode).Debug("HTTP request completed")
	return resp, nil
}

func (c *Client) do(req *http.Request) (*http.Response, int, error) {
	ctx := req.Context()
	delay := c.backoff.Initial

	for attempt := 1; ; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, attempt - 1, err
		}

		resp, err := c.httpClient.Do(req)
		if err == nil && !Retryable(resp.StatusCode) {
			return resp, attempt, nil
		}
		if attempt > c.backoff.MaxRetries {
			return resp, attempt, err
		}

		pause := delay
		if resp != nil {
			if after := retryAfter(resp); after > 0 {
				pause = after
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if c.backoff.Max > 0 && pause > c.backoff.Max {
			pause = c.backoff.Max
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   pause,
			"url":     req.URL.String(),
		}).Warn("Retrying HTTP request")

		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(pause):
		}

		delay *= 2
		if c.backoff.Max > 0 && delay > c.backoff.Max {
			delay = c.backoff.Max
		}
	}
}

// wait takes one token from each configured limiter
func (c *Client) wait(ctx context.Context) error {
	if c.local != nil {
		if err := c.local.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	if c.shared != nil {
		if err := c.shared.Wait(ctx, c.quota); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	return nil
}

// Retryable reports whether a response status is worth another attempt
func Retryable(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// retryAfter reads a Retry-After header given in seconds
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
