package httpclient

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/retry"
)

// Config holds retry and timeout configuration for backend requests.
// ConnectTimeout bounds dialing alone and must be shorter than Timeout,
// which bounds the whole request.
type Config struct {
	Retry          retry.Policy
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Retry: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    10 * time.Second,
		},
		ConnectTimeout: 5 * time.Second,
		Timeout:        30 * time.Second,
	}
}

// Client wraps http.Client with bounded retries.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

// New creates a Client with a connect-timeout transport.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
	}
	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
		logger: logger,
	}
}

// NewWithHTTPClient creates a Client around a custom http.Client (e.g. one
// carrying a cookie jar for session-token auth).
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:   httpClient,
		config: cfg,
		logger: logger,
	}
}

// Do executes an HTTP request with bounded retries. Transient failures
// (connection errors, 429, 5xx) are retried with exponential backoff;
// 401 and other client errors are returned to the caller untouched.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	attempts := c.config.Retry.MaxAttempts
	for attempt := range attempts {
		if attempt > 0 {
			if err := c.waitBeforeRetry(req, attempt, lastResp); err != nil {
				return nil, err
			}
			if err := replayBody(req); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			if !isIdempotent(req.Method) {
				return nil, err
			}
			lastErr = err
			lastResp = nil
			continue
		}

		if !shouldRetry(resp.StatusCode, req.Method) {
			return resp, nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.String())
		lastResp = resp
		_ = resp.Body.Close()
	}

	return nil, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// ExhaustedError reports that every retry attempt failed. Callers map it
// onto their own "unreachable" error kinds.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("request failed after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (c *Client) waitBeforeRetry(req *http.Request, attempt int, lastResp *http.Response) error {
	delay := c.config.Retry.Backoff(attempt)
	if d := retryAfterDelay(lastResp); d > delay {
		delay = d
	}
	if delay > c.config.Retry.MaxDelay {
		delay = c.config.Retry.MaxDelay
	}

	c.logger.Debug("retrying request",
		slog.Int("attempt", attempt+1),
		slog.String("delay", delay.String()),
		slog.String("url", req.URL.String()),
	)

	select {
	case <-time.After(delay):
		return nil
	case <-req.Context().Done():
		return req.Context().Err()
	}
}

func retryAfterDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	seconds, err := strconv.Atoi(ra)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func replayBody(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to replay request body: %w", err)
	}
	req.Body = body
	return nil
}

// isIdempotent returns true for HTTP methods that are safe to retry.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// shouldRetry returns true for status codes that warrant a retry.
// Non-idempotent methods (POST, PATCH) are only retried on 429 (rate limit)
// to avoid duplicate side effects.
func shouldRetry(statusCode int, method string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if !isIdempotent(method) {
		return false
	}
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
