// Package apiclient provides the shared retrying HTTP client used by both
// external API integrations.
//
// Every attempt passes through the rate limiter first, then runs with a
// per-attempt timeout. Retryable failures (network errors, 5xx, 408, 429)
// are retried with exponential backoff until the policy's attempt budget
// runs out; other client errors and shape mismatches fail immediately.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/hoanghai1803/newsbrief/internal/ratelimit"
)

const maxBackoff = 30 * time.Second

// RetryPolicy configures the attempt budget and backoff schedule. It is
// immutable and safe to share across concurrent calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy mirrors the configuration defaults: three attempts with
// a one-second base delay, doubling per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// delay returns the backoff before the retry following the given attempt
// (1-based). An explicit throttle from the provider earns a doubled delay.
func (p RetryPolicy) delay(attempt int, rateLimited bool) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	mult := p.Multiplier
	if mult <= 1 {
		mult = 2
	}

	d := float64(base) * math.Pow(mult, float64(attempt-1))
	if rateLimited {
		d *= 2
	}
	if d > float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(d)
}

// Request describes a single logical call. The body is held as bytes so the
// request can be rebuilt on every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Client wraps an HTTP client with retry, backoff, and rate limiting for a
// single external service.
type Client struct {
	service string
	http    *http.Client
	limiter *ratelimit.Limiter
	policy  RetryPolicy
}

// New creates a Client for the named service. Every attempt is gated through
// the given limiter using the service name as its key.
func New(service string, timeout time.Duration, limiter *ratelimit.Limiter, policy RetryPolicy) *Client {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &Client{
		service: service,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		policy:  policy,
	}
}

// DoJSON executes the request under the retry policy and decodes the JSON
// response body into out. A nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.policy.delay(attempt-1, isRateLimited(lastErr))
			slog.Warn("request failed, retrying",
				"service", c.service,
				"attempt", attempt,
				"max_attempts", c.policy.MaxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Acquire(ctx, c.service); err != nil {
			return err
		}

		err := c.attempt(ctx, req, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}

	return &TransientError{Service: c.service, Attempts: c.policy.MaxAttempts, Err: lastErr}
}

// attempt runs one HTTP round trip and decodes the JSON body.
func (c *Client) attempt(ctx context.Context, req Request, out any) error {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.service, err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &transportError{service: c.service, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if retryableStatus(resp.StatusCode) {
			return &retryableStatusError{service: c.service, statusCode: resp.StatusCode}
		}
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Service: c.service, Reason: "decoding JSON body: " + err.Error()}
	}
	return nil
}

func retryableStatus(code int) bool {
	return code >= 500 ||
		code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout
}

func retryable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var rse *retryableStatusError
	return errors.As(err, &rse)
}

// isRateLimited reports whether the provider explicitly throttled us.
func isRateLimited(err error) bool {
	var rse *retryableStatusError
	return errors.As(err, &rse) && rse.statusCode == http.StatusTooManyRequests
}
