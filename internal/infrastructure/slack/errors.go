package slack

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "deskbridge/internal/shared/errors"
)

// APIError is a failed Web API call: either an HTTP-level failure or a
// response with "ok": false.
type APIError struct {
	Method string
	Status int    // HTTP status of the response
	Code   string // Slack error code, e.g. "channel_not_found"
	// Wait requested by Slack through the Retry-After header.
	retryAfter time.Duration
	// write marks a method that posts content and has no idempotency key.
	write bool
}

func (e *APIError) Error() string {
	if e.retryAfter > 0 {
		return fmt.Sprintf("slack %s failed: status=%d error=%s (retry_after=%s)", e.Method, e.Status, e.Code, e.retryAfter)
	}
	return fmt.Sprintf("slack %s failed: status=%d error=%s", e.Method, e.Status, e.Code)
}

// RetryAfter returns the server-provided wait, zero when none was given.
func (e *APIError) RetryAfter() time.Duration {
	return e.retryAfter
}

// transientCodes are error codes Slack documents as safe to retry.
var transientCodes = map[string]bool{
	"ratelimited":         true,
	"internal_error":      true,
	"fatal_error":         true,
	"service_unavailable": true,
	"request_timeout":     true,
}

// Retryable reports whether repeating the call may succeed. A posting
// method is only repeated after a rate limit rejection, since any other
// failure may have happened after Slack stored the message.
func (e *APIError) Retryable() bool {
	if e.Status == http.StatusTooManyRequests || e.Code == "ratelimited" {
		return true
	}
	if e.write {
		return false
	}
	return e.Status >= http.StatusInternalServerError || transientCodes[e.Code]
}

// IsNotFound reports a missing channel, user or message.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case "channel_not_found", "user_not_found", "message_not_found", "thread_not_found":
		return true
	}
	return false
}

// IsRateLimited reports whether the call was rejected for rate limiting,
// either by Slack or by the local limiter.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == http.StatusTooManyRequests || apiErr.Code == "ratelimited")
}

func upstream(apiErr *APIError) error {
	return apperrors.NewUpstreamError("slack "+apiErr.Method, apiErr, apiErr.Retryable())
}
