package zendesk

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "deskbridge/internal/shared/errors"
)

// APIError is a non-2xx response from the Zendesk API.
type APIError struct {
	Method      string
	Path        string
	Status      int
	Title       string
	Description string
	retryAfter  time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("zendesk %s %s: status %d", e.Method, e.Path, e.Status)
	if e.Title != "" {
		msg += ": " + e.Title
	}
	if e.Description != "" {
		msg += " (" + e.Description + ")"
	}
	return msg
}

func (e *APIError) RetryAfter() time.Duration {
	return e.retryAfter
}

// Retryable covers rate limiting and update conflicts, which Zendesk rejects
// before applying anything. Server errors are retried for reads only since a
// write may already have been applied.
func (e *APIError) Retryable() bool {
	switch {
	case e.Status == http.StatusTooManyRequests, e.Status == http.StatusConflict:
		return true
	case e.Status >= http.StatusInternalServerError:
		return !isWrite(e.Method)
	}
	return false
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

func upstream(apiErr *APIError) error {
	return apperrors.NewUpstreamError("zendesk "+apiErr.Path, apiErr, apiErr.Retryable())
}
