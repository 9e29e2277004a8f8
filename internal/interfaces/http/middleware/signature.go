package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"deskbridge/internal/infrastructure/slack"
	"deskbridge/internal/infrastructure/zendesk"
	"deskbridge/internal/shared/biztime"
	"deskbridge/internal/shared/logger"
	"deskbridge/internal/shared/utils"
)

const (
	// RawBodyKey holds the verified request body for handlers.
	RawBodyKey = "raw_body"

	maxWebhookBody = 1 << 20
)

// RawBody returns the body captured by a signature middleware, reading it
// directly when none ran.
func RawBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(RawBodyKey); ok {
		if body, ok := v.([]byte); ok {
			return body, nil
		}
	}
	return captureBody(c)
}

// captureBody reads the body once and puts it back for form parsing.
func captureBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxWebhookBody {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxWebhookBody)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Set(RawBodyKey, body)
	return body, nil
}

// SlackSignature verifies Slack's v0 request signature. Without a signing
// secret every request is rejected.
func SlackSignature(secret string, clock biztime.Clock, log logger.Interface) gin.HandlerFunc {
	if clock == nil {
		clock = biztime.System()
	}
	return func(c *gin.Context) {
		if secret == "" {
			log.Errorw("slack signing secret not configured, rejecting request", "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "slack integration not configured")
			c.Abort()
			return
		}

		body, err := captureBody(c)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "unreadable request body")
			c.Abort()
			return
		}

		err = slack.VerifySignature(secret,
			c.GetHeader(slack.HeaderTimestamp),
			c.GetHeader(slack.HeaderSignature),
			body, clock.Now())
		if err != nil {
			log.Warnw("slack signature verification failed",
				"path", c.Request.URL.Path,
				"request_id", c.GetString(RequestIDKey),
				"error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid signature")
			c.Abort()
			return
		}

		c.Next()
	}
}

// ZendeskSignature verifies the webhook signing headers. Without a signing
// secret every request is rejected.
func ZendeskSignature(secret string, clock biztime.Clock, log logger.Interface) gin.HandlerFunc {
	if clock == nil {
		clock = biztime.System()
	}
	return func(c *gin.Context) {
		if secret == "" {
			log.Errorw("zendesk webhook secret not configured, rejecting request", "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "webhook not configured")
			c.Abort()
			return
		}

		body, err := captureBody(c)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "unreadable request body")
			c.Abort()
			return
		}

		err = zendesk.VerifyWebhook(secret,
			c.GetHeader(zendesk.HeaderSignatureTimestamp),
			c.GetHeader(zendesk.HeaderSignature),
			body, clock.Now())
		if err != nil {
			log.Warnw("zendesk webhook signature verification failed",
				"request_id", c.GetString(RequestIDKey),
				"error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid signature")
			c.Abort()
			return
		}

		c.Next()
	}
}
