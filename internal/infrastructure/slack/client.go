// Package slack is a minimal Slack Web API and Events API adapter: posting to
// threads, looking up users and channels, and verifying signed requests.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"deskbridge/internal/infrastructure/ratelimit"
	"deskbridge/internal/infrastructure/retry"
	"deskbridge/internal/shared/config"
	apperrors "deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
)

const (
	defaultBaseURL = "https://slack.com/api"
	defaultTimeout = 10 * time.Second
	maxResponseLen = 1 << 20
)

// Client calls the Slack Web API with a bot token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	limiter    ratelimit.RateLimiter
	postLimit  ratelimit.RateLimitConfig
	logger     logger.Interface
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRateLimiter paces message posts per channel across all instances
// sharing the limiter.
func WithRateLimiter(l ratelimit.RateLimiter, postsPerSecond int) Option {
	return func(c *Client) {
		c.limiter = l
		c.postLimit = ratelimit.RateLimitConfig{RequestsPerSecond: postsPerSecond}
	}
}

func WithLogger(l logger.Interface) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client from cfg. Options override the defaults.
func NewClient(cfg config.SlackConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		token:      cfg.BotToken,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		policy:     retry.DefaultPolicy(),
		logger:     logger.NewLogger().With("component", "slack"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the envelope every Web API method returns.
type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// request describes one Web API call. Exactly one of JSON or Form is used.
type request struct {
	method  string
	json    any
	form    url.Values
	rateKey string
	// write is set for methods that post content.
	write bool
}

// call runs req under the retry policy and decodes a successful response into out.
func (c *Client) call(ctx context.Context, req request, out any) error {
	return c.policy.Do(ctx, c.logger, "slack."+req.method, func(ctx context.Context) error {
		if err := c.wait(ctx, req); err != nil {
			return err
		}
		return c.do(ctx, req, out)
	})
}

// wait consults the shared limiter. Limiter failures let the call through.
func (c *Client) wait(ctx context.Context, req request) error {
	if c.limiter == nil || req.rateKey == "" || c.postLimit.IsZero() {
		return nil
	}
	allowed, err := c.limiter.Allow(ctx, req.rateKey, c.postLimit)
	if err != nil {
		c.logger.Warnw("rate limiter unavailable, sending without pacing", "key", req.rateKey, "error", err)
		return nil
	}
	if !allowed {
		return upstream(&APIError{Method: req.method, Code: "ratelimited", retryAfter: time.Second, write: req.write})
	}
	return nil
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else {
		payload, err := json.Marshal(req.json)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", req.method, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json; charset=utf-8"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+req.method, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", req.method, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewUpstreamError("slack "+req.method, err, !req.write)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return apperrors.NewUpstreamError("slack "+req.method, fmt.Errorf("failed to read response: %w", err), !req.write)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Method: req.method, Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), write: req.write}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.Code = "ratelimited"
			apiErr.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return upstream(apiErr)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperrors.NewUpstreamError("slack "+req.method, fmt.Errorf("failed to decode response: %w", err), false)
	}
	if !envelope.OK {
		return upstream(&APIError{Method: req.method, Status: resp.StatusCode, Code: envelope.Error, write: req.write})
	}
	if envelope.Warning != "" {
		c.logger.Debugw("slack api warning", "method", req.method, "warning", envelope.Warning)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperrors.NewUpstreamError("slack "+req.method, fmt.Errorf("failed to decode response: %w", err), false)
		}
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}

// AuthTest returns the bot's own user id, used to recognise its messages.
func (c *Client) AuthTest(ctx context.Context) (string, error) {
	var resp struct {
		UserID string `json:"user_id"`
		BotID  string `json:"bot_id"`
	}
	if err := c.call(ctx, request{method: "auth.test", form: url.Values{}}, &resp); err != nil {
		return "", err
	}
	if resp.UserID == "" {
		return "", errors.New("slack auth.test returned no user_id")
	}
	return resp.UserID, nil
}
