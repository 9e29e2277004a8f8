// Package zendesk talks to the Zendesk Support API and decodes its webhooks.
package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"deskbridge/internal/infrastructure/ratelimit"
	"deskbridge/internal/infrastructure/retry"
	"deskbridge/internal/shared/config"
	apperrors "deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
	"deskbridge/internal/shared/services/markdown"
)

const (
	defaultTimeout = 15 * time.Second
	maxResponseLen = 1 << 20
	rateLimitKey   = "zendesk:api"

	HeaderIdempotencyKey = "Idempotency-Key"
)

// Client is an API-token client for one Zendesk account.
type Client struct {
	baseURL    string
	agentURL   string
	email      string
	token      string
	httpClient *http.Client
	policy     retry.Policy
	limiter    ratelimit.RateLimiter
	limit      ratelimit.RateLimitConfig
	markdown   markdown.MarkdownService
	logger     logger.Interface
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRateLimiter shares a per-minute call budget between instances.
func WithRateLimiter(l ratelimit.RateLimiter, perMinute int) Option {
	return func(c *Client) {
		c.limiter = l
		c.limit = ratelimit.RateLimitConfig{RequestsPerMinute: perMinute}
	}
}

// WithMarkdown renders ticket descriptions to sanitized html_body.
func WithMarkdown(md markdown.MarkdownService) Option {
	return func(c *Client) { c.markdown = md }
}

func WithLogger(l logger.Interface) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(cfg config.ZendeskConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(cfg.GetBaseURL(), "/")

	c := &Client{
		baseURL:    base,
		agentURL:   base,
		email:      cfg.Email,
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: timeout},
		policy:     retry.DefaultPolicy(),
		logger:     logger.NewLogger().With("component", "zendesk"),
	}
	if cfg.Subdomain != "" {
		c.agentURL = fmt.Sprintf("https://%s.zendesk.com", cfg.Subdomain)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TicketURL is the agent-facing URL of a ticket.
func (c *Client) TicketURL(id int64) string {
	return fmt.Sprintf("%s/agent/tickets/%d", c.agentURL, id)
}

// apiRequest is one Zendesk API call. IdempotencyKey, when set, lets Zendesk
// answer a replayed create with the ticket it already made.
type apiRequest struct {
	Method         string
	Path           string
	Body           any
	Out            any
	IdempotencyKey string
}

func (c *Client) call(ctx context.Context, r apiRequest) error {
	return c.policy.Do(ctx, c.logger, "zendesk "+r.Method+" "+r.Path, func(ctx context.Context) error {
		if err := c.wait(ctx, r.Method, r.Path); err != nil {
			return err
		}
		return c.do(ctx, r)
	})
}

// isWrite reports whether a request changes state. A failed write whose
// outcome is unknown must not be sent again.
func isWrite(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

func (c *Client) wait(ctx context.Context, method, path string) error {
	if c.limiter == nil || c.limit.IsZero() {
		return nil
	}
	allowed, err := c.limiter.Allow(ctx, rateLimitKey, c.limit)
	if err != nil {
		c.logger.Warnw("rate limiter unavailable, sending without budget", "error", err)
		return nil
	}
	if !allowed {
		return upstream(&APIError{Method: method, Path: path, Status: http.StatusTooManyRequests, Title: "local budget exhausted", retryAfter: time.Second})
	}
	return nil
}

func (c *Client) do(ctx context.Context, r apiRequest) error {
	var reader io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.email+"/token", c.token)
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.IdempotencyKey != "" {
		req.Header.Set(HeaderIdempotencyKey, r.IdempotencyKey)
	}

	// Once the request may have reached Zendesk, a write is not repeated.
	retryable := !isWrite(r.Method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewUpstreamError("zendesk "+r.Path, err, retryable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return apperrors.NewUpstreamError("zendesk "+r.Path, fmt.Errorf("failed to read response: %w", err), retryable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: r.Method, Path: r.Path, Status: resp.StatusCode}
		decodeErrorBody(raw, apiErr)
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return upstream(apiErr)
	}

	if r.Out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, r.Out); err != nil {
			return apperrors.NewUpstreamError("zendesk "+r.Path, fmt.Errorf("failed to decode response: %w", err), false)
		}
	}
	return nil
}

// decodeErrorBody understands both error shapes Zendesk returns:
// {"error": "...", "description": "..."} and {"error": {"title": "...", "message": "..."}}.
func decodeErrorBody(raw []byte, apiErr *APIError) {
	var flat struct {
		Error       string `json:"error"`
		Description string `json:"description"`
	}
	if json.Unmarshal(raw, &flat) == nil && flat.Error != "" {
		apiErr.Title = flat.Error
		apiErr.Description = flat.Description
		return
	}
	var nested struct {
		Error struct {
			Title   string `json:"title"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &nested) == nil {
		apiErr.Title = nested.Error.Title
		apiErr.Description = nested.Error.Message
	}
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}
