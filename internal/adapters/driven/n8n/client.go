// Package n8n provides a RemoteWorkflowStore backed by the N8N public REST API.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.RemoteWorkflowStore = (*Client)(nil)

// Default configuration values.
const (
	APIPrefix      = "/api/v1"
	DefaultTimeout = 30 * time.Second

	// HeaderAPIKey carries the API key on every request.
	HeaderAPIKey = "X-N8N-API-KEY" //nolint:gosec // G101: header name, not a credential

	// listPageSize is the page size requested from the list endpoint.
	listPageSize = 100
)

// Config holds configuration for the N8N client.
type Config struct {
	// BaseURL is the N8N origin, e.g. https://n8n.example.com (required).
	BaseURL string

	// APIKey is the N8N public API key (required).
	APIKey string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// RatePerSecond and Burst configure proactive throttling.
	RatePerSecond float64
	Burst         int

	// FailureThreshold is the number of consecutive failures that opens
	// the circuit breaker (default: 5).
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing again
	// (default: 30s).
	OpenTimeout time.Duration

	// HTTPClient overrides the underlying HTTP client. Its Timeout is
	// replaced by Timeout.
	HTTPClient *http.Client
}

// Client talks to the N8N public API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *RateLimiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a new N8N client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("n8n: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("n8n: API key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		clientCopy := *cfg.HTTPClient
		httpClient = &clientCopy
	}
	httpClient.Timeout = cfg.Timeout

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "n8n",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("%s circuit breaker: %s -> %s", name, from, to)
		},
		IsSuccessful: isBreakerSuccess,
	})

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + APIPrefix,
		apiKey:  cfg.APIKey,
		limiter: NewRateLimiter(cfg.RatePerSecond, cfg.Burst),
		breaker: breaker,
	}, nil
}

// Get fetches one workflow.
func (c *Client) Get(ctx context.Context, id string) (*driven.RemoteWorkflow, error) {
	var resp workflowResponse
	if err := c.do(ctx, http.MethodGet, workflowPath(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toRemote()
}

// Update replaces name, nodes, connections and settings of a workflow.
// Server-managed fields are never sent.
func (c *Client) Update(ctx context.Context, id string, wf domain.Workflow) (*driven.RemoteWorkflow, error) {
	body := newWorkflowRequest(wf)

	var resp workflowResponse
	if err := c.do(ctx, http.MethodPut, workflowPath(id), body, &resp); err != nil {
		return nil, err
	}
	return resp.toRemote()
}

// List returns all workflows, following nextCursor pagination.
func (c *Client) List(ctx context.Context) ([]driven.WorkflowSummary, error) {
	var out []driven.WorkflowSummary
	cursor := ""
	for {
		path := fmt.Sprintf("/workflows?limit=%d", listPageSize)
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}

		for _, w := range page.Data {
			out = append(out, w.toSummary())
		}

		if page.NextCursor == nil || *page.NextCursor == "" {
			return out, nil
		}
		cursor = *page.NextCursor
	}
}

// do sends one request through the rate limiter and circuit breaker.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrCircuitOpen, method, path, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("n8n: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("n8n: create request: %w", err)
	}
	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("n8n %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger.Debug("n8n %s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(started).Round(time.Millisecond))

	if err := c.limiter.CheckRateLimit(resp); err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxErrorBody))
		return newAPIError(method, path, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("n8n %s %s: decode response: %w", method, path, err)
	}
	return nil
}

// isBreakerSuccess keeps client errors (bad ID, bad payload) from
// opening the breaker; only transport failures and 5xx count.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

func workflowPath(id string) string {
	return "/workflows/" + url.PathEscape(id)
}
