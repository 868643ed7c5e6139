package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/logging"
	"github.com/muurk/synapse-topology/internal/server"
	"github.com/muurk/synapse-topology/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second
)

// Render targets accepted by Render.
const (
	RenderHomeserver   = "homeserver"
	RenderReverseProxy = "reverse-proxy"
	RenderDelegation   = "delegation"
)

// Client talks to the wizard API of a topology-server.
type Client struct {
	// BaseURL is the API root (e.g., "http://192.168.1.20:8888/api")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Clients int    `json:"clients"`
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the server is up and returns its health report.
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetState returns the server's current wizard state.
func (c *Client) GetState(ctx context.Context) (*server.StateResponse, error) {
	var st server.StateResponse
	if err := c.do(ctx, http.MethodGet, "/state", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Navigate applies an action on the server.
func (c *Client) Navigate(ctx context.Context, action flow.Action) (*server.StateResponse, error) {
	var st server.StateResponse
	if err := c.do(ctx, http.MethodPost, "/navigate", action, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Check sends the check-base-config action.
func (c *Client) Check(ctx context.Context) (*server.StateResponse, error) {
	var st server.StateResponse
	if err := c.do(ctx, http.MethodPost, "/check", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// UpdateAnswers merges answers onto the server's answers. Fields left at
// their zero value and tagged omitempty keep the server's value.
func (c *Client) UpdateAnswers(ctx context.Context, answers *baseconfig.BaseConfig) (*server.StateResponse, error) {
	var st server.StateResponse
	if err := c.do(ctx, http.MethodPut, "/answers", answers, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Render fetches one rendered artifact as raw bytes.
func (c *Client) Render(ctx context.Context, target string) ([]byte, error) {
	switch target {
	case RenderHomeserver, RenderReverseProxy, RenderDelegation:
	default:
		return nil, fmt.Errorf("unknown render target %q", target)
	}
	return c.send(ctx, http.MethodGet, "/render/"+target, nil)
}

// do sends a JSON request with retries and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewParseError("failed to parse JSON response", err)
	}
	return nil
}

// send performs a request, retrying retryable failures with exponential
// backoff. Only idempotent requests are retried after the server answered.
func (c *Client) send(ctx context.Context, method, path string, in interface{}) ([]byte, error) {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(currentDelay):
			}
			currentDelay *= 2
			if currentDelay > c.MaxRetryDelay {
				currentDelay = c.MaxRetryDelay
			}
		}

		body, err := c.attempt(ctx, method, path, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !IsRetryable(err) || (method == http.MethodPost && !IsNetworkError(err)) {
			return nil, err
		}
		logging.Debug("Retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, lastErr
}

// attempt performs a single request
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, NewNetworkError("failed to create request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	// 4xx responses carry an ErrorResponse describing what was refused
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var e server.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, NewRejectedError(resp.StatusCode, e.Error, e.Field)
		}
	}
	return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
}
