package botplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPClient wraps http.Client with timeout and the scramble API routes.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		timeout: timeout,
	}
}

// do sends a JSON request and decodes the JSON response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, headers map[string]string) (int, error) {
	var rdr io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Health checks the service liveness endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

// Rules reads the scoring parameters from /stats.
func (c *HTTPClient) Rules(ctx context.Context) (rules, error) {
	var r rules
	status, err := c.do(ctx, http.MethodGet, "/stats", nil, &r, nil)
	if err != nil {
		return r, err
	}
	if status != StatusOK {
		return r, fmt.Errorf("stats failed with status: %d", status)
	}
	return r, nil
}

// Categories lists the server's categories.
func (c *HTTPClient) Categories(ctx context.Context) ([]category, error) {
	var out struct {
		Categories []category `json:"categories"`
	}
	status, err := c.do(ctx, http.MethodGet, "/v1/categories", nil, &out, nil)
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		return nil, fmt.Errorf("categories failed with status: %d", status)
	}
	return out.Categories, nil
}

// CreateSession starts a session for player.
func (c *HTTPClient) CreateSession(ctx context.Context, player string) (*snapshot, error) {
	var out actionResponse
	status, err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]string{"player": player}, &out, nil)
	if err != nil {
		return nil, err
	}
	if status != StatusCreated || out.Snapshot == nil {
		return nil, fmt.Errorf("create session failed with status %d: %s", status, out.Message)
	}
	return out.Snapshot, nil
}

// Snapshot reads a session.
func (c *HTTPClient) Snapshot(ctx context.Context, id string) (*snapshot, error) {
	var out actionResponse
	status, err := c.do(ctx, http.MethodGet, "/v1/sessions/"+id, nil, &out, nil)
	if err != nil {
		return nil, err
	}
	if status != StatusOK || out.Snapshot == nil {
		return nil, fmt.Errorf("snapshot failed with status %d: %s", status, out.Message)
	}
	return out.Snapshot, nil
}

// Action posts one player action with a fresh idempotency key. Refusals that
// carry a snapshot, such as a guess after the clock ran out, are returned in
// the response with their status rather than as errors.
func (c *HTTPClient) Action(ctx context.Context, id, method, route string, body any) (*actionResponse, int, error) {
	var out actionResponse
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	status, err := c.do(ctx, method, "/v1/sessions/"+id+route, body, &out, headers)
	if err != nil {
		return nil, status, err
	}
	if out.Snapshot == nil {
		return &out, status, fmt.Errorf("%s %s failed with status %d: %s", method, route, status, out.Message)
	}
	return &out, status, nil
}

// CloseSession ends a session.
func (c *HTTPClient) CloseSession(ctx context.Context, id string) error {
	status, err := c.do(ctx, http.MethodDelete, "/v1/sessions/"+id, nil, nil, nil)
	if err != nil {
		return err
	}
	if status != StatusNoContent {
		return fmt.Errorf("close session failed with status: %d", status)
	}
	return nil
}
