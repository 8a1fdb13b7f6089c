// Package api is the TaskFlow REST client. Each service method issues
// exactly one HTTP call and returns the unwrapped payload; caching and
// retries belong to the query layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// TokenSource returns the current bearer token, or "" when signed out
type TokenSource func() string

// Client talks to the TaskFlow API
type Client struct {
	baseURL string
	token   TokenSource
	client  *http.Client

	Auth     *AuthService
	Projects *ProjectService
	Tasks    *TaskService
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithToken sets where the bearer token comes from
func WithToken(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   func() string { return "" },
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Auth = &AuthService{client: c}
	c.Projects = &ProjectService{client: c}
	c.Tasks = &TaskService{client: c}
	return c
}

// BaseURL returns the API root the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the server's response wrapper. Some endpoints answer with the
// bare payload instead, in which case Success is nil.
type envelope struct {
	Success     *bool           `json:"success"`
	Data        json.RawMessage `json:"data"`
	AccessToken string          `json:"access_token"`
	Message     string          `json:"message"`

	raw []byte
}

func (e *envelope) payload() []byte {
	if e.Success == nil {
		return e.raw
	}
	return e.Data
}

func (e *envelope) decode(v any) error {
	p := e.payload()
	if len(bytes.TrimSpace(p)) == 0 || bytes.Equal(p, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(p, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseError(resp, respBody, requestID)
		log.Printf("warning: %s %s failed (%d, request %s): %v", method, path, resp.StatusCode, requestID, apiErr)
		return nil, apiErr
	}

	env := &envelope{raw: respBody}
	if trimmed := bytes.TrimSpace(respBody); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(respBody, env); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return env, nil
}
