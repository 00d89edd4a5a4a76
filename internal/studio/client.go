package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"overlay-studio/internal/overlay"
)

// DefaultAPIURL is the overlay server the client talks to by default.
const DefaultAPIURL = "http://localhost:5000"

// DefaultTimeout bounds every request made by Client.
const DefaultTimeout = 10 * time.Second

// Remote operations, as reported by APIError.
const (
	OpList   = "fetch overlays"
	OpCreate = "create overlay"
	OpUpdate = "update overlay"
	OpDelete = "delete overlay"
	OpConfig = "fetch config"
	OpHealth = "check health"
)

// APIError is a failed call against the overlay server. Status is zero when
// no response was received.
type APIError struct {
	Op      string
	Status  int
	Message string // server-provided error text, if any
	Err     error  // transport or decode failure, if any
}

func (e *APIError) Error() string {
	return "failed to " + e.Op
}

// Detail describes the failure including the server's message.
func (e *APIError) Detail() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("failed to %s: %d %s", e.Op, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("failed to %s: status %d", e.Op, e.Status)
	}
	return e.Error()
}

func (e *APIError) Unwrap() error { return e.Err }

// Config is the GET /api/config body.
type Config struct {
	RTSPURL string `json:"rtsp_url"`
}

// Health is the GET /api/health body.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConfigSource supplies the server-side stream configuration.
type ConfigSource interface {
	FetchConfig(ctx context.Context) (Config, error)
}

// Client is the REST Persistence backed by an overlay server.
type Client struct {
	base string
	http *http.Client
}

var (
	_ Persistence  = (*Client)(nil)
	_ ConfigSource = (*Client)(nil)
)

// NewClient returns a client for the server at baseURL. A nil httpClient
// selects one with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// List implements Persistence.
func (c *Client) List(ctx context.Context) ([]overlay.Overlay, error) {
	var list []overlay.Overlay
	if err := c.do(ctx, OpList, http.MethodGet, "/api/overlays", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Create implements Persistence. The server mints the id.
func (c *Client) Create(ctx context.Context, o overlay.Overlay) (overlay.Overlay, error) {
	var created overlay.Overlay
	err := c.do(ctx, OpCreate, http.MethodPost, "/api/overlays", overlay.RequestFromOverlay(o), &created)
	return created, err
}

// Update implements Persistence.
func (c *Client) Update(ctx context.Context, id string, p overlay.Patch) (overlay.Overlay, error) {
	var updated overlay.Overlay
	err := c.do(ctx, OpUpdate, http.MethodPut, "/api/overlays/"+url.PathEscape(id), p, &updated)
	return updated, err
}

// Delete implements Persistence.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, OpDelete, http.MethodDelete, "/api/overlays/"+url.PathEscape(id), nil, nil)
}

// FetchConfig implements ConfigSource.
func (c *Client) FetchConfig(ctx context.Context) (Config, error) {
	var cfg Config
	err := c.do(ctx, OpConfig, http.MethodGet, "/api/config", nil, &cfg)
	return cfg, err
}

// Health queries GET /api/health. An unhealthy server is an *APIError.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, OpHealth, http.MethodGet, "/api/health", nil, &h)
	return h, err
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &APIError{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: op, Status: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb) == nil {
			apiErr.Message = eb.Error
			if apiErr.Message == "" {
				apiErr.Message = eb.Message
			}
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
