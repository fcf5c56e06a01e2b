// Package apiclient provides a client for the streambuf admin API.
package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marmos91/streambuf/pkg/accumulator"
)

// Client is the streambuf admin API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client for baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithTimeout returns a copy of the client using timeout for every request.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Health is the liveness probe payload.
type Health struct {
	Status    string `json:"status" yaml:"status"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Data      struct {
		Service    string `json:"service" yaml:"service"`
		InstanceID string `json:"instance_id" yaml:"instance_id"`
		StartedAt  string `json:"started_at" yaml:"started_at"`
		Uptime     string `json:"uptime" yaml:"uptime"`
		UptimeSec  int64  `json:"uptime_sec" yaml:"uptime_sec"`
	} `json:"data" yaml:"data"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ClearAllResult is the response of ClearUser.
type ClearAllResult struct {
	UserID  int64 `json:"user_id" yaml:"user_id"`
	Cleared int   `json:"cleared" yaml:"cleared"`
}

// Health calls GET /health.
func (c *Client) Health() (*Health, error) {
	var h Health
	if err := c.do(http.MethodGet, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Stats calls GET /api/v1/stats.
func (c *Client) Stats() (*accumulator.Stats, error) {
	var s accumulator.Stats
	if err := c.do(http.MethodGet, "/api/v1/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Session calls GET /api/v1/users/{userID}/sessions/{sessionID}.
func (c *Client) Session(userID, sessionID int64) (*accumulator.SessionInfo, error) {
	var info accumulator.SessionInfo
	if err := c.do(http.MethodGet, sessionPath(userID, sessionID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ClearSession calls DELETE /api/v1/users/{userID}/sessions/{sessionID}.
func (c *Client) ClearSession(userID, sessionID int64) error {
	return c.do(http.MethodDelete, sessionPath(userID, sessionID), nil)
}

// ClearUser calls DELETE /api/v1/users/{userID}/sessions.
func (c *Client) ClearUser(userID int64) (*ClearAllResult, error) {
	var res ClearAllResult
	if err := c.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d/sessions", userID), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Sweep calls POST /api/v1/sweep.
func (c *Client) Sweep() (*accumulator.SweepResult, error) {
	var res accumulator.SweepResult
	if err := c.do(http.MethodPost, "/api/v1/sweep", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func sessionPath(userID, sessionID int64) string {
	return fmt.Sprintf("/api/v1/users/%d/sessions/%d", userID, sessionID)
}

// do performs an HTTP request and decodes the response into result.
// Error statuses are returned as *APIError.
func (c *Client) do(method, path string, result any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Title == "" {
			apiErr.Title = http.StatusText(resp.StatusCode)
			apiErr.Detail = string(body)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
