// Package apiclient talks to the netpulse HTTP API.
package apiclient

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

	"netpulse/app/internal/models"
)

// DefaultBaseURL is where the server listens with the default PORT
const DefaultBaseURL = "http://localhost:5000"

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// CheckResult is the one-shot probe response. Latency is -1 when the server is down.
type CheckResult struct {
	Server  string  `json:"server"`
	IsUp    bool    `json:"is_up"`
	Latency float64 `json:"latency"`
}

// PollResult is the response of an immediate poll
type PollResult struct {
	Applied bool               `json:"applied"`
	Session models.SessionView `json:"session"`
}

// Client is a thin JSON client for the API
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. A nil httpClient gets a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// BaseURL returns the server address the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Start begins monitoring identifier
func (c *Client) Start(ctx context.Context, identifier string) (models.SessionView, error) {
	var view models.SessionView
	err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]string{"identifier": identifier}, &view)
	return view, err
}

// Stop ends monitoring of identifier
func (c *Client) Stop(ctx context.Context, identifier string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(identifier), nil, nil)
}

// StopAll ends every session and returns how many were stopped
func (c *Client) StopAll(ctx context.Context) (int, error) {
	var out struct {
		Stopped int `json:"stopped"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/sessions", nil, &out)
	return out.Stopped, err
}

// SetThreshold sets the alert threshold of identifier; nil clears it
func (c *Client) SetThreshold(ctx context.Context, identifier string, ms *float64) (models.SessionView, error) {
	var view models.SessionView
	body := map[string]*float64{"threshold": ms}
	err := c.do(ctx, http.MethodPut, "/api/sessions/"+url.PathEscape(identifier)+"/threshold", body, &view)
	return view, err
}

// Poll probes identifier immediately
func (c *Client) Poll(ctx context.Context, identifier string) (PollResult, error) {
	var out PollResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(identifier)+"/poll", nil, &out)
	return out, err
}

// Session returns one session
func (c *Client) Session(ctx context.Context, identifier string) (models.SessionView, error) {
	var view models.SessionView
	err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(identifier), nil, &view)
	return view, err
}

// Sessions lists every session
func (c *Client) Sessions(ctx context.Context) ([]models.SessionView, error) {
	var views []models.SessionView
	err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &views)
	return views, err
}

// Logs returns the newest journal entries, optionally for one identifier
func (c *Client) Logs(ctx context.Context, limit int, identifier string) ([]models.LogEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if identifier != "" {
		q.Set("identifier", identifier)
	}
	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var logs []models.LogEntry
	err := c.do(ctx, http.MethodGet, path, nil, &logs)
	return logs, err
}

// Check probes server once without starting a session
func (c *Client) Check(ctx context.Context, server string) (CheckResult, error) {
	var out CheckResult
	err := c.do(ctx, http.MethodGet, "/check?server="+url.QueryEscape(server), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &msg) == nil {
			apiErr.Message = msg.Error
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
