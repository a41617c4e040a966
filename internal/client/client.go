// Package client issues suggestion lookups against a tickerfind server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quickfin/tickerfind/internal/search"
)

// Defaults for the lookup client.
const (
	DefaultBaseURL = "http://127.0.0.1:8754"
	DefaultTimeout = 5 * time.Second

	// cap on response body reads
	maxResponseBytes = 1 << 20
)

// Client talks to the tickerfind HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// New creates a lookup client for the given base URL.
// An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// Do NOT set http.Client.Timeout - it would override per-request
	// context deadlines. Timeouts are applied via context in Search.
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     10 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: transport},
		timeout: DefaultTimeout,
	}
}

// Search issues GET /api/search with the query percent-encoded.
// A null or empty response body yields an empty slice. Transport,
// status and decode failures all collapse into a single "lookup failed"
// error; callers log it and render the same outcome as "no matches".
func (c *Client) Search(ctx context.Context, query string) ([]search.Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	endpoint := c.baseURL + "/api/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup failed: server returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}

	var suggestions []search.Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}

	// A JSON null body decodes to a nil slice; treat as no results.
	if suggestions == nil {
		suggestions = []search.Suggestion{}
	}
	return suggestions, nil
}

// Healthy reports whether the server answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (c *Client) Close() {
	if t, ok := c.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}
