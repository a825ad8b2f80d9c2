package icons

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client fetches the icon list from the upstream registry endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a registry client for the given base URL
// (e.g. "http://badge-registry:5001"). The icon list is read from
// GET <base>/predefined-icons.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Fetch retrieves the current icon codes from the upstream registry.
// The request is bound to ctx, so a cancelled caller aborts the fetch.
func (c *Client) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predefined-icons", nil)
	if err != nil {
		return nil, fmt.Errorf("icons: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("icons: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icons: registry returned status %d", resp.StatusCode)
	}

	var payload struct {
		Icons []string `json:"icons"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("icons: decode response: %w", err)
	}
	return payload.Icons, nil
}
