// Package spaceweather fetches geomagnetic and solar activity data from
// the NOAA Space Weather Prediction Center JSON feeds.
package spaceweather

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://services.swpc.noaa.gov/json"

// Client is a client for the SWPC JSON products.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a new SWPC client.
func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
	}
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client.
func NewClientWithHTTPClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
	}
}

// SetBaseURL sets the base URL for the API (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetPlanetaryKIndex retrieves the 1-minute planetary K-index series.
func (c *Client) GetPlanetaryKIndex() ([]KIndexEntry, error) {
	var entries []KIndexEntry
	if err := c.getJSON("/planetary_k_index_1m.json", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetSolarRegions retrieves the observed solar active regions, reduced to
// the most recent observation date in the batch.
func (c *Client) GetSolarRegions() ([]SunspotRegion, error) {
	var regions []SunspotRegion
	if err := c.getJSON("/solar_regions.json", &regions); err != nil {
		return nil, err
	}
	return LatestRegions(regions), nil
}

// getJSON performs the actual API request and decodes the response body.
func (c *Client) getJSON(path string, out any) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Operation: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
