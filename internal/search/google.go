package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultGoogleEndpoint = "https://www.googleapis.com/customsearch/v1"

// Google queries the Google Custom Search JSON API
type Google struct {
	endpoint   string
	apiKey     string
	engineID   string
	httpClient *http.Client
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// NewGoogle creates a Custom Search client. An empty endpoint selects the public API.
func NewGoogle(endpoint, apiKey, engineID string, timeout time.Duration) *Google {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultGoogleEndpoint
	}
	return &Google{
		endpoint:   endpoint,
		apiKey:     apiKey,
		engineID:   engineID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search returns up to maxResults hits (the API caps a page at 10)
func (g *Google) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	limit := maxResults
	if limit <= 0 {
		limit = 5
	}
	if limit > 10 {
		limit = 10
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create web search request: %w", err)
	}

	values := url.Values{}
	values.Set("key", g.apiKey)
	values.Set("cx", g.engineID)
	values.Set("q", query)
	values.Set("num", strconv.Itoa(limit))
	req.URL.RawQuery = values.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search request failed: status %s", resp.Status)
	}

	var payload googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode web search response: %w", err)
	}

	results := make([]Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, Result{
			Title:   strings.TrimSpace(item.Title),
			URL:     strings.TrimSpace(item.Link),
			Snippet: strings.TrimSpace(item.Snippet),
		})
	}
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
