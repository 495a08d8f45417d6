package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Page is a fetched web page converted to markdown
type Page struct {
	URL      string
	Title    string
	Markdown string
	Duration time.Duration
}

// Crawler fetches single web pages
type Crawler struct {
	httpClient *http.Client
	maxSize    int64
	userAgent  string
}

// NewCrawler creates a new crawler instance
func NewCrawler(timeout time.Duration, maxSize int64, userAgent string) *Crawler {
	return &Crawler{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxSize:   maxSize,
		userAgent: userAgent,
	}
}

// Fetch downloads a page and converts its HTML to markdown
func (c *Crawler) Fetch(ctx context.Context, urlStr string) (*Page, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil, fmt.Errorf("non-HTML content type: %s", contentType)
	}

	body, err := ReadLimitedBody(resp.Body, c.maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	title, markdown, err := ExtractMarkdown(body, urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, fmt.Errorf("no readable text at %s", urlStr)
	}

	return &Page{
		URL:      urlStr,
		Title:    title,
		Markdown: markdown,
		Duration: time.Since(start),
	}, nil
}
