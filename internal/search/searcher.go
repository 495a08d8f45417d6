package search

import (
	"context"
)

// Result is a single search hit
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher runs a web search and returns at most maxResults hits
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// HealthChecker is implemented by backends that can be probed at startup
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
