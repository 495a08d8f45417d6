package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/itsharex/gpt-4-search/internal/search"
)

// DefaultSearchResults is the number of hits requested per SEARCH call
const DefaultSearchResults = 5

// SearchTool implements SEARCH(query: string)
type SearchTool struct {
	searcher   search.Searcher
	links      *search.Links
	maxResults int
	logger     *zap.Logger
}

// NewSearchTool creates the SEARCH tool. Every surfaced result is recorded in links.
func NewSearchTool(searcher search.Searcher, links *search.Links, maxResults int, logger *zap.Logger) *SearchTool {
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchTool{
		searcher:   searcher,
		links:      links,
		maxResults: maxResults,
		logger:     logger.Named("search"),
	}
}

func (t *SearchTool) Name() string { return "SEARCH" }

func (t *SearchTool) Args() string { return "(query: string)" }

func (t *SearchTool) Description() string {
	return "searches the web, and returns the top snippets, it'll be better if the query string is in english"
}

// Invoke runs the search and renders one "[id] title\nsnippet\n" block per hit
func (t *SearchTool) Invoke(ctx context.Context, raw string) (string, error) {
	query := strings.ReplaceAll(raw, `"`, "")

	results, err := t.searcher.Search(ctx, query, t.maxResults)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, r := range results {
		id := t.links.Add(r.URL, query)
		fmt.Fprintf(&sb, "[%d] %s\n%s\n", id, r.Title, r.Snippet)
	}

	t.logger.Info("links recorded",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Int("total_links", t.links.Len()),
	)
	return sb.String(), nil
}
