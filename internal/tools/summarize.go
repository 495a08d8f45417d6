package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/itsharex/gpt-4-search/internal/crawler"
	"github.com/itsharex/gpt-4-search/internal/search"
)

// DefaultSummaryTopK is the number of chunks kept per page
const DefaultSummaryTopK = 2

// Fetcher downloads a page and converts it to markdown
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*crawler.Page, error)
}

// Splitter cuts page text into chunks
type Splitter interface {
	Split(text string) ([]string, error)
}

// Ranker orders chunks by similarity to a query
type Ranker interface {
	Rank(ctx context.Context, query string, chunks []string, k int) ([]string, error)
}

// SummarizeTool implements SUMMARIZE(snippet_ids: uint[])
type SummarizeTool struct {
	links    *search.Links
	fetcher  Fetcher
	splitter Splitter
	ranker   Ranker
	topK     int
	logger   *zap.Logger
}

// NewSummarizeTool creates the SUMMARIZE tool
func NewSummarizeTool(links *search.Links, fetcher Fetcher, splitter Splitter, ranker Ranker, topK int, logger *zap.Logger) *SummarizeTool {
	if topK <= 0 {
		topK = DefaultSummaryTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummarizeTool{
		links:    links,
		fetcher:  fetcher,
		splitter: splitter,
		ranker:   ranker,
		topK:     topK,
		logger:   logger.Named("summarize"),
	}
}

func (t *SummarizeTool) Name() string { return "SUMMARIZE" }

func (t *SummarizeTool) Args() string { return "(snippet_ids: uint[])" }

func (t *SummarizeTool) Description() string {
	return "click into the search result, useful when you want to investigate the detail of the search result"
}

// Invoke decodes a JSON array of link ids and returns the most relevant chunks
// of each linked page. Ids that fail for any reason are logged and skipped.
func (t *SummarizeTool) Invoke(ctx context.Context, raw string) (string, error) {
	var ids []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &ids); err != nil {
		return "", fmt.Errorf("invalid snippet ids %q: %w", raw, err)
	}

	var sb strings.Builder
	for _, id := range ids {
		top, err := t.summarizeOne(ctx, id)
		if err != nil {
			t.logger.Error("skipping snippet", zap.Int("id", id), zap.Error(err))
			continue
		}
		fmt.Fprintf(&sb, "[%d]\n%s\n", id, strings.Join(top, "\n"))
	}
	return sb.String(), nil
}

func (t *SummarizeTool) summarizeOne(ctx context.Context, id int) ([]string, error) {
	link, err := t.links.Get(id)
	if err != nil {
		return nil, err
	}

	page, err := t.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return nil, err
	}

	chunks, err := t.splitter.Split(page.Markdown)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", link.URL, err)
	}
	top, err := t.ranker.Rank(ctx, link.Query, chunks, t.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to rank %s: %w", link.URL, err)
	}
	return top, nil
}
