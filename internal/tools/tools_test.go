package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/itsharex/gpt-4-search/internal/crawler"
	"github.com/itsharex/gpt-4-search/internal/sandbox"
	"github.com/itsharex/gpt-4-search/internal/search"
)

type fakeSearcher struct {
	results    []search.Result
	err        error
	gotQueries []string
	gotMax     int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	f.gotQueries = append(f.gotQueries, query)
	f.gotMax = maxResults
	return f.results, f.err
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*crawler.Page, error) {
	md, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: status 404", url)
	}
	return &crawler.Page{URL: url, Markdown: md}, nil
}

// lineSplitter cuts on newlines
type lineSplitter struct{}

func (lineSplitter) Split(text string) ([]string, error) {
	return strings.Split(text, "\n"), nil
}

type failingSplitter struct{}

func (failingSplitter) Split(text string) ([]string, error) {
	return nil, errors.New("failed to load token encoding")
}

// firstRanker keeps the first k chunks and records the queries it saw
type firstRanker struct {
	queries []string
}

func (r *firstRanker) Rank(ctx context.Context, query string, chunks []string, k int) ([]string, error) {
	r.queries = append(r.queries, query)
	if k > len(chunks) {
		k = len(chunks)
	}
	return chunks[:k], nil
}

type fakeRunner struct {
	out string
	err error
	got string
}

func (f *fakeRunner) Run(ctx context.Context, code string) (string, error) {
	f.got = code
	return f.out, f.err
}

func TestRegistry(t *testing.T) {
	links := search.NewLinks()
	s := NewSearchTool(&fakeSearcher{}, links, 0, nil)
	p := NewPythonTool(&fakeRunner{}, nil)

	r, err := NewRegistry(s, p)
	require.NoError(t, err)

	got, ok := r.Lookup("SEARCH")
	assert.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Lookup("search")
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "SEARCH", all[0].Name())
	assert.Equal(t, "PYTHON", all[1].Name())

	assert.Error(t, r.Register(NewPythonTool(&fakeRunner{}, nil)))
}

func TestSearchTool(t *testing.T) {
	fs := &fakeSearcher{results: []search.Result{
		{Title: "Weather", URL: "https://a.example", Snippet: "Sunny"},
		{Title: "Forecast", URL: "https://b.example"},
	}}
	links := search.NewLinks()
	tool := NewSearchTool(fs, links, 0, nil)

	out, err := tool.Invoke(context.Background(), `"weather today"`)
	require.NoError(t, err)

	assert.Equal(t, "[0] Weather\nSunny\n[1] Forecast\n\n", out)
	assert.Equal(t, []string{"weather today"}, fs.gotQueries)
	assert.Equal(t, DefaultSearchResults, fs.gotMax)

	link, err := links.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", link.URL)
	assert.Equal(t, "weather today", link.Query)
}

func TestSearchTool_IDsContinueAcrossCalls(t *testing.T) {
	fs := &fakeSearcher{results: []search.Result{
		{Title: "A", URL: "https://a.example"},
		{Title: "B", URL: "https://b.example"},
	}}
	links := search.NewLinks()
	tool := NewSearchTool(fs, links, 5, nil)

	_, err := tool.Invoke(context.Background(), `"first"`)
	require.NoError(t, err)
	out, err := tool.Invoke(context.Background(), `"second"`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "[2] A\n"))
	assert.Contains(t, out, "[3] B\n")
	assert.Equal(t, 4, links.Len())
}

func TestSearchTool_UpstreamError(t *testing.T) {
	upstream := errors.New("quota exceeded")
	links := search.NewLinks()
	tool := NewSearchTool(&fakeSearcher{err: upstream}, links, 5, nil)

	_, err := tool.Invoke(context.Background(), `"x"`)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 0, links.Len())
}

func TestSummarizeTool_SkipsUnknownIDs(t *testing.T) {
	links := search.NewLinks()
	links.Add("https://a.example", "weather today")

	core, logs := observer.New(zap.ErrorLevel)
	ranker := &firstRanker{}
	tool := NewSummarizeTool(links,
		&fakeFetcher{pages: map[string]string{"https://a.example": "sunny\nwarm\nwindy"}},
		lineSplitter{}, ranker, 0, zap.New(core))

	out, err := tool.Invoke(context.Background(), "[0, 99]")
	require.NoError(t, err)

	assert.Equal(t, "[0]\nsunny\nwarm\n", out)
	assert.Equal(t, []string{"weather today"}, ranker.queries)

	skipped := logs.FilterMessage("skipping snippet").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, int64(99), skipped[0].ContextMap()["id"])
}

func TestSummarizeTool_FetchFailureSkipped(t *testing.T) {
	links := search.NewLinks()
	links.Add("https://gone.example", "q1")
	links.Add("https://ok.example", "q2")

	tool := NewSummarizeTool(links,
		&fakeFetcher{pages: map[string]string{"https://ok.example": "only"}},
		lineSplitter{}, &firstRanker{}, 2, nil)

	out, err := tool.Invoke(context.Background(), "[0,1]")
	require.NoError(t, err)
	assert.Equal(t, "[1]\nonly\n", out)
}

func TestSummarizeTool_AllFail(t *testing.T) {
	tool := NewSummarizeTool(search.NewLinks(), &fakeFetcher{}, lineSplitter{}, &firstRanker{}, 2, nil)

	out, err := tool.Invoke(context.Background(), "[3]")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSummarizeTool_MalformedArgs(t *testing.T) {
	tool := NewSummarizeTool(search.NewLinks(), &fakeFetcher{}, lineSplitter{}, &firstRanker{}, 2, nil)

	for _, raw := range []string{"0, 1", `"[0]"`, "[a]", ""} {
		_, err := tool.Invoke(context.Background(), raw)
		assert.Error(t, err, raw)
	}
}

func TestPythonTool(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		runOut  string
		runErr  error
		want    string
		wantErr error
	}{
		{
			name:   "output passed through",
			raw:    `"""print(1+1)"""`,
			runOut: "2\n",
			want:   "2\n",
		},
		{
			name:    "no code block",
			raw:     `"print(1)"`,
			wantErr: sandbox.ErrNoCode,
		},
		{
			name:    "timeout propagates",
			raw:     `"""while True: pass"""`,
			runErr:  fmt.Errorf("%w (>5s)", sandbox.ErrTimeout),
			wantErr: sandbox.ErrTimeout,
		},
		{
			name:   "other failures become a hint",
			raw:    `"""print(1)"""`,
			runErr: errors.New("failed to run python3: executable file not found"),
			want:   "failed to run python3: executable file not found\ntry again and optimize the code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: tt.runOut, err: tt.runErr}
			tool := NewPythonTool(runner, nil)

			got, err := tool.Invoke(context.Background(), tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPythonTool_PassesExtractedCode(t *testing.T) {
	runner := &fakeRunner{}
	tool := NewPythonTool(runner, nil)

	_, err := tool.Invoke(context.Background(), "\"\"\"\nx = 3\nprint(x * 2)\n\"\"\"")
	require.NoError(t, err)
	assert.Equal(t, "\nx = 3\nprint(x * 2)\n", runner.got)
}

func TestSummarizeTool_SplitterFailureSkipped(t *testing.T) {
	links := search.NewLinks()
	links.Add("https://a.example", "q")

	tool := NewSummarizeTool(links,
		&fakeFetcher{pages: map[string]string{"https://a.example": "text"}},
		failingSplitter{}, &firstRanker{}, 2, nil)

	out, err := tool.Invoke(context.Background(), "[0]")
	require.NoError(t, err)
	assert.Empty(t, out)
}
