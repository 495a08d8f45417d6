package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/itsharex/gpt-4-search/internal/conversation"
)

type chatCapture struct {
	Model    string `json:"model"`
	Stream   *bool  `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Options map[string]any `json:"options"`
}

func newTestClient(t *testing.T, handler http.Handler, logger *zap.Logger) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:         srv.URL,
		ChatModel:       "llama3",
		EmbedModel:      "nomic-embed-text",
		CostPer1KInput:  0.03,
		CostPer1KOutput: 0.06,
	}, logger)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "localhost"}, nil)
	assert.Error(t, err)
}

func TestChat_Streaming(t *testing.T) {
	var got chatCapture
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":"SEARCH("},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":"\"weather\")"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":""},"done":true,"prompt_eval_count":1000,"eval_count":500}`)
	})

	core, logs := observer.New(zap.InfoLevel)
	c := newTestClient(t, mux, zap.New(core))

	var tokens []string
	resp, err := c.Chat(context.Background(), []conversation.Message{
		{Role: conversation.RoleUser, Content: "Q:weather"},
	}, func(tok string) { tokens = append(tokens, tok) })
	require.NoError(t, err)

	assert.Equal(t, `SEARCH("weather")`, resp)
	assert.Equal(t, []string{"SEARCH(", `"weather")`}, tokens)

	require.NotNil(t, got.Stream)
	assert.True(t, *got.Stream)
	assert.Equal(t, "llama3", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, float64(0), got.Options["temperature"])

	costs := logs.FilterMessage("cost").All()
	require.Len(t, costs, 1)
	fields := costs[0].ContextMap()
	assert.Equal(t, int64(1000), fields["prompt_tokens"])
	assert.Equal(t, int64(500), fields["completion_tokens"])
	assert.InDelta(t, 0.06, fields["cost"], 1e-9)
	assert.Len(t, logs.FilterMessage("gpt-context").All(), 1)
	assert.Len(t, logs.FilterMessage("gpt-response").All(), 1)
}

func TestChat_Blocking(t *testing.T) {
	var got chatCapture
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama3","message":{"role":"assistant","content":"a summary"},"done":true}`)
	})

	c := newTestClient(t, mux, nil)

	resp, err := c.Chat(context.Background(), []conversation.Message{
		{Role: conversation.RoleUser, Content: "summarize"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a summary", resp)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
}

func TestChat_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'llama3' not found"}`)
	})

	c := newTestClient(t, mux, nil)

	_, err := c.Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat request failed")
}

func TestEmbed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			embeddings[i] = []float32{float32(i), 1}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": embeddings,
		}))
	})

	c := newTestClient(t, mux, nil)

	got, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, got)

	none, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestEmbed_CountMismatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"nomic-embed-text","embeddings":[[1,2]]}`)
	})

	c := newTestClient(t, mux, nil)

	_, err := c.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "mismatch")
}

func TestHealthCheckAndModels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Ollama is running")
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"models":[{"name":"llama3:latest","model":"llama3:latest"},{"name":"nomic-embed-text:v1.5","model":"nomic-embed-text:v1.5"}]}`)
	})

	c := newTestClient(t, mux, nil)

	require.NoError(t, c.HealthCheck(context.Background()))

	names, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:latest", "nomic-embed-text:v1.5"}, names)

	ok, err := c.HasModel(context.Background(), "llama3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.HasModel(context.Background(), "mistral")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsageCost(t *testing.T) {
	u := Usage{PromptTokens: 2000, CompletionTokens: 1000}
	assert.InDelta(t, 0.12, u.Cost(0.03, 0.06), 1e-9)
}
