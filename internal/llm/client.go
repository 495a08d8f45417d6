package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/itsharex/gpt-4-search/internal/conversation"
)

// Config holds the model and pricing settings for a Client
type Config struct {
	BaseURL     string
	ChatModel   string
	EmbedModel  string
	Temperature float64
	Timeout     time.Duration

	// Prices per 1000 tokens, used only for the cost log line
	CostPer1KInput  float64
	CostPer1KOutput float64
}

// Usage is the token accounting of a single chat call
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Cost prices u with the given per-1K rates
func (u Usage) Cost(per1KInput, per1KOutput float64) float64 {
	return float64(u.PromptTokens)/1000*per1KInput + float64(u.CompletionTokens)/1000*per1KOutput
}

// Client talks to an Ollama server for chat completions and embeddings
type Client struct {
	api    *api.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a new client for the server at cfg.BaseURL
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q: missing scheme or host", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:    api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		cfg:    cfg,
		logger: logger.Named("llm"),
	}, nil
}

// Chat sends the conversation to the chat model.
// When onToken is non-nil the response is streamed and every fragment is
// passed to it as it arrives; otherwise a single blocking call is made.
// The full response text is returned in both cases.
func (c *Client) Chat(ctx context.Context, msgs []conversation.Message, onToken func(string)) (string, error) {
	stream := onToken != nil
	req := &api.ChatRequest{
		Model:    c.cfg.ChatModel,
		Messages: toAPIMessages(msgs),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": c.cfg.Temperature,
		},
	}

	c.logger.Info("gpt-context", zap.Int("messages", len(msgs)), zap.String("context", renderContext(msgs)))

	var (
		full  strings.Builder
		usage Usage
	)
	start := time.Now()
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			full.WriteString(resp.Message.Content)
			if onToken != nil {
				onToken(resp.Message.Content)
			}
		}
		if resp.Done {
			usage = Usage{
				PromptTokens:     resp.Metrics.PromptEvalCount,
				CompletionTokens: resp.Metrics.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	response := full.String()
	c.logger.Info("gpt-response",
		zap.String("response", response),
		zap.Duration("duration", time.Since(start)),
	)
	c.logger.Info("cost",
		zap.String("model", c.cfg.ChatModel),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Int("total_tokens", usage.PromptTokens+usage.CompletionTokens),
		zap.Float64("cost", usage.Cost(c.cfg.CostPer1KInput, c.cfg.CostPer1KOutput)),
	)

	return response, nil
}

// Embed returns one embedding per input text, in input order
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.cfg.EmbedModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

// HealthCheck verifies the server is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.api.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama is not reachable: %w", err)
	}
	return nil
}

// ListModels returns the names of the locally available models
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether name is available, ignoring a missing ":latest" tag
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	names, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name || strings.TrimSuffix(n, ":latest") == name {
			return true, nil
		}
	}
	return false, nil
}

func toAPIMessages(msgs []conversation.Message) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, api.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func renderContext(msgs []conversation.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
