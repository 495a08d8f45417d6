package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every flag name to form its environment variable
const EnvPrefix = "GPT4SEARCH"

// Search providers
const (
	ProviderSearXNG = "searxng"
	ProviderGoogle  = "google"
)

// Config holds all application configuration
type Config struct {
	// Ollama settings
	OllamaURL       string
	ModelName       string
	EmbedModel      string
	OllamaTimeout   time.Duration
	Temperature     float64
	CostPer1KInput  float64
	CostPer1KOutput float64

	// Search settings
	SearchProvider string
	SearXNGURL     string
	GoogleAPIKey   string
	GoogleCSEID    string
	GoogleEndpoint string
	SearchTimeout  time.Duration
	MaxResults     int

	// Fetch settings
	FetchTimeout   time.Duration
	MaxContentSize int64
	UserAgent      string

	// Summarize settings
	ChunkTokens   int
	TokenEncoding string
	SummaryTopK   int

	// Sandbox settings
	Python      string
	ExecTimeout time.Duration

	// Agent settings
	MaxSteps int

	// Output settings
	LogFile        string
	LogLevel       string
	RenderMarkdown bool
	Verbose        bool
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Ollama defaults
		OllamaURL:     "http://localhost:11434",
		ModelName:     "llama3.1:8b",
		EmbedModel:    "nomic-embed-text",
		OllamaTimeout: 120 * time.Second,
		Temperature:   0,

		// Search defaults
		SearchProvider: ProviderSearXNG,
		SearXNGURL:     "http://localhost:9090",
		GoogleEndpoint: "https://www.googleapis.com/customsearch/v1",
		SearchTimeout:  10 * time.Second,
		MaxResults:     5,

		// Fetch defaults
		FetchTimeout:   15 * time.Second,
		MaxContentSize: 5 * 1024 * 1024, // 5 MB
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_11_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/50.0.2661.102 Safari/537.36",

		// Summarize defaults
		ChunkTokens:   200,
		TokenEncoding: "cl100k_base",
		SummaryTopK:   2,

		// Sandbox defaults
		Python:      "python3",
		ExecTimeout: 5 * time.Second,

		MaxSteps: 15,

		LogFile:  "gpt-search.log",
		LogLevel: "info",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OllamaURL == "" {
		return fmt.Errorf("ollama URL cannot be empty")
	}
	if c.ModelName == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if c.EmbedModel == "" {
		return fmt.Errorf("embedding model name cannot be empty")
	}
	switch c.SearchProvider {
	case ProviderSearXNG:
		if c.SearXNGURL == "" {
			return fmt.Errorf("searxng URL cannot be empty")
		}
	case ProviderGoogle:
		if c.GoogleAPIKey == "" || c.GoogleCSEID == "" {
			return fmt.Errorf("google search requires GOOGLE_API_KEY and GOOGLE_CSE_ID")
		}
	default:
		return fmt.Errorf("unknown search provider %q (want %s or %s)", c.SearchProvider, ProviderSearXNG, ProviderGoogle)
	}
	if c.MaxResults < 1 || c.MaxResults > 10 {
		return fmt.Errorf("max results must be between 1 and 10")
	}
	if c.ChunkTokens < 1 {
		return fmt.Errorf("chunk tokens must be at least 1")
	}
	if c.SummaryTopK < 1 {
		return fmt.Errorf("summary top-k must be at least 1")
	}
	if c.ExecTimeout <= 0 {
		return fmt.Errorf("exec timeout must be positive")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max steps cannot be negative")
	}
	return nil
}

// RegisterFlags defines one flag per setting, defaulting to the values in cfg
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("ollama-url", cfg.OllamaURL, "Ollama server URL (env OLLAMA_HOST)")
	fs.StringP("model", "m", cfg.ModelName, "chat model")
	fs.String("embed-model", cfg.EmbedModel, "embedding model")
	fs.Duration("timeout", cfg.OllamaTimeout, "Ollama request timeout")
	fs.Float64("temperature", cfg.Temperature, "sampling temperature")
	fs.Float64("cost-per-1k-input", cfg.CostPer1KInput, "price per 1000 prompt tokens, for the cost log")
	fs.Float64("cost-per-1k-output", cfg.CostPer1KOutput, "price per 1000 completion tokens, for the cost log")

	fs.String("search-provider", cfg.SearchProvider, "search backend: searxng or google")
	fs.String("searxng-url", cfg.SearXNGURL, "SearXNG instance URL (env SEARXNG_URL)")
	fs.String("google-api-key", cfg.GoogleAPIKey, "Google Custom Search API key (env GOOGLE_API_KEY)")
	fs.String("google-cse-id", cfg.GoogleCSEID, "Google Custom Search engine id (env GOOGLE_CSE_ID)")
	fs.String("google-endpoint", cfg.GoogleEndpoint, "Google Custom Search endpoint")
	fs.Duration("search-timeout", cfg.SearchTimeout, "search request timeout")
	fs.Int("max-results", cfg.MaxResults, "results per search (1-10)")

	fs.Duration("fetch-timeout", cfg.FetchTimeout, "page fetch timeout")
	fs.Int64("max-content-size", cfg.MaxContentSize, "maximum page size in bytes")
	fs.String("user-agent", cfg.UserAgent, "User-Agent for page fetches")

	fs.Int("chunk-tokens", cfg.ChunkTokens, "maximum tokens per page chunk")
	fs.String("token-encoding", cfg.TokenEncoding, "tiktoken encoding used to count tokens")
	fs.Int("summary-top-k", cfg.SummaryTopK, "chunks kept per summarized page")

	fs.String("python", cfg.Python, "python interpreter for the PYTHON tool")
	fs.Duration("exec-timeout", cfg.ExecTimeout, "code execution timeout")

	fs.Int("max-steps", cfg.MaxSteps, "model calls per question, 0 for unlimited")

	fs.String("log-file", cfg.LogFile, "log file path")
	fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.Bool("render-markdown", cfg.RenderMarkdown, "render final answers as markdown")
	fs.BoolP("verbose", "v", cfg.Verbose, "print startup details")
}

// Load resolves every setting from flags, then environment, then defaults.
// Each flag "foo-bar" is also read from GPT4SEARCH_FOO_BAR.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	wellKnown := map[string]string{
		"ollama-url":     "OLLAMA_HOST",
		"searxng-url":    "SEARXNG_URL",
		"google-api-key": "GOOGLE_API_KEY",
		"google-cse-id":  "GOOGLE_CSE_ID",
	}
	for key, env := range wellKnown {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		OllamaURL:       normalizeURL(v.GetString("ollama-url")),
		ModelName:       v.GetString("model"),
		EmbedModel:      v.GetString("embed-model"),
		OllamaTimeout:   v.GetDuration("timeout"),
		Temperature:     v.GetFloat64("temperature"),
		CostPer1KInput:  v.GetFloat64("cost-per-1k-input"),
		CostPer1KOutput: v.GetFloat64("cost-per-1k-output"),

		SearchProvider: strings.ToLower(v.GetString("search-provider")),
		SearXNGURL:     v.GetString("searxng-url"),
		GoogleAPIKey:   v.GetString("google-api-key"),
		GoogleCSEID:    v.GetString("google-cse-id"),
		GoogleEndpoint: v.GetString("google-endpoint"),
		SearchTimeout:  v.GetDuration("search-timeout"),
		MaxResults:     v.GetInt("max-results"),

		FetchTimeout:   v.GetDuration("fetch-timeout"),
		MaxContentSize: v.GetInt64("max-content-size"),
		UserAgent:      v.GetString("user-agent"),

		ChunkTokens:   v.GetInt("chunk-tokens"),
		TokenEncoding: v.GetString("token-encoding"),
		SummaryTopK:   v.GetInt("summary-top-k"),

		Python:      v.GetString("python"),
		ExecTimeout: v.GetDuration("exec-timeout"),

		MaxSteps: v.GetInt("max-steps"),

		LogFile:        v.GetString("log-file"),
		LogLevel:       v.GetString("log-level"),
		RenderMarkdown: v.GetBool("render-markdown"),
		Verbose:        v.GetBool("verbose"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeURL accepts OLLAMA_HOST style "host:port" values
func normalizeURL(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if s != "" && !strings.Contains(s, "://") {
		s = "http://" + s
	}
	return s
}
