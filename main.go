package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itsharex/gpt-4-search/internal/agent"
	"github.com/itsharex/gpt-4-search/internal/chunker"
	"github.com/itsharex/gpt-4-search/internal/config"
	"github.com/itsharex/gpt-4-search/internal/conversation"
	"github.com/itsharex/gpt-4-search/internal/crawler"
	"github.com/itsharex/gpt-4-search/internal/llm"
	"github.com/itsharex/gpt-4-search/internal/logging"
	"github.com/itsharex/gpt-4-search/internal/ranker"
	"github.com/itsharex/gpt-4-search/internal/sandbox"
	"github.com/itsharex/gpt-4-search/internal/search"
	"github.com/itsharex/gpt-4-search/internal/tools"
	"github.com/itsharex/gpt-4-search/internal/ui"
)

const healthCheckTimeout = 5 * time.Second

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "gpt-4-search",
		Short:         "Answer questions with an LLM that can search the web and run Python",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			return run(cfg)
		},
	}
	config.RegisterFlags(root.Flags(), config.NewConfig())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	display := ui.NewDisplay(os.Stdout, cfg.RenderMarkdown)

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize components
	client, err := llm.NewClient(llm.Config{
		BaseURL:         cfg.OllamaURL,
		ChatModel:       cfg.ModelName,
		EmbedModel:      cfg.EmbedModel,
		Temperature:     cfg.Temperature,
		Timeout:         cfg.OllamaTimeout,
		CostPer1KInput:  cfg.CostPer1KInput,
		CostPer1KOutput: cfg.CostPer1KOutput,
	}, logger)
	if err != nil {
		return err
	}

	searcher := newSearcher(cfg)
	links := search.NewLinks()
	executor := sandbox.NewExecutor(cfg.Python, cfg.ExecTimeout)

	registry, err := tools.NewRegistry(
		tools.NewSearchTool(searcher, links, cfg.MaxResults, logger),
		tools.NewSummarizeTool(links,
			crawler.NewCrawler(cfg.FetchTimeout, cfg.MaxContentSize, cfg.UserAgent),
			chunker.NewTiktokenSplitter(cfg.TokenEncoding, cfg.ChunkTokens),
			ranker.NewRanker(client),
			cfg.SummaryTopK,
			logger,
		),
		tools.NewPythonTool(executor, logger),
	)
	if err != nil {
		return err
	}

	// Health checks
	if err := checkOllama(client, cfg, display); err != nil {
		return err
	}
	if hc, ok := searcher.(search.HealthChecker); ok {
		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		if err := hc.HealthCheck(ctx); err != nil {
			display.PrintWarning(fmt.Sprintf("Search backend check failed: %v", err))
			display.PrintInfo("SEARCH calls will fail until the backend is reachable.")
			logger.Warn("search backend unreachable", zap.String("provider", cfg.SearchProvider), zap.Error(err))
		}
		cancel()
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		display.PrintInfo("\nShutting down gracefully...")
		cancel()
		// the interpreter runs in its own process group and never saw the signal
		executor.Kill()
		logger.Info("shutdown on signal")
		logger.Sync()
		os.Exit(0)
	}()

	session := conversation.NewSession()
	a := agent.New(agent.Config{
		Model:    client,
		Tools:    registry,
		Session:  session,
		Stream:   display,
		Logger:   logger,
		MaxSteps: cfg.MaxSteps,
	})

	logger.Info("started",
		zap.String("model", cfg.ModelName),
		zap.String("embed_model", cfg.EmbedModel),
		zap.String("search_provider", cfg.SearchProvider),
	)
	display.PrintWelcome(cfg.ModelName, cfg.SearchProvider)

	input := ui.NewInput(os.Stdin)
	for {
		display.PrintPrompt()
		query, err := input.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if ui.IsExitCommand(query) {
			break
		}
		if query == "" {
			continue
		}

		logger.Info("user-input", zap.String("input", query), zap.String("session", session.ID()))

		answer, err := a.Run(ctx, query)
		if err != nil {
			logger.Error("query failed", zap.String("input", query), zap.Error(err))
			display.PrintError(err)
			continue
		}
		display.PrintAnswer(answer)

		refs, err := agent.References(answer, links)
		if err != nil {
			logger.Error("reference lookup failed", zap.Error(err))
			display.PrintError(err)
			continue
		}
		display.PrintReferences(refs)
	}

	display.PrintGoodbye()
	return nil
}

func newSearcher(cfg *config.Config) search.Searcher {
	if cfg.SearchProvider == config.ProviderGoogle {
		return search.NewGoogle(cfg.GoogleEndpoint, cfg.GoogleAPIKey, cfg.GoogleCSEID, cfg.SearchTimeout)
	}
	return search.NewSearXNG(cfg.SearXNGURL, cfg.UserAgent, cfg.SearchTimeout)
}

// checkOllama verifies the server is up and both models are pulled
func checkOllama(client *llm.Client, cfg *config.Config, display *ui.Display) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		display.PrintError(err)
		display.PrintInfo("Make sure Ollama is running: ollama serve")
		return err
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		display.PrintError(err)
		return err
	}

	ok, err := client.HasModel(ctx, cfg.ModelName)
	if err != nil {
		return err
	}
	if !ok {
		display.PrintError(fmt.Errorf("model '%s' not found", cfg.ModelName))
		display.PrintInfo("Available models:")
		for _, m := range models {
			display.PrintInfo("  - " + m)
		}
		display.PrintInfo(fmt.Sprintf("Pull the model with: ollama pull %s", cfg.ModelName))
		return fmt.Errorf("model not found")
	}

	if ok, err := client.HasModel(ctx, cfg.EmbedModel); err == nil && !ok {
		display.PrintWarning(fmt.Sprintf("Embedding model '%s' not found, SUMMARIZE will fail. Pull it with: ollama pull %s", cfg.EmbedModel, cfg.EmbedModel))
	}

	if cfg.Verbose {
		display.PrintInfo(fmt.Sprintf("Ollama %s · %d models available", cfg.OllamaURL, len(models)))
	}
	return nil
}
