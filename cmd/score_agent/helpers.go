package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajanes93/feed-ai-sub001/internal/config"
	"github.com/ajanes93/feed-ai-sub001/internal/db"
	"github.com/ajanes93/feed-ai-sub001/internal/external"
	"github.com/ajanes93/feed-ai-sub001/internal/llm"
	"github.com/ajanes93/feed-ai-sub001/internal/pipeline"
	"github.com/ajanes93/feed-ai-sub001/internal/scoring"
)

// resolveConfig merges the config file, CLI flags, and environment into the
// effective configuration. Flags win over the file; the file wins over env
// vars; tuned defaults fill whatever remains.
func resolveConfig(cmd *cobra.Command, configPath, dbURL string, useBrowser, verbose bool) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	// Only override when the flag was explicitly set
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = dbURL
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = useBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		PrimaryProvider: llm.ProviderOpenAI,
		ProviderWeights: config.DefaultWeights(),
		Policy:          config.DefaultPolicy(),
	})

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.AnthropicAPIKey == "" {
		cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return cfg, nil
}

// agent bundles the wired collaborators the scoring commands need.
type agent struct {
	cfg      config.Config
	database *db.DB
	clients  []llm.Client
	orch     *pipeline.Orchestrator
	fetcher  *external.Fetcher
}

// newAgent connects the database, builds one client per configured provider,
// and wires the orchestrator.
func newAgent(ctx context.Context, cfg config.Config) (*agent, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmCfg := llm.DefaultConfig()
	llmCfg.GeminiAPIKey = cfg.GeminiAPIKey
	llmCfg.OpenAIAPIKey = cfg.OpenAIAPIKey
	llmCfg.AnthropicAPIKey = cfg.AnthropicAPIKey

	clients, err := llm.NewClients(ctx, llmCfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	fetcher := external.NewFetcher(database)
	fetcher.UseBrowser = cfg.UseBrowser
	fetcher.Verbose = cfg.Verbose

	return &agent{
		cfg:      cfg,
		database: database,
		clients:  clients,
		fetcher:  fetcher,
		orch: &pipeline.Orchestrator{
			Store:      database,
			Caller:     scoring.NewCaller(clients),
			Policy:     cfg.Policy,
			Weights:    cfg.ProviderWeights,
			Primary:    cfg.PrimaryProvider,
			SourceKeys: sourceKeys(cfg.Sources),
			Verbose:    cfg.Verbose,
		},
	}, nil
}

func (a *agent) Close() {
	for _, client := range a.clients {
		_ = client.Close()
	}
	a.database.Close()
}

func sourceKeys(sources []config.SourceConfig) []string {
	keys := make([]string, len(sources))
	for i, src := range sources {
		keys[i] = src.Key
	}
	return keys
}
