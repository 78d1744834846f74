// Command concierge runs the WhatsApp concierge bot: webhook-driven
// document sync into the vector index, command handling, and outreach
// campaigns.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	embeddingopenai "github.com/oasisprop/concierge/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/oasisprop/concierge/internal/adapters/driven/llm/openai"
	"github.com/oasisprop/concierge/internal/adapters/driven/messaging/whapi"
	"github.com/oasisprop/concierge/internal/adapters/driven/storage/sqlite"
	vecgostore "github.com/oasisprop/concierge/internal/adapters/driven/vectorstore/vecgo"
	"github.com/oasisprop/concierge/internal/adapters/driving/httpapi"
	"github.com/oasisprop/concierge/internal/config"
	"github.com/oasisprop/concierge/internal/connectors/google"
	"github.com/oasisprop/concierge/internal/core/services"
	"github.com/oasisprop/concierge/internal/logger"
	"github.com/oasisprop/concierge/internal/postprocessors/chunker"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading configuration: %v", err)
		os.Exit(1)
	}
	logger.SetVerbose(*verbose || cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Driven adapters
	googleServices, err := google.NewServicesFromFile(ctx, cfg.Google.CredentialsFile)
	if err != nil {
		return err
	}
	fetcher := google.NewFetcher(googleServices)
	sheetStore := google.NewSheetStore(googleServices)

	messenger, err := whapi.NewClient(whapi.Config{
		Token:   cfg.WhatsApp.Token,
		BaseURL: cfg.WhatsApp.BaseURL,
	})
	if err != nil {
		return err
	}

	embedder, err := embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		return err
	}

	llm, err := llmopenai.NewLLMService(llmopenai.LLMConfig{
		APIKey:       cfg.OpenAI.APIKey,
		Model:        cfg.OpenAI.ChatModel,
		SystemPrompt: cfg.OpenAI.SystemPrompt,
	})
	if err != nil {
		return err
	}

	history, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer history.Close()

	index, err := vecgostore.New(vecgostore.Config{
		Dimension: embedder.Dimensions(),
		Path:      indexPath(cfg.Storage.DataDir),
	})
	if err != nil {
		return err
	}
	defer index.Close()

	// Core services
	pool := services.NewWorkerPool(cfg.Server.PoolSize)
	defer pool.Close()

	reindex := services.NewReindexService(fetcher, embedder, index, chunker.New(), pool)
	gate := services.NewConversationGate()
	answers := services.NewAnswerService(embedder, index, llm, history)
	campaigns := services.NewCampaignRunner(
		sheetStore, messenger,
		services.WithMessageDelay(cfg.MessageDelay()),
		services.WithBusinessName(cfg.Campaign.BusinessName),
		services.WithLocation(cfg.Location()),
	)
	commands := services.NewCommandService(gate, campaigns, answers, messenger, history, cfg.Google.DefaultSheetID)

	// HTTP ingress
	server := httpapi.NewServer(httpapi.Config{
		Address:    cfg.Server.Address,
		SyncSecret: cfg.Server.SyncSecret,
	}, reindex, commands)

	logger.Info("concierge bot starting (embedding model %s, chat model %s)",
		embedder.ModelName(), llm.ModelName())
	return server.Run(ctx)
}

// indexPath places the vector index snapshot beside the message
// database. An empty data dir keeps the index in memory only; the
// stores resolve their own defaults for the database file.
func indexPath(dataDir string) string {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataDir = filepath.Join(home, ".concierge", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return ""
	}
	return filepath.Join(dataDir, "index.vecgo")
}
