// Command kbseed embeds a knowledge base file into a seed store so that
// service instances start without re-embedding unchanged content.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/kbfile"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/postgres"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-concierge/internal/core/services"
	"github.com/custodia-labs/sercha-concierge/internal/runtime"
)

var cfg struct {
	// Knowledge base
	KB        string `help:"Knowledge base file (.yaml, .yml or .json)" default:"./configs/restaurant.yaml" type:"existingfile"`
	BatchSize int    `help:"Texts per embedding request" default:"64"`

	// Seed store
	Backend     string `help:"Seed store backend" enum:"sqlite,postgres" default:"sqlite"`
	SQLitePath  string `help:"SQLite database file" default:"./data/seed.db"`
	DatabaseURL string `help:"PostgreSQL connection string" env:"DATABASE_URL"`

	// Embedder
	Provider string `help:"Embedding provider" enum:"openai,gemini,ollama" default:"openai" env:"EMBEDDING_PROVIDER"`
	Model    string `help:"Embedding model identifier" default:"" env:"EMBEDDING_MODEL"`
	APIKey   string `help:"API key for the embedding provider" default:"" env:"EMBEDDING_API_KEY"`
	BaseURL  string `help:"Override the provider base URL" default:"" env:"EMBEDDING_BASE_URL"`

	Verbose bool `help:"Log at debug level" short:"v"`
}

func main() {
	kctx := kong.Parse(&cfg,
		kong.Name("kbseed"),
		kong.Description("Pre-embed a knowledge base into the seed store."),
	)

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(context.Background()); err != nil {
		kctx.FatalIfErrorf(err)
	}
}

func run(ctx context.Context) error {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	embedder, err := ai.NewFactory().CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProvider(cfg.Provider),
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	if embedder == nil {
		return fmt.Errorf("embedding provider %s is not configured (missing API key?)", cfg.Provider)
	}

	svcs := runtime.NewServices(domain.Backends{Seeds: cfg.Backend}, slog.Default())
	defer svcs.Close()
	if err := svcs.ValidateAndSetEmbedding(ctx, embedder); err != nil {
		return fmt.Errorf("embedder health check: %w", err)
	}

	source, err := kbfile.NewLoader(cfg.KB)
	if err != nil {
		return err
	}

	index := services.NewKnowledgeIndex(svcs, services.KnowledgeIndexConfig{
		SeedStore: store,
		Source:    source,
		BatchSize: cfg.BatchSize,
		Logger:    slog.Default(),
	})

	log.Printf("Embedding %s with %s/%s...", source.Location(), cfg.Provider, embedder.Model())
	stats, err := index.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if stats.FailedChunks > 0 {
		log.Printf("Warning: %d chunks failed to embed and were not stored", stats.FailedChunks)
	}

	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
	return nil
}

func openStore(ctx context.Context) (driven.SeedStore, func(), error) {
	switch cfg.Backend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("--database-url is required for the postgres backend")
		}
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewSeedStore(db), func() { db.Close() }, nil
	default:
		store, err := sqlite.NewSeedStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
