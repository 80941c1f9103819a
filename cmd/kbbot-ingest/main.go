package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kbbot/internal/chunker"
	"kbbot/internal/config"
	"kbbot/internal/domain"
	"kbbot/internal/embedding/openai"
	"kbbot/internal/ingest"
	"kbbot/internal/logging"
	"kbbot/internal/vectorstore/memory"
	"kbbot/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, dataDir string
	var reset bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/kbbot/config.yaml if not provided)")
	flag.StringVar(&dataDir, "data", "data", "Directory of text documents to ingest")
	flag.BoolVar(&reset, "reset", false, "Drop the collection before ingesting")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.VectorStore.Type == "memory" {
		// An in-process store dies with this process; batch ingestion only
		// makes sense against a persistent store.
		log.Fatal("vector_store.type is \"memory\"; run kbbot directly, it ingests at startup")
	}

	embedder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.OpenAI.BaseURL,
		APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
		Model:     cfg.Embedder.OpenAI.Model,
		Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}

	ctx := context.Background()
	if reset {
		if r, ok := store.(interface{ Reset(context.Context) error }); ok {
			if err := r.Reset(ctx); err != nil {
				log.Fatalf("reset failed: %v", err)
			}
			logger.Info("collection dropped")
		}
	}

	pipeline := ingest.New(chunker.New(), embedder, store, logger)
	report, err := pipeline.Run(ctx, dataDir)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	logger.Info("ingestion complete",
		zap.Int("documents", report.DocumentsProcessed),
		zap.Int("skipped", report.DocumentsSkipped),
		zap.Int("chunks", report.ChunksStored))
	fmt.Printf("Ingested %d documents (%d chunks stored, %d skipped)\n",
		report.DocumentsProcessed, report.ChunksStored, report.DocumentsSkipped)
	if report.DocumentsProcessed == 0 {
		os.Exit(1)
	}
}

func buildStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStore(), nil
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}
