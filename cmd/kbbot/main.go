package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kbbot/internal/chunker"
	"kbbot/internal/config"
	"kbbot/internal/domain"
	embopenai "kbbot/internal/embedding/openai"
	genopenai "kbbot/internal/generate/openai"
	"kbbot/internal/ingest"
	"kbbot/internal/logging"
	"kbbot/internal/retrieval"
	"kbbot/internal/service"
	"kbbot/internal/sourcelinks"
	"kbbot/internal/tui"
	"kbbot/internal/vectorstore/memory"
	"kbbot/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, dataDir, question string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/kbbot/config.yaml if not provided)")
	flag.StringVar(&dataDir, "data", "data", "Directory of text documents (ingested at startup with the memory store)")
	flag.StringVar(&question, "q", "", "Ask a single question and exit instead of starting the chat UI")
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

	embedder, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.Embedder.OpenAI.BaseURL,
		APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
		Model:     cfg.Embedder.OpenAI.Model,
		Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	generator, err := genopenai.NewGenerator(genopenai.Config{
		BaseURL:   cfg.Generator.OpenAI.BaseURL,
		APIKeyEnv: cfg.Generator.OpenAI.APIKeyEnv,
		Model:     cfg.Generator.OpenAI.Model,
		Timeout:   time.Duration(cfg.Generator.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	var store domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory", "":
		mem := memory.NewStore()
		// Without a persistent store the knowledge base is built on the spot.
		pipeline := ingest.New(chunker.New(), embedder, mem, logger)
		report, err := pipeline.Run(context.Background(), dataDir)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
		logger.Info("knowledge base ready",
			zap.Int("documents", report.DocumentsProcessed),
			zap.Int("chunks", report.ChunksStored))
		store = mem
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		store = qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	links, err := sourcelinks.Load(cfg.SourceLinksPath)
	if err != nil {
		log.Fatalf("failed to load source links: %v", err)
	}

	classifier := retrieval.NewClassifier(embedder, store, links, retrieval.Options{
		K:                 cfg.Retrieval.TopK,
		DistanceThreshold: cfg.Retrieval.DistanceThreshold,
		StrongThreshold:   cfg.Retrieval.StrongThreshold,
	})
	svc := service.NewAnswerer(classifier, generator, links, cfg.Retrieval.MaxSources, logger)

	if question != "" {
		askOnce(svc, question)
		return
	}

	if _, err := tea.NewProgram(tui.New(svc)).Run(); err != nil {
		log.Fatal(err)
	}
}

func askOnce(svc *service.Answerer, question string) {
	answer, err := svc.Answer(context.Background(), question)
	if err != nil {
		log.Fatalf("question failed: %v", err)
	}
	fmt.Println(answer.Text)
	switch answer.State {
	case domain.MatchNone:
		fmt.Println("\nNo internal documentation matched your question.")
	case domain.MatchWeak:
		fmt.Println("\nDocumentation was a weak match. Answer may rely on general knowledge.")
		fmt.Println("Related (but weak) docs:")
		printSources(answer.Sources)
	case domain.MatchStrong:
		fmt.Println("\nRelated docs:")
		printSources(answer.Sources)
	}
}

func printSources(refs []service.SourceRef) {
	for _, ref := range refs {
		if ref.URL != "" {
			fmt.Printf("  - %s (%s)\n", ref.Name, ref.URL)
		} else {
			fmt.Printf("  - %s\n", ref.Name)
		}
	}
}
