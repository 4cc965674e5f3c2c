package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"strings"

	"github.com/docstore/docstore/internal/config"
	"github.com/docstore/docstore/internal/http"
	"github.com/docstore/docstore/internal/ingest"
	"github.com/docstore/docstore/internal/llm"
	"github.com/docstore/docstore/internal/storage"
	"github.com/docstore/docstore/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	libraryRepo := storage.NewLibraryRepo(db)
	documentRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	ctx := context.Background()

	// Create embedder
	var embedder llm.Embedder
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		embedder = llm.NewOpenAIEmbedder(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.VectorSize)
	case config.ProviderREST:
		embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.VectorSize)
	default:
		embedder = llm.NewSimpleEmbedder()
	}
	slog.Info("Embedder initialized", "provider", cfg.EmbeddingProvider, "vector_size", embedder.Dimension())

	// Create vector store
	var vectorStore vectorstore.VectorStore
	switch cfg.VectorBackend {
	case config.BackendQdrant:
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		vectorStore = qdrantStore
	default:
		chromemStore, err := vectorstore.NewChromemStore(cfg.ChromemPath)
		if err != nil {
			log.Fatalf("Failed to open vector store: %v", err)
		}
		vectorStore = chromemStore
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.Collection, embedder.Dimension()); err != nil {
		log.Fatalf("Failed to ensure collection: %v", err)
	}
	slog.Info("Collection ready", "backend", cfg.VectorBackend, "collection", cfg.Collection)

	// Validate embedder vector size (fail-fast); the simple provider is
	// local and cannot mismatch.
	if cfg.EmbeddingProvider != config.ProviderSimple {
		testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
		if err != nil {
			log.Fatalf("Failed to validate embedding client: %v", err)
		}
		if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != embedder.Dimension() {
			log.Fatalf("Embedding vector size mismatch: expected %d, got %d", embedder.Dimension(), len(testEmbeddings[0]))
		}
		slog.Info("Embedding client validated", "vector_size", embedder.Dimension())
	}

	// Create ingestion pipeline
	pipeline := ingest.NewPipeline(
		libraryRepo,
		documentRepo,
		chunkRepo,
		embedder,
		vectorStore,
		cfg.Collection,
		ingest.ChunkingOptions{
			Strategy:     cfg.Chunking.Strategy,
			ChunkSize:    cfg.Chunking.ChunkSize,
			Overlap:      cfg.Chunking.Overlap,
			StripHeaders: cfg.Chunking.StripHeaders,
			Encoding:     cfg.Chunking.Encoding,
		},
	)
	slog.Info("Ingestion pipeline initialized", "strategy", cfg.Chunking.Strategy)

	// Create router with dependencies
	deps := &http.Deps{
		DB:                 db,
		LibraryRepo:        libraryRepo,
		DocumentRepo:       documentRepo,
		ChunkRepo:          chunkRepo,
		Pipeline:           pipeline,
		Embedder:           embedder,
		VectorStore:        vectorStore,
		Collection:         cfg.Collection,
		EmbeddingModelName: cfg.EmbeddingModel,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

// parseLogLevel maps a LOG_LEVEL string to a slog.Level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
