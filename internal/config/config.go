package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Vector store backends.
const (
	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
)

// Embedding providers.
const (
	ProviderSimple = "simple"
	ProviderREST   = "rest"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath  string
	APIPort string

	LogLevel  string
	LogFormat string

	VectorBackend string // chromem or qdrant
	Collection    string
	VectorSize    int
	ChromemPath   string
	QdrantURL     string

	EmbeddingProvider string // simple, rest or openai
	EmbeddingBaseURL  string
	EmbeddingModel    string
	EmbeddingAPIKey   string

	Chunking ChunkingConfig
}

// ChunkingConfig configures how documents are split into chunks. It is
// read from an optional YAML file pointed at by CHUNKING_CONFIG.
type ChunkingConfig struct {
	Strategy     string `yaml:"strategy"`
	ChunkSize    int    `yaml:"chunk_size"`
	Overlap      int    `yaml:"overlap"`
	StripHeaders bool   `yaml:"strip_headers"`
	Encoding     string `yaml:"encoding"`
}

// Load reads configuration from environment variables and returns a Config
// struct. It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or project root, it will
// be loaded automatically. Environment variables already set take
// precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Try to find project root by looking for a .env up the tree.
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:            getEnv("DB_PATH", "./data/docstore.db"),
		APIPort:           getEnv("API_PORT", "9000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		VectorBackend:     getEnv("VECTOR_BACKEND", BackendChromem),
		Collection:        getEnv("COLLECTION", "docs"),
		ChromemPath:       getEnv("CHROMEM_PATH", "./data/vectors"),
		QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6333"),
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", ProviderSimple),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", "dummy-key"),
	}

	switch cfg.VectorBackend {
	case BackendChromem, BackendQdrant:
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", BackendChromem, BackendQdrant, cfg.VectorBackend)
	}

	switch cfg.EmbeddingProvider {
	case ProviderSimple, ProviderREST, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("EMBEDDING_PROVIDER must be %q, %q or %q, got %q",
			ProviderSimple, ProviderREST, ProviderOpenAI, cfg.EmbeddingProvider)
	}

	// VECTOR_SIZE must match the embedding model output. The simple
	// provider has a fixed size, so it is only required for the others.
	vectorSizeStr := getEnv("VECTOR_SIZE", "")
	if vectorSizeStr != "" {
		vectorSize, err := strconv.Atoi(vectorSizeStr)
		if err != nil {
			return nil, fmt.Errorf("VECTOR_SIZE must be a valid integer: %w", err)
		}
		if vectorSize <= 0 {
			return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
		}
		cfg.VectorSize = vectorSize
	} else if cfg.EmbeddingProvider != ProviderSimple {
		return nil, fmt.Errorf("VECTOR_SIZE is required for the %s embedding provider", cfg.EmbeddingProvider)
	}

	chunking, err := loadChunkingConfig(getEnv("CHUNKING_CONFIG", ""))
	if err != nil {
		return nil, err
	}
	cfg.Chunking = *chunking

	// Create ./data directory if it doesn't exist (for the DB file).
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadChunkingConfig reads the YAML chunking config from path. A missing
// file or empty path yields the defaults.
func loadChunkingConfig(path string) (*ChunkingConfig, error) {
	cfg := &ChunkingConfig{
		Strategy:  "fixed",
		ChunkSize: 500,
		Overlap:   50,
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read chunking config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse chunking config: %w", err)
	}

	if cfg.Strategy == "" {
		cfg.Strategy = "fixed"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
