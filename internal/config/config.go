// ABOUTME: Centralized configuration for the callsight pipeline and servers
// ABOUTME: Loads from environment variables with an optional YAML file override
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for transcript processing and serving.
type Config struct {
	// OpenAI settings
	OpenAIKey      string        `yaml:"openai_key"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"`
	ChatModel      string        `yaml:"chat_model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	EmbedBatchSize int           `yaml:"embed_batch_size"`

	// Chunking settings
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Retrieval settings
	TopK          int `yaml:"top_k"`
	ContextWindow int `yaml:"context_window"`

	// Cache settings
	CacheDir string `yaml:"cache_dir"`

	// Vector index backend: "memory" or "qdrant"
	IndexBackend     string        `yaml:"index_backend"`
	QdrantURL        string        `yaml:"qdrant_url"`
	QdrantAPIKey     string        `yaml:"qdrant_api_key"`
	QdrantCollection string        `yaml:"qdrant_collection"`
	QdrantTimeout    time.Duration `yaml:"qdrant_timeout"`

	// HTTP server settings
	Port   string `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		ChatModel:      getEnv("CALLSIGHT_CHAT_MODEL", "gpt-4o"),
		EmbeddingModel: getEnv("CALLSIGHT_EMBEDDING_MODEL", "text-embedding-3-large"),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		EmbedBatchSize: getEnvInt("CALLSIGHT_EMBED_BATCH", 20),

		ChunkSize:    getEnvInt("CALLSIGHT_CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CALLSIGHT_CHUNK_OVERLAP", 50),

		TopK:          getEnvInt("CALLSIGHT_TOP_K", 5),
		ContextWindow: getEnvInt("CALLSIGHT_CONTEXT_WINDOW", 1),

		CacheDir: getEnv("CALLSIGHT_CACHE_DIR", defaultCacheDir()),

		IndexBackend:     getEnv("CALLSIGHT_INDEX_BACKEND", "memory"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "callsight"),
		QdrantTimeout:    getEnvDuration("QDRANT_TIMEOUT", 15*time.Second),

		Port:   getEnv("PORT", "8080"),
		APIKey: os.Getenv("CALLSIGHT_API_KEY"),
	}

	return cfg, cfg.Validate()
}

// LoadFile reads environment configuration, then applies overrides from
// a YAML file. Useful for deployments where env vars are inconvenient.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", c.ChunkOverlap)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries must be 0-10, got %d", c.MaxRetries)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top k must be positive, got %d", c.TopK)
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("context window must be non-negative, got %d", c.ContextWindow)
	}
	if c.IndexBackend != "memory" && c.IndexBackend != "qdrant" {
		return fmt.Errorf("index backend must be memory or qdrant, got %q", c.IndexBackend)
	}
	return nil
}

func defaultCacheDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/callsight"
		}
		dataHome = homeDir + "/.local/share"
	}
	return dataHome + "/callsight"
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
