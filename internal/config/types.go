package config

import "time"

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	LLM         LLMConfig         `koanf:"llm"`
	Vision      VisionConfig      `koanf:"vision"`
	Rerank      RerankConfig      `koanf:"rerank"`
	UserStore   UserStoreConfig   `koanf:"userstore"`
	Ingest      IngestConfig      `koanf:"ingest"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Backend is "chromem" (embedded, default) or "qdrant".
	Backend string        `koanf:"backend"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
	Chromem ChromemConfig `koanf:"chromem"`
}

// QdrantConfig configures the Qdrant gRPC client.
type QdrantConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	UseTLS       bool          `koanf:"use_tls"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	OpTimeout    time.Duration `koanf:"op_timeout"`
}

// ChromemConfig configures the embedded chromem store.
type ChromemConfig struct {
	// Path is the persistence directory; empty keeps the store in memory.
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (default) or "ollama".
	Provider string        `koanf:"provider"`
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"`
	CacheDir string        `koanf:"cache_dir"`
	Timeout  time.Duration `koanf:"timeout"`
}

// LLMConfig configures the text-generation model.
type LLMConfig struct {
	// Provider is "ollama" (default) or "openai".
	Provider string        `koanf:"provider"`
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
}

// VisionConfig configures the vision model used for image descriptions.
// Empty fields fall back to the LLM section.
type VisionConfig struct {
	Provider string        `koanf:"provider"`
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
}

// RerankConfig configures the cross-encoder reranker. Without an API key
// the service falls back to lexical reranking.
type RerankConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// UserStoreConfig configures the SQLite user/chat store.
type UserStoreConfig struct {
	Path string `koanf:"path"`
}

// IngestConfig configures ingestion behavior.
type IngestConfig struct {
	// Strict rejects ingestion into a scope that already has a knowledge
	// base instead of appending.
	Strict bool `koanf:"strict"`
	// ScratchDir is the parent directory for per-ingestion scratch space.
	// Empty uses the system temp directory.
	ScratchDir string `koanf:"scratch_dir"`
}
