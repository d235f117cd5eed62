// Package config provides configuration loading for ragd.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024

// envPrefix namespaces ragd environment variables.
const envPrefix = "RAGD_"

// nestedEnvSections routes env keys into sections more than one level
// deep, which the first-underscore split cannot reach.
var nestedEnvSections = map[string]string{
	"vectorstore_qdrant_":  "vectorstore.qdrant.",
	"vectorstore_chromem_": "vectorstore.chromem.",
}

// Load reads configuration with the following precedence, highest first:
//
//  1. Environment variables (RAGD_SERVER_PORT, RAGD_RERANK_API_KEY, ...)
//  2. YAML config file, if configPath is non-empty and the file exists
//  3. Defaults
//
// Environment variables map onto config keys by stripping the prefix,
// lowercasing, and splitting section from field on the first underscore:
// RAGD_SERVER_PORT -> server.port, RAGD_RERANK_API_KEY -> rerank.api_key.
// Doubly nested sections are listed in nestedEnvSections so
// RAGD_VECTORSTORE_QDRANT_HOST reaches vectorstore.qdrant.host.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil {
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
			}
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		for prefix, section := range nestedEnvSections {
			if strings.HasPrefix(lower, prefix) {
				return section + strings.TrimPrefix(lower, prefix)
			}
		}
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = "chromem"
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Qdrant.MaxRetries == 0 {
		cfg.VectorStore.Qdrant.MaxRetries = 3
	}
	if cfg.VectorStore.Qdrant.RetryBackoff == 0 {
		cfg.VectorStore.Qdrant.RetryBackoff = time.Second
	}
	if cfg.VectorStore.Qdrant.OpTimeout == 0 {
		cfg.VectorStore.Qdrant.OpTimeout = 5 * time.Second
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "fastembed"
	}
	if cfg.Embeddings.Timeout == 0 {
		cfg.Embeddings.Timeout = 30 * time.Second
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}

	// Vision falls back to the LLM section so a single multimodal model
	// can serve both.
	if cfg.Vision.Provider == "" {
		cfg.Vision.Provider = cfg.LLM.Provider
	}
	if cfg.Vision.Model == "" {
		cfg.Vision.Model = cfg.LLM.Model
	}
	if cfg.Vision.BaseURL == "" {
		cfg.Vision.BaseURL = cfg.LLM.BaseURL
	}
	if cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = cfg.LLM.APIKey
	}
	if cfg.Vision.Timeout == 0 {
		cfg.Vision.Timeout = cfg.LLM.Timeout
	}

	if cfg.Rerank.Timeout == 0 {
		cfg.Rerank.Timeout = 15 * time.Second
	}

	if cfg.UserStore.Path == "" {
		cfg.UserStore.Path = "ragd.db"
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	if err := validateLogging(c.Logging); err != nil {
		return err
	}

	switch c.VectorStore.Backend {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("unknown vectorstore backend %q", c.VectorStore.Backend)
	}

	switch c.Embeddings.Provider {
	case "fastembed", "ollama":
	default:
		return fmt.Errorf("unknown embeddings provider %q", c.Embeddings.Provider)
	}

	switch c.LLM.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is required for openai")
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.Level)
	}
	switch cfg.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}
	return nil
}
