package embeddings

import (
	"context"
	"fmt"
	"time"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaConfig holds configuration for the Ollama embedding provider.
type OllamaConfig struct {
	// Model is the embedding model name, e.g. "nomic-embed-text".
	Model string

	// BaseURL is the Ollama server URL. Defaults to the client's
	// OLLAMA_HOST handling when empty.
	BaseURL string

	// Timeout bounds each embedding call. Default: 30 seconds.
	Timeout time.Duration
}

// OllamaProvider generates embeddings through an Ollama server.
type OllamaProvider struct {
	embedder *lcembeddings.EmbedderImpl
	timeout  time.Duration
}

// NewOllamaProvider creates an Ollama-backed embedding provider.
func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model required", ErrInvalidConfig)
	}

	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	embedder, err := lcembeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OllamaProvider{embedder: embedder, timeout: timeout}, nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *OllamaProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *OllamaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vector, nil
}

// Close is a no-op; the Ollama client is stateless HTTP.
func (p *OllamaProvider) Close() error {
	return nil
}
