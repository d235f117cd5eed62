// Package llm provides a chat and vision client over langchaingo.
//
// The gateway talks to one language model endpoint for both answer
// synthesis and image description. Two providers are supported: a local
// Ollama server and any OpenAI-compatible endpoint (Groq, Azure OpenAI
// proxies). All calls are non-streaming.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCompletionFailed indicates a model call failure.
	ErrCompletionFailed = errors.New("completion failed")
)

// Config holds configuration for the LLM client.
type Config struct {
	// Provider is "ollama" or "openai".
	Provider string

	// Model is the model name, e.g. "llama3" or
	// "llama-3.2-90b-vision-preview".
	Model string

	// BaseURL is the server URL. For the openai provider this points at
	// any OpenAI-compatible endpoint (e.g. https://api.groq.com/openai/v1).
	BaseURL string

	// APIKey authenticates openai-compatible endpoints. Unused for ollama.
	APIKey string

	// Timeout bounds each model call. Default: 60 seconds.
	Timeout time.Duration
}

// Client issues non-streaming completion calls against one model.
type Client struct {
	model   llms.Model
	timeout time.Duration
}

// New creates an LLM client for the configured provider.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model required", ErrInvalidConfig)
	}

	var model llms.Model
	var err error

	switch cfg.Provider {
	case "ollama", "":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
	case "openai":
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{model: model, timeout: timeout}, nil
}

// Complete issues a single-prompt text completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return answer, nil
}

// CompleteVision sends one multimodal message (instruction plus image) and
// returns the generated text. Temperature and maxTokens are passed through
// unchanged so callers can hold them constant.
func (c *Client) CompleteVision(ctx context.Context, instruction string, image []byte, mimeType string, temperature float64, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(instruction),
				llms.BinaryPart(mimeType, image),
			},
		},
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrCompletionFailed)
	}
	return resp.Choices[0].Content, nil
}
