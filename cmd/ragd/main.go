// Ragd is a retrieval-augmented generation gateway.
//
// It ingests uploaded documents into per-(user, chat) vector collections
// and answers questions against them through a retrieve-rerank-synthesize
// pipeline, exposed over HTTP.
//
// Usage:
//
//	# Start with defaults (embedded chromem store, local ollama)
//	ragd
//
//	# Point at a config file
//	ragd -config /etc/ragd/config.yaml
//
//	# Configure via environment
//	RAGD_SERVER_PORT=9090 RAGD_VECTORSTORE_BACKEND=qdrant ragd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/config"
	"github.com/fyrsmithlabs/ragd/internal/describer"
	"github.com/fyrsmithlabs/ragd/internal/embeddings"
	"github.com/fyrsmithlabs/ragd/internal/httpapi"
	"github.com/fyrsmithlabs/ragd/internal/knowledge"
	"github.com/fyrsmithlabs/ragd/internal/llm"
	"github.com/fyrsmithlabs/ragd/internal/loader"
	"github.com/fyrsmithlabs/ragd/internal/logging"
	"github.com/fyrsmithlabs/ragd/internal/reranker"
	"github.com/fyrsmithlabs/ragd/internal/synthesis"
	"github.com/fyrsmithlabs/ragd/internal/userstore"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ragd %s (%s, %s)\n", version, gitCommit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// run wires the pipeline and serves until ctx is cancelled:
// config, logger, embedder (dimension probed once), vector store,
// user store, loader, reranker, synthesizer, knowledge service, HTTP.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logging.Sync(logger) //nolint:errcheck

	logger.Info("starting ragd",
		zap.String("version", version),
		zap.String("vectorstore", cfg.VectorStore.Backend),
		zap.String("embeddings", cfg.Embeddings.Provider),
		zap.String("llm", cfg.LLM.Provider),
	)

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	defer embedder.Close()

	instrumented := embeddings.Instrument(embedder, cfg.Embeddings.Provider,
		embeddings.NewMetrics(logger.Named("embeddings")))

	dimension, err := embeddings.ProbeDimension(ctx, instrumented)
	if err != nil {
		return fmt.Errorf("probing embedding dimension: %w", err)
	}
	logger.Info("probed embedding dimension", zap.Int("dimension", dimension))

	store, err := newVectorStore(cfg, instrumented, logger)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer store.Close()

	users, err := userstore.NewStore(cfg.UserStore.Path)
	if err != nil {
		return fmt.Errorf("opening user store: %w", err)
	}
	defer users.Close()

	visionClient, err := llm.New(llm.Config{
		Provider: cfg.Vision.Provider,
		Model:    cfg.Vision.Model,
		BaseURL:  cfg.Vision.BaseURL,
		APIKey:   cfg.Vision.APIKey,
		Timeout:  cfg.Vision.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating vision client: %w", err)
	}

	desc, err := describer.New(visionClient, logger.Named("describer"))
	if err != nil {
		return fmt.Errorf("creating describer: %w", err)
	}

	docLoader, err := loader.New(desc, logger.Named("loader"),
		loader.WithScratchRoot(cfg.Ingest.ScratchDir))
	if err != nil {
		return fmt.Errorf("creating loader: %w", err)
	}

	rr, err := newReranker(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating reranker: %w", err)
	}
	defer rr.Close()

	llmClient, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	synthesizer, err := synthesis.New(llmClient, logger.Named("synthesis"))
	if err != nil {
		return fmt.Errorf("creating synthesizer: %w", err)
	}

	service, err := knowledge.NewService(store, users, docLoader, rr, synthesizer,
		knowledge.Config{Dimension: dimension, Strict: cfg.Ingest.Strict},
		logger.Named("knowledge"))
	if err != nil {
		return fmt.Errorf("creating knowledge service: %w", err)
	}

	server, err := httpapi.NewServer(httpapi.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, service, logger.Named("http"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("listening", zap.String("host", cfg.Server.Host), zap.Int("port", cfg.Server.Port))
	return server.Start(ctx)
}

// newVectorStore builds the configured backend.
func newVectorStore(cfg *config.Config, embedder vectorstore.Embedder, logger *zap.Logger) (vectorstore.Store, error) {
	switch cfg.VectorStore.Backend {
	case "qdrant":
		return vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
			Host:         cfg.VectorStore.Qdrant.Host,
			Port:         cfg.VectorStore.Qdrant.Port,
			UseTLS:       cfg.VectorStore.Qdrant.UseTLS,
			MaxRetries:   cfg.VectorStore.Qdrant.MaxRetries,
			RetryBackoff: cfg.VectorStore.Qdrant.RetryBackoff,
			OpTimeout:    cfg.VectorStore.Qdrant.OpTimeout,
		}, embedder)
	case "chromem", "":
		return vectorstore.NewChromemStore(vectorstore.ChromemConfig{
			Path:     cfg.VectorStore.Chromem.Path,
			Compress: cfg.VectorStore.Chromem.Compress,
		}, embedder, logger.Named("chromem"))
	default:
		return nil, fmt.Errorf("unknown vectorstore backend %q", cfg.VectorStore.Backend)
	}
}

// newReranker builds the cross-encoder reranker, falling back to lexical
// reranking when no API key is configured.
func newReranker(cfg *config.Config, logger *zap.Logger) (reranker.Reranker, error) {
	if cfg.Rerank.APIKey == "" {
		logger.Warn("no rerank api key configured, using lexical reranker")
		return reranker.NewLexicalReranker(), nil
	}
	return reranker.NewCohereReranker(reranker.CohereConfig{
		BaseURL: cfg.Rerank.BaseURL,
		APIKey:  cfg.Rerank.APIKey,
		Model:   cfg.Rerank.Model,
		Timeout: cfg.Rerank.Timeout,
	})
}
