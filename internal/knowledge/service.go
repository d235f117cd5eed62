// Package knowledge implements per-(user, chat) knowledge bases: scoped
// ingestion into vector collections and the retrieve-rerank-synthesize
// query pipeline.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/loader"
	"github.com/fyrsmithlabs/ragd/internal/reranker"
	"github.com/fyrsmithlabs/ragd/internal/synthesis"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// Pipeline constants. Retrieval casts a wide net, the reranker narrows it
// to what the answering prompt can use well.
const (
	// RetrieveK is the similarity-search depth for the first stage.
	RetrieveK = 10
	// RerankKeep is how many documents survive reranking.
	RerankKeep = 3
	// DefaultTopK bounds the second-stage re-retrieval when the request
	// does not specify one.
	DefaultTopK = 3
)

// noContextAnswer is returned when the knowledge base exists but nothing
// matched the question. An empty retrieval is not an error.
const noContextAnswer = "I could not find any relevant information in this chat's knowledge base."

// VectorStore is the slice of the vector store the service uses.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []vectorstore.Document) ([]string, error)
	SearchInCollection(ctx context.Context, collection, query string, k int) ([]vectorstore.SearchResult, error)
	CreateCollection(ctx context.Context, name string, vectorSize int) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollectionInfo(ctx context.Context, name string) (*vectorstore.CollectionInfo, error)
}

// ScopeChecker answers whether the user and chat behind a scope exist.
type ScopeChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	ChatExists(ctx context.Context, chatID, userID string) (bool, error)
}

// DocumentLoader converts an uploaded file into text chunks.
type DocumentLoader interface {
	Load(ctx context.Context, file loader.File) ([]string, error)
}

// Reranker reorders candidate documents by relevance to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]reranker.Result, error)
}

// AnswerSynthesizer generates the final answer from reranked documents.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, documents []string, retriever synthesis.Retriever, topK int) (*synthesis.Answer, error)
}

// Config holds service-level knobs.
type Config struct {
	// Dimension is the embedding dimensionality, probed at startup. New
	// collections are created with it and existing ones checked against it.
	Dimension int
	// Strict rejects ingestion into a scope that already has a knowledge
	// base. The default is to append.
	Strict bool
}

// IngestResult reports what an ingestion stored.
type IngestResult struct {
	Collection string `json:"collection"`
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
}

// Service is the knowledge-base service.
type Service struct {
	store       VectorStore
	scopes      ScopeChecker
	loader      DocumentLoader
	reranker    Reranker
	synthesizer AnswerSynthesizer
	cfg         Config
	logger      *zap.Logger
	metrics     *Metrics
}

// NewService wires the pipeline together.
func NewService(store VectorStore, scopes ScopeChecker, docLoader DocumentLoader, rr Reranker, syn AnswerSynthesizer, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil || scopes == nil || docLoader == nil || rr == nil || syn == nil {
		return nil, fmt.Errorf("all dependencies are required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics, err := NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &Service{
		store:       store,
		scopes:      scopes,
		loader:      docLoader,
		reranker:    rr,
		synthesizer: syn,
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// CreateOrAppend ingests a file into the scope's knowledge base, creating
// the collection on first use. Appending is the default; with Strict set,
// ingesting into an existing knowledge base returns ErrKnowledgeBaseExists.
// Re-ingesting the same file appends a second copy under a fresh file ID.
func (s *Service) CreateOrAppend(ctx context.Context, scope Scope, file loader.File) (*IngestResult, error) {
	start := time.Now()

	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, scope); err != nil {
		return nil, err
	}

	collection := scope.CollectionName()

	exists, err := s.store.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}

	switch {
	case exists && s.cfg.Strict:
		return nil, fmt.Errorf("scope %s/%s: %w", scope.UserID, scope.ChatID, ErrKnowledgeBaseExists)
	case exists:
		info, err := s.store.GetCollectionInfo(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("inspecting collection: %w", err)
		}
		if info.VectorSize != 0 && info.VectorSize != s.cfg.Dimension {
			return nil, fmt.Errorf("collection %s has dimension %d, embedder produces %d: %w",
				collection, info.VectorSize, s.cfg.Dimension, ErrDimensionMismatch)
		}
	default:
		err := s.store.CreateCollection(ctx, collection, s.cfg.Dimension)
		if err != nil && !errors.Is(err, vectorstore.ErrCollectionExists) {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	}

	chunks, err := s.loader.Load(ctx, file)
	if err != nil {
		s.metrics.RecordIngest(ctx, file.Name, time.Since(start), err)
		return nil, err
	}

	fileID := uuid.NewString()
	result := &IngestResult{
		Collection: collection,
		FileID:     fileID,
		Filename:   file.Name,
	}
	if len(chunks) == 0 {
		s.logger.Info("file produced no chunks",
			zap.String("filename", file.Name),
			zap.String("collection", collection),
		)
		s.metrics.RecordIngest(ctx, file.Name, time.Since(start), nil)
		return result, nil
	}

	docs := make([]vectorstore.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, vectorstore.Document{
			Content:    chunk,
			Collection: collection,
			Metadata: map[string]interface{}{
				"collection_id": collection,
				"file_id":       fileID,
				"filename":      file.Name,
				"user_id":       scope.UserID,
				"chat_id":       scope.ChatID,
				"chunk_index":   i,
			},
		})
	}

	ids, err := s.store.AddDocuments(ctx, docs)
	s.metrics.RecordIngest(ctx, file.Name, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	result.Chunks = len(ids)
	s.logger.Info("ingested file",
		zap.String("filename", file.Name),
		zap.String("collection", collection),
		zap.String("file_id", fileID),
		zap.Int("chunks", len(ids)),
	)
	return result, nil
}

// Query answers a question from the scope's knowledge base: retrieve
// RetrieveK candidates, rerank down to RerankKeep, then synthesize. A
// scope with no knowledge base returns ErrKnowledgeBaseNotFound; a
// knowledge base with no matching documents returns a fixed answer, not
// an error.
func (s *Service) Query(ctx context.Context, scope Scope, question string, topK int) (*synthesis.Answer, error) {
	start := time.Now()

	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, scope); err != nil {
		return nil, err
	}

	collection := scope.CollectionName()

	exists, err := s.store.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("scope %s/%s: %w", scope.UserID, scope.ChatID, ErrKnowledgeBaseNotFound)
	}

	results, err := s.store.SearchInCollection(ctx, collection, question, RetrieveK)
	if err != nil {
		s.metrics.RecordQuery(ctx, time.Since(start), err)
		return nil, fmt.Errorf("retrieving documents: %w", err)
	}
	if len(results) == 0 {
		s.logger.Info("retrieval returned no documents", zap.String("collection", collection))
		s.metrics.RecordQuery(ctx, time.Since(start), nil)
		return &synthesis.Answer{Text: noContextAnswer, Sources: []string{}}, nil
	}

	documents := make([]string, 0, len(results))
	for _, r := range results {
		documents = append(documents, r.Content)
	}

	ranked, err := s.reranker.Rerank(ctx, question, documents, RerankKeep)
	if err != nil {
		s.metrics.RecordQuery(ctx, time.Since(start), err)
		return nil, fmt.Errorf("reranking documents: %w", err)
	}

	selected := make([]string, 0, len(ranked))
	for _, r := range ranked {
		selected = append(selected, documents[r.Index])
	}

	if topK <= 0 {
		topK = DefaultTopK
	}
	answer, err := s.synthesizer.Synthesize(ctx, question, selected, s.retrieverFor(collection), topK)
	s.metrics.RecordQuery(ctx, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}

	return answer, nil
}

// checkScope maps missing users and chats onto ErrScopeNotFound.
func (s *Service) checkScope(ctx context.Context, scope Scope) error {
	ok, err := s.scopes.UserExists(ctx, scope.UserID)
	if err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if !ok {
		return fmt.Errorf("user %q: %w", scope.UserID, ErrScopeNotFound)
	}

	ok, err = s.scopes.ChatExists(ctx, scope.ChatID, scope.UserID)
	if err != nil {
		return fmt.Errorf("checking chat: %w", err)
	}
	if !ok {
		return fmt.Errorf("chat %q: %w", scope.ChatID, ErrScopeNotFound)
	}
	return nil
}

// retrieverFor adapts the store to the synthesis retriever for one
// collection.
func (s *Service) retrieverFor(collection string) synthesis.Retriever {
	return &collectionRetriever{store: s.store, collection: collection}
}

type collectionRetriever struct {
	store      VectorStore
	collection string
}

func (r *collectionRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	results, err := r.store.SearchInCollection(ctx, r.collection, query, k)
	if err != nil {
		return nil, err
	}
	docs := make([]string, 0, len(results))
	for _, res := range results {
		docs = append(docs, res.Content)
	}
	return docs, nil
}
