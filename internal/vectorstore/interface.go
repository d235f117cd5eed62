// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists is returned when attempting to create an existing collection.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrConnectionFailed indicates vector store connection issues.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`
}

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Implementations can use local models
// (FastEmbed) or a model server (Ollama).
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations.
//
// This interface is transport-agnostic; implementations can use gRPC or an
// embedded database. It covers exactly what the knowledge-base lifecycle
// needs: existence checks, lazy collection creation, append-only inserts
// and similarity search. Chunks are never updated in place and the core
// never deletes collections; removal is an administrative concern.
//
// Collection names follow the scope convention kb_{user}_{chat} and must
// match ^[a-z0-9_]{1,64}$.
//
// Implementations:
//   - QdrantStore: external Qdrant over gRPC
//   - ChromemStore: embedded chromem-go (dev and tests)
type Store interface {
	// AddDocuments embeds and appends documents to the collection named by
	// Document.Collection. All documents of one call must target the same
	// collection. Returns the IDs of the added documents.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// SearchInCollection performs cosine similarity search in a specific
	// collection and returns up to k results ordered by score descending.
	SearchInCollection(ctx context.Context, collectionName, query string, k int) ([]SearchResult, error)

	// CreateCollection creates a new collection with the given embedding
	// dimensionality. Cosine distance is used for similarity.
	CreateCollection(ctx context.Context, collectionName string, vectorSize int) error

	// CollectionExists checks if a collection exists. Returns an error only
	// if the check itself fails.
	CollectionExists(ctx context.Context, collectionName string) (bool, error)

	// GetCollectionInfo returns point count and vector size for a
	// collection, or ErrCollectionNotFound.
	GetCollectionInfo(ctx context.Context, collectionName string) (*CollectionInfo, error)

	// Close closes the vector store connection and releases resources.
	Close() error
}
