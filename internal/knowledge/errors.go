package knowledge

import "errors"

var (
	// ErrScopeNotFound means the user or chat in a request does not exist.
	ErrScopeNotFound = errors.New("scope not found")

	// ErrKnowledgeBaseNotFound means a query targeted a scope that never
	// had a document ingested.
	ErrKnowledgeBaseNotFound = errors.New("knowledge base not found")

	// ErrKnowledgeBaseExists is returned in strict mode when an ingestion
	// targets a scope that already has a knowledge base.
	ErrKnowledgeBaseExists = errors.New("knowledge base already exists")

	// ErrDimensionMismatch means an existing collection was created with a
	// different embedding dimensionality than the active model produces.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
