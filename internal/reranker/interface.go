// Package reranker provides second-pass relevance scoring of retrieved
// candidates with a more precise model than the initial vector search.
package reranker

import (
	"context"
	"errors"
)

// DefaultModel is the cross-encoder used for reranking.
const DefaultModel = "rerank-english-v3.0"

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRerankFailed indicates a rerank provider failure.
	ErrRerankFailed = errors.New("rerank failed")
)

// Result is one reranked candidate.
type Result struct {
	// Index is the candidate's position in the input documents slice.
	Index int
	// Score is the relevance score assigned by the reranker.
	Score float64
}

// Reranker scores a query against candidate texts and returns an ordering.
type Reranker interface {
	// Rerank scores query against documents and returns up to topN results
	// ordered by score descending. Ties keep the input order.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)

	// Close releases any resources held by the reranker.
	Close() error
}
