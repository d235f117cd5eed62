// Package synthesis turns reranked documents into a final answer.
//
// Generation is two-stage: the reranked documents and the question are
// folded into a refinement prompt, that prompt is used as a fresh
// retrieval query against the same collection, and the re-retrieved
// documents become the context for the answering call.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const refinementTemplate = "Based on these documents: %s, please refine the search for the question: %s."

const answerTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// Completer is the text-generation call the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retriever fetches the k most similar documents for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Answer is a generated answer with the context documents that produced it.
type Answer struct {
	Text    string
	Sources []string
}

// Synthesizer generates answers from retrieved documents.
type Synthesizer struct {
	llm    Completer
	logger *zap.Logger
}

// New creates a Synthesizer.
func New(llm Completer, logger *zap.Logger) (*Synthesizer, error) {
	if llm == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{llm: llm, logger: logger}, nil
}

// Synthesize produces an answer for the question given the reranked
// documents. retriever re-queries the scope's collection for the second
// stage; topK bounds that re-retrieval.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, documents []string, retriever Retriever, topK int) (*Answer, error) {
	refined := fmt.Sprintf(refinementTemplate, strings.Join(documents, " "), question)

	contexts, err := retriever.Retrieve(ctx, refined, topK)
	if err != nil {
		return nil, fmt.Errorf("re-retrieving context: %w", err)
	}
	if len(contexts) == 0 {
		// The collection held documents a moment ago; fall back to the
		// first-stage context rather than answering from nothing.
		contexts = documents
	}

	s.logger.Debug("synthesizing answer",
		zap.Int("first_stage_docs", len(documents)),
		zap.Int("context_docs", len(contexts)),
	)

	prompt := fmt.Sprintf(answerTemplate, strings.Join(contexts, "\n\n"), question)
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &Answer{Text: strings.TrimSpace(text), Sources: contexts}, nil
}
