package reranker

import (
	"context"
	"sort"
	"strings"
)

// LexicalReranker scores candidates by term overlap with the query.
// It serves keyless development environments where no hosted rerank
// endpoint is configured; production uses CohereReranker.
type LexicalReranker struct{}

// NewLexicalReranker creates a LexicalReranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Rerank scores each document by the fraction of query terms it contains
// and returns up to topN results ordered by score descending, ties broken
// by input order.
func (r *LexicalReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if len(documents) == 0 {
		return []Result{}, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	queryTokens := tokenize(query)

	results := make([]Result, len(documents))
	for i, doc := range documents {
		results[i] = Result{
			Index: i,
			Score: termOverlap(queryTokens, tokenize(doc)),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	return results[:topN], nil
}

// Close is a no-op.
func (r *LexicalReranker) Close() error {
	return nil
}

var _ Reranker = (*LexicalReranker)(nil)

// tokenize splits text into lowercase terms, filtering stopwords and
// tokens shorter than three characters.
func tokenize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isAlphanumeric(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) && len(token) > 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

var stopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"from": true, "was": true, "are": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "you": true, "she": true, "they": true, "what": true,
	"which": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "not": true,
}

func isStopword(token string) bool {
	return stopwords[token]
}

// termOverlap returns the fraction of unique query terms found in the
// document, between 0 and 1.
func termOverlap(queryTokens, docTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	docSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docSet[token] = true
	}

	matched := 0
	counted := make(map[string]bool, len(queryTokens))
	unique := 0
	for _, token := range queryTokens {
		if counted[token] {
			continue
		}
		counted[token] = true
		unique++
		if docSet[token] {
			matched++
		}
	}

	return float64(matched) / float64(unique)
}
