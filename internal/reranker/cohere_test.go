package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRerankServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *CohereReranker) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewCohereReranker(CohereConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
	require.NoError(t, err)
	return srv, r
}

func TestCohereRerankerRequiresAPIKey(t *testing.T) {
	_, err := NewCohereReranker(CohereConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCohereRerankerDefaults(t *testing.T) {
	cfg := CohereConfig{APIKey: "k"}
	cfg.ApplyDefaults()

	assert.Equal(t, "https://api.cohere.com", cfg.BaseURL)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.NotZero(t, cfg.Timeout)
}

func TestCohereRerank(t *testing.T) {
	var got rerankRequest
	_, r := newRerankServer(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v2/rerank", req.URL.Path)
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 2, "relevance_score": 0.95},
				{"index": 0, "relevance_score": 0.40},
			},
		})
	})

	documents := []string{"doc a", "doc b", "doc c"}
	results, err := r.Rerank(context.Background(), "query", documents, 2)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "query", got.Query)
	assert.Equal(t, documents, got.Documents)
	assert.Equal(t, 2, got.TopN)

	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].Index)
	assert.InDelta(t, 0.95, results[0].Score, 1e-9)
	assert.Equal(t, 0, results[1].Index)
}

func TestCohereRerankResortsOutOfOrderResponse(t *testing.T) {
	_, r := newRerankServer(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 0, "relevance_score": 0.10},
				{"index": 1, "relevance_score": 0.90},
			},
		})
	})

	results, err := r.Rerank(context.Background(), "q", []string{"a", "b"}, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 0, results[1].Index)
}

func TestCohereRerankServerError(t *testing.T) {
	_, r := newRerankServer(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := r.Rerank(context.Background(), "q", []string{"a"}, 1)
	assert.ErrorIs(t, err, ErrRerankFailed)
}

func TestCohereRerankIndexOutOfRange(t *testing.T) {
	_, r := newRerankServer(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 9, "relevance_score": 0.5},
			},
		})
	})

	_, err := r.Rerank(context.Background(), "q", []string{"a"}, 1)
	assert.ErrorIs(t, err, ErrRerankFailed)
}

func TestCohereRerankEmptyDocuments(t *testing.T) {
	_, r := newRerankServer(t, func(w http.ResponseWriter, req *http.Request) {
		t.Fatal("no request expected for empty documents")
	})

	results, err := r.Rerank(context.Background(), "q", nil, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
