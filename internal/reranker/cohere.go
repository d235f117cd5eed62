package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// CohereConfig holds configuration for the Cohere rerank client.
type CohereConfig struct {
	// BaseURL is the Cohere API base URL. Default: https://api.cohere.com
	BaseURL string

	// APIKey authenticates against the rerank endpoint.
	APIKey string

	// Model is the rerank model. Default: rerank-english-v3.0
	Model string

	// Timeout bounds each rerank call. Default: 15 seconds.
	Timeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *CohereConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.cohere.com"
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
}

// Validate validates the configuration.
func (c CohereConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	return nil
}

// CohereReranker scores candidates via the Cohere v2 rerank endpoint.
type CohereReranker struct {
	config CohereConfig
	client *http.Client
}

// NewCohereReranker creates a Cohere-backed reranker.
func NewCohereReranker(config CohereConfig) (*CohereReranker, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &CohereReranker{
		config: config,
		client: &http.Client{},
	}, nil
}

// rerankRequest is the request body for POST /v2/rerank.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// rerankResponse is the response body for POST /v2/rerank.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores query against documents and returns up to topN results
// ordered by relevance score descending, ties broken by input order.
func (r *CohereReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if len(documents) == 0 {
		return []Result{}, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.config.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.BaseURL+"/v2/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.config.APIKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRerankFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrRerankFailed, resp.StatusCode, string(respBody))
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		if res.Index < 0 || res.Index >= len(documents) {
			return nil, fmt.Errorf("%w: result index %d out of range", ErrRerankFailed, res.Index)
		}
		results = append(results, Result{Index: res.Index, Score: res.RelevanceScore})
	}

	// Ordering contract: score descending, ties keep input order.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// Close is a no-op; the client is stateless HTTP.
func (r *CohereReranker) Close() error {
	return nil
}

var _ Reranker = (*CohereReranker)(nil)
