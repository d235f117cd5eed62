package embeddings

import (
	"context"
	"time"
)

// instrumentedProvider wraps a Provider with metrics recording.
type instrumentedProvider struct {
	Provider
	name    string
	metrics *Metrics
}

// Instrument wraps a provider so every call records duration, batch size
// and errors.
func Instrument(p Provider, name string, m *Metrics) Provider {
	return &instrumentedProvider{Provider: p, name: name, metrics: m}
}

func (p *instrumentedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := p.Provider.EmbedDocuments(ctx, texts)
	p.metrics.RecordGeneration(ctx, p.name, "embed_documents", time.Since(start), len(texts), err)
	return vectors, err
}

func (p *instrumentedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := p.Provider.EmbedQuery(ctx, text)
	p.metrics.RecordGeneration(ctx, p.name, "embed_query", time.Since(start), 1, err)
	return vector, err
}
