package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fyrsmithlabs/ragd/internal/knowledge"

// Metrics instruments the ingestion and query pipelines.
type Metrics struct {
	ingestDuration metric.Float64Histogram
	ingestTotal    metric.Int64Counter
	queryDuration  metric.Float64Histogram
	queryTotal     metric.Int64Counter
}

// NewMetrics registers the pipeline instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	ingestDuration, err := meter.Float64Histogram(
		"ragd.ingest.duration_seconds",
		metric.WithDescription("End-to-end ingestion duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ingest duration histogram: %w", err)
	}

	ingestTotal, err := meter.Int64Counter(
		"ragd.ingest.total",
		metric.WithDescription("Ingestions by file format and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ingest counter: %w", err)
	}

	queryDuration, err := meter.Float64Histogram(
		"ragd.query.duration_seconds",
		metric.WithDescription("End-to-end query duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating query duration histogram: %w", err)
	}

	queryTotal, err := meter.Int64Counter(
		"ragd.query.total",
		metric.WithDescription("Queries by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating query counter: %w", err)
	}

	return &Metrics{
		ingestDuration: ingestDuration,
		ingestTotal:    ingestTotal,
		queryDuration:  queryDuration,
		queryTotal:     queryTotal,
	}, nil
}

// RecordIngest records one ingestion attempt.
func (m *Metrics) RecordIngest(ctx context.Context, filename string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("format", strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")),
		attribute.String("status", statusOf(err)),
	)
	m.ingestDuration.Record(ctx, duration.Seconds(), attrs)
	m.ingestTotal.Add(ctx, 1, attrs)
}

// RecordQuery records one query attempt.
func (m *Metrics) RecordQuery(ctx context.Context, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("status", statusOf(err)))
	m.queryDuration.Record(ctx, duration.Seconds(), attrs)
	m.queryTotal.Add(ctx, 1, attrs)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
