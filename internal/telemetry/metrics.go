// Package telemetry provides application-wide observability for codegraphd:
// OpenTelemetry metrics exported to Prometheus, and slog-based structured
// logging conventions used across every package.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/bismuthai/codegraph"

var latencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics holds every OpenTelemetry instrument codegraphd records against.
// All fields are safe for concurrent use.
type Metrics struct {
	IngestDuration    metric.Float64Histogram
	RetrievalDuration metric.Float64Histogram
	EmbeddingDuration metric.Float64Histogram
	RerankDuration    metric.Float64Histogram

	IngestedNodes  metric.Int64Counter
	IngestFailures metric.Int64Counter
	SearchQueries  metric.Int64Counter
	PageRankRuns   metric.Int64Counter

	ActiveGraphs metric.Int64UpDownCounter

	HTTPRequestDuration metric.Float64Histogram
}

// NewMetrics creates every instrument against mp. Returns an error if any
// instrument registration fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.IngestDuration, err = m.Float64Histogram("codegraph.ingest.duration",
		metric.WithDescription("Latency of a full ingestion run."),
		metric.WithUnit("s"), metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, err
	}
	if met.RetrievalDuration, err = m.Float64Histogram("codegraph.retrieval.duration",
		metric.WithDescription("Latency of a retrieval query."),
		metric.WithUnit("s"), metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, err
	}
	if met.EmbeddingDuration, err = m.Float64Histogram("codegraph.embedding.duration",
		metric.WithDescription("Latency of an embedding batch call."),
		metric.WithUnit("s"), metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, err
	}
	if met.RerankDuration, err = m.Float64Histogram("codegraph.rerank.duration",
		metric.WithDescription("Latency of a reranker HTTP call."),
		metric.WithUnit("s"), metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, err
	}

	if met.IngestedNodes, err = m.Int64Counter("codegraph.ingest.nodes",
		metric.WithDescription("Total nodes inserted across all ingestion runs.")); err != nil {
		return nil, err
	}
	if met.IngestFailures, err = m.Int64Counter("codegraph.ingest.failures",
		metric.WithDescription("Total ingestion runs that rolled back.")); err != nil {
		return nil, err
	}
	if met.SearchQueries, err = m.Int64Counter("codegraph.search.queries",
		metric.WithDescription("Total hybrid search queries by outcome.")); err != nil {
		return nil, err
	}
	if met.PageRankRuns, err = m.Int64Counter("codegraph.pagerank.runs",
		metric.WithDescription("Total PageRank passes by convergence outcome.")); err != nil {
		return nil, err
	}

	if met.ActiveGraphs, err = m.Int64UpDownCounter("codegraph.active_graphs",
		metric.WithDescription("Number of graphs currently resident in the Store.")); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("codegraph.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordIngest records one ingestion run's duration and outcome.
func (m *Metrics) RecordIngest(ctx context.Context, seconds float64, nodeCount int, ok bool) {
	m.IngestDuration.Record(ctx, seconds)
	m.IngestedNodes.Add(ctx, int64(nodeCount))
	if !ok {
		m.IngestFailures.Add(ctx, 1)
	}
}

// RecordSearch records a search query outcome (status: "ok", "error",
// "no_results").
func (m *Metrics) RecordSearch(ctx context.Context, status string) {
	m.SearchQueries.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordPageRank records a PageRank pass's convergence outcome.
func (m *Metrics) RecordPageRank(ctx context.Context, converged bool) {
	status := "converged"
	if !converged {
		status = "not_converged"
	}
	m.PageRankRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
