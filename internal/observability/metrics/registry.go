// Package metrics provides the Prometheus metrics registry shared by the
// coordinator and worker binaries: HTTP surface metrics for the
// coordinator API, and domain metrics for the fetch/parse/store pipeline,
// the rotation scheduler's instance registry, and the batch indexer.
//
// All metrics are registered with the default Prometheus registry via
// promauto. This package does not serve them over HTTP, and neither binary
// mounts a /metrics handler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coordinator API metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinator_http_requests_total",
			Help: "Total number of HTTP requests handled by the coordinator API",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coordinator_http_request_duration_seconds",
			Help:    "Coordinator HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RegisteredInstances = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coordinator_instances",
			Help: "Number of crawler instances known to the registry, by status",
		},
		[]string{"status"},
	)

	ScheduleGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinator_schedule_generations_total",
			Help: "Total number of DailySchedule generations run by the trigger or on-demand endpoint",
		},
		[]string{"trigger"}, // trigger: "daily" | "on_demand"
	)
)

// Worker pipeline metrics (C5), keyed by stage and outcome per spec §7.
var (
	PipelineItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_pipeline_items_total",
			Help: "Total number of URLs processed by the worker pipeline, by stage and outcome",
		},
		[]string{"stage", "outcome"}, // outcome: success | skipped | failed
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_pipeline_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage per item",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"stage"},
	)

	PipelineQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_pipeline_queue_depth",
			Help: "Current depth of the bounded channel feeding each pipeline stage",
		},
		[]string{"stage"},
	)
)

// Fetcher metrics (C1).
var (
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetcher_attempts_total",
			Help: "Total fetch attempts by outcome",
		},
		[]string{"outcome"}, // success | rate_limit | server_error | timeout | max_retries | decode_error | http_error
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fetcher_duration_seconds",
			Help:    "Total wall time of a fetch, including retries",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	RateLimiterWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fetcher_ratelimit_wait_seconds",
			Help:    "Time spent waiting for a rate-limit token before a request is issued",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
)

// Indexer metrics (C11).
var (
	IndexerBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_batches_total",
			Help: "Total number of indexer batches processed, by result",
		},
		[]string{"result"}, // success | partial | failed
	)

	IndexerDocsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_documents_total",
			Help: "Total number of documents indexed, by result",
		},
		[]string{"result"}, // success | failed
	)

	IndexerBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "indexer_batch_duration_seconds",
			Help:    "Time to embed and bulk-upsert one batch",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

// Cache adapter metrics (C12). All cache errors are swallowed per spec
// §4.12; these counters are the only surfaced signal.
var (
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total cache operations by kind and result",
		},
		[]string{"kind", "result"}, // kind: embedding|search|metadata, result: hit|miss|error
	)
)

// RecordHTTPRequest records one coordinator API request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordPipelineItem records one item's outcome at one pipeline stage.
func RecordPipelineItem(stage, outcome string, duration time.Duration) {
	PipelineItemsTotal.WithLabelValues(stage, outcome).Inc()
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordFetch records one fetch attempt's terminal outcome and total
// wall-clock duration (including any retries).
func RecordFetch(outcome string, duration time.Duration) {
	FetchAttemptsTotal.WithLabelValues(outcome).Inc()
	FetchDuration.Observe(duration.Seconds())
}

// RecordIndexerBatch records one indexer batch's result and duration.
func RecordIndexerBatch(result string, duration time.Duration, success, failed int) {
	IndexerBatchesTotal.WithLabelValues(result).Inc()
	IndexerBatchDuration.Observe(duration.Seconds())
	if success > 0 {
		IndexerDocsTotal.WithLabelValues("success").Add(float64(success))
	}
	if failed > 0 {
		IndexerDocsTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// RecordCacheOp records one cache operation outcome.
func RecordCacheOp(kind, result string) {
	CacheOpsTotal.WithLabelValues(kind, result).Inc()
}

// SetInstanceCounts sets the registry gauge for the given status to count,
// called by the registry after every mutation to keep the gauge current.
func SetInstanceCounts(counts map[string]int) {
	for status, n := range counts {
		RegisteredInstances.WithLabelValues(status).Set(float64(n))
	}
}
