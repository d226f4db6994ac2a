// Package metrics defines the prometheus collectors for the pipeline,
// the upstream extractor, and the query API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_pipeline_runs_total",
			Help: "Pipeline runs by dispatch mode and outcome",
		},
		[]string{"mode", "status"},
	)

	RowsLoadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_rows_loaded_total",
			Help: "Rows written to the store by table and pipeline mode",
		},
		[]string{"table", "mode"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_upstream_requests_total",
			Help: "Upstream dataset requests by resource and outcome",
		},
		[]string{"resource", "status"},
	)

	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_upstream_retries_total",
			Help: "Upstream request retries after timeouts",
		},
		[]string{"resource"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_query_duration_seconds",
			Help:    "Duration of aggregation queries by endpoint",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"endpoint"},
	)
)
