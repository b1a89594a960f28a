// Package metrics 入库流程的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipssync_ingest_runs_total",
		Help: "Pipeline runs by source and outcome (saved/skipped/failed).",
	}, []string{"source", "outcome"})
	RowsScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipssync_rows_scraped_total",
		Help: "Raw rows extracted from fetched pages.",
	})
	TipsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipssync_tips_saved_total",
		Help: "Tips persisted by tier.",
	}, []string{"tier"})
	RowsUnclassified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipssync_rows_unclassified_total",
		Help: "Publishable rows whose score matched no rule.",
	})
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipssync_fetch_failures_total",
		Help: "Page fetches that returned no content.",
	})
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tipssync_ingest_duration_seconds",
		Help:    "Duration of a full pipeline run.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
	})
)
