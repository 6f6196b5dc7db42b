package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_motion_jobs_processed_total",
		Help: "Total number of motion visualization jobs processed, by outcome",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_motion_job_duration_seconds",
		Help:    "Duration of motion visualization stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	VectorsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_motion_vectors_extracted_total",
		Help: "Total number of valid motion vectors aggregated across all extractions",
	})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_motion_cache_lookups_total",
		Help: "Collection cache lookups, by result (hit, miss, shared, error)",
	}, []string{"result"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fiapx_motion_active_workers",
		Help: "Number of workers currently rendering a motion field",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_motion_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
