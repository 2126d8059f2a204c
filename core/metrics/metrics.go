// Package metrics holds the prometheus collectors shared by the engine, the
// source adapters and the job worker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

var (
	MancerCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomancer_mancer_calls_total",
		Help: "Total source adapter calls by operation and outcome",
	}, []string{"mancer", "operation", "outcome"})
	MancerDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geomancer_mancer_duration_ms",
		Help:    "Source adapter call duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"mancer", "operation"})
	LookupCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomancer_lookup_cache_total",
		Help: "Per-job resolution cache hits and misses",
	}, []string{"result"})
	MetadataCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomancer_metadata_cache_total",
		Help: "Adapter metadata cache hits and misses",
	}, []string{"result"})
	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomancer_jobs_total",
		Help: "Jobs processed by the worker by task and status",
	}, []string{"task", "status"})
	JobDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geomancer_job_duration_ms",
		Help:    "Job duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"task"})
	RowsMergedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomancer_rows_merged_total",
		Help: "Rows written by the merge engine, matched or missing",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(MancerCallsTotal)
	prometheus.MustRegister(MancerDurationMs)
	prometheus.MustRegister(LookupCacheTotal)
	prometheus.MustRegister(MetadataCacheTotal)
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(JobDurationMs)
	prometheus.MustRegister(RowsMergedTotal)
}

// Outcome labels an adapter call result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler exposes the registered collectors.
func Handler() http.Handler { return promhttp.Handler() }
