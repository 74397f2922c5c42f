// Package metrics implements index.Recorder on top of Prometheus, mirroring
// the teacher's observability.Collector (its own registry, metrics created
// once and registered up front rather than lazily).
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder satisfies index.Recorder. It never imports the index package
// itself (the core package stays dependency-free); internal/index only
// needs Recorder's method set.
type Recorder struct {
	registry *prometheus.Registry

	queriesTotal *prometheus.CounterVec
	cacheSize    prometheus.Gauge
	entryCount   prometheus.Gauge
	queryDur     prometheus.Histogram
}

var (
	globalRecorder *Recorder
	recorderMu     sync.Mutex
)

// NewRecorder builds a Recorder with its own registry under namespace. A
// process holds exactly one: calling NewRecorder twice with the same
// namespace returns the first instance, so tests and repeated wiring from
// cmd/autocompleted never hit a duplicate-registration panic.
func NewRecorder(namespace string) *Recorder {
	recorderMu.Lock()
	defer recorderMu.Unlock()

	if globalRecorder != nil {
		return globalRecorder
	}

	registry := prometheus.NewRegistry()

	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autocomplete_queries_total",
			Help:      "Total number of autocomplete queries, partitioned by cache outcome.",
		},
		[]string{"result"},
	)

	cacheSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "autocomplete_cache_size",
		Help:      "Current number of cached short-prefix result sets.",
	})

	entryCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_entries_total",
		Help:      "Current number of entries held in the index.",
	})

	queryDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "autocomplete_query_duration_seconds",
		Help:      "Autocomplete call latency, cache hits and scans alike.",
		Buckets:   prometheus.DefBuckets,
	})

	registry.MustRegister(queriesTotal, cacheSize, entryCount, queryDur)

	globalRecorder = &Recorder{
		registry:     registry,
		queriesTotal: queriesTotal,
		cacheSize:    cacheSize,
		entryCount:   entryCount,
		queryDur:     queryDur,
	}
	return globalRecorder
}

// ResetForTesting drops the singleton so tests can build a fresh Recorder
// against a fresh registry.
func ResetForTesting() {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	globalRecorder = nil
}

// RecordQuery counts one Autocomplete call, labeled by whether it was
// served from the short-prefix cache.
func (r *Recorder) RecordQuery(cacheHit bool) {
	if cacheHit {
		r.queriesTotal.WithLabelValues("cache_hit").Inc()
		return
	}
	r.queriesTotal.WithLabelValues("scan").Inc()
}

// SetCacheSize reports the cache's current entry count.
func (r *Recorder) SetCacheSize(n int) {
	r.cacheSize.Set(float64(n))
}

// SetEntryCount reports the index's current entry count.
func (r *Recorder) SetEntryCount(n int) {
	r.entryCount.Set(float64(n))
}

// ObserveQueryDuration records one Autocomplete call's wall-clock latency.
func (r *Recorder) ObserveQueryDuration(d time.Duration) {
	r.queryDur.Observe(d.Seconds())
}

// Registry exposes the underlying registry so an HTTP handler can serve it
// at /metrics via promhttp.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
