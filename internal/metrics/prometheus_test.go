package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocompleted/internal/metrics"
)

func TestRecorder_RecordQuery_CountsByOutcome(t *testing.T) {
	metrics.ResetForTesting()
	r := metrics.NewRecorder("autocompleted_test")

	r.RecordQuery(true)
	r.RecordQuery(true)
	r.RecordQuery(false)

	mfs, err := r.Registry().Gather()
	require.NoError(t, err)

	var hit, scan float64
	for _, mf := range mfs {
		if mf.GetName() != "autocompleted_test_autocomplete_queries_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == "cache_hit" {
					hit = m.GetCounter().GetValue()
				}
				if l.GetName() == "result" && l.GetValue() == "scan" {
					scan = m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, float64(2), hit)
	assert.Equal(t, float64(1), scan)
}

func TestRecorder_SetCacheSizeAndEntryCount(t *testing.T) {
	metrics.ResetForTesting()
	r := metrics.NewRecorder("autocompleted_test")

	r.SetCacheSize(7)
	r.SetEntryCount(42)

	mfs, err := r.Registry().Gather()
	require.NoError(t, err)

	var cacheSize, entryCount float64
	for _, mf := range mfs {
		switch mf.GetName() {
		case "autocompleted_test_autocomplete_cache_size":
			cacheSize = mf.GetMetric()[0].GetGauge().GetValue()
		case "autocompleted_test_index_entries_total":
			entryCount = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(7), cacheSize)
	assert.Equal(t, float64(42), entryCount)
}

func TestRecorder_ObserveQueryDuration_RecordsToHistogram(t *testing.T) {
	metrics.ResetForTesting()
	r := metrics.NewRecorder("autocompleted_test")

	r.ObserveQueryDuration(5 * time.Millisecond)

	mfs, err := r.Registry().Gather()
	require.NoError(t, err)

	var sampleCount uint64
	for _, mf := range mfs {
		if mf.GetName() != "autocompleted_test_autocomplete_query_duration_seconds" {
			continue
		}
		sampleCount = mf.GetMetric()[0].GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(1), sampleCount)
}

func TestRecorder_NewRecorder_IsSingletonPerProcess(t *testing.T) {
	metrics.ResetForTesting()
	a := metrics.NewRecorder("autocompleted_test")
	b := metrics.NewRecorder("autocompleted_test")
	assert.Same(t, a, b)
}
