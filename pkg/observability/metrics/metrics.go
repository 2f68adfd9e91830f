package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	reportsNormalized    atomic.Int64
	metricRecordsWritten atomic.Int64
	normalizationFailed  atomic.Int64
	correlationPasses    atomic.Int64
	correlationCacheHits atomic.Int64
	seriesLookupFailures atomic.Int64
)

func IncReportsNormalized()          { reportsNormalized.Add(1) }
func AddMetricRecordsWritten(n int)  { metricRecordsWritten.Add(int64(n)) }
func IncNormalizationFailed()        { normalizationFailed.Add(1) }
func IncCorrelationPasses()          { correlationPasses.Add(1) }
func IncCorrelationCacheHits()       { correlationCacheHits.Add(1) }
func IncSeriesLookupFailures()       { seriesLookupFailures.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP hepascope_reports_normalized_total Reports that completed normalization.\n")
	fmt.Fprintf(w, "# TYPE hepascope_reports_normalized_total counter\n")
	fmt.Fprintf(w, "hepascope_reports_normalized_total %d\n", reportsNormalized.Load())

	fmt.Fprintf(w, "# HELP hepascope_metric_records_written_total Canonical metric records persisted.\n")
	fmt.Fprintf(w, "# TYPE hepascope_metric_records_written_total counter\n")
	fmt.Fprintf(w, "hepascope_metric_records_written_total %d\n", metricRecordsWritten.Load())

	fmt.Fprintf(w, "# HELP hepascope_normalization_failed_total Reports whose normalization failed.\n")
	fmt.Fprintf(w, "# TYPE hepascope_normalization_failed_total counter\n")
	fmt.Fprintf(w, "hepascope_normalization_failed_total %d\n", normalizationFailed.Load())

	fmt.Fprintf(w, "# HELP hepascope_correlation_passes_total Imaging-lab correlation passes computed.\n")
	fmt.Fprintf(w, "# TYPE hepascope_correlation_passes_total counter\n")
	fmt.Fprintf(w, "hepascope_correlation_passes_total %d\n", correlationPasses.Load())

	fmt.Fprintf(w, "# HELP hepascope_correlation_cache_hits_total Correlation responses served from cache.\n")
	fmt.Fprintf(w, "# TYPE hepascope_correlation_cache_hits_total counter\n")
	fmt.Fprintf(w, "hepascope_correlation_cache_hits_total %d\n", correlationCacheHits.Load())

	fmt.Fprintf(w, "# HELP hepascope_series_lookup_failures_total Per-metric series fetches that degraded to empty.\n")
	fmt.Fprintf(w, "# TYPE hepascope_series_lookup_failures_total counter\n")
	fmt.Fprintf(w, "hepascope_series_lookup_failures_total %d\n", seriesLookupFailures.Load())
}
