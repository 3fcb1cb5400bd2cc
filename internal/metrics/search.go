package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	searchModelDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_model_duration_seconds",
			Help:      "Duration of one per-model sub-search",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"model"},
	)

	searchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Records returned by sub-searches before pagination",
		},
		[]string{"model"},
	)

	searchSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_skipped_total",
			Help:      "Per-model sub-searches skipped",
		},
		[]string{"model", "reason"}, // "no_text_fields" / "unknown_schema"
	)

	filterRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_rejections_total",
			Help:      "Search requests rejected by the filter compiler",
		},
		[]string{"kind"},
	)

	// SchemaCacheTotal counts schema cache lookups by result ("hit"/"miss").
	SchemaCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_cache_total",
			Help:      "Schema cache lookups",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		searchModelDuration, searchResultsTotal, searchSkippedTotal, filterRejectionsTotal, SchemaCacheTotal,
	)
}

// Search implements the orchestrator's recorder on top of the default registry.
type Search struct{}

// ObserveModel records one completed sub-search.
func (Search) ObserveModel(model string, took time.Duration, results int) {
	searchModelDuration.WithLabelValues(model).Observe(took.Seconds())
	searchResultsTotal.WithLabelValues(model).Add(float64(results))
}

// Skipped records a sub-search that contributed nothing by rule.
func (Search) Skipped(model, reason string) {
	searchSkippedTotal.WithLabelValues(model, reason).Inc()
}

// FilterRejected records a request aborted by a filter error of the given kind.
func (Search) FilterRejected(kind string) {
	filterRejectionsTotal.WithLabelValues(kind).Inc()
}
