package metrics

import "github.com/prometheus/client_golang/prometheus"

// Source status label values.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// Search pipeline Prometheus metrics.
var (
	SourceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studysearch",
			Name:      "source_requests_total",
			Help:      "Total number of source adapter calls",
		},
		[]string{"source", "status"},
	)

	SourceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studysearch",
			Name:      "source_request_duration_seconds",
			Help:      "Source adapter call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	ItemsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studysearch",
			Name:      "items_dropped_total",
			Help:      "Candidate items rejected before reaching the response",
		},
		[]string{"source", "reason"}, // "irrelevant" / "unpopular" / "invalid"
	)

	QueryOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studysearch",
			Name:      "query_outcomes_total",
			Help:      "Queries by terminal outcome",
		},
		[]string{"outcome"},
	)

	AssistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studysearch",
			Name:      "assistant_requests_total",
			Help:      "Language-model fallback calls",
		},
		[]string{"provider", "status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SourceRequestsTotal)
	prometheus.MustRegister(SourceRequestDuration)
	prometheus.MustRegister(ItemsDroppedTotal)
	prometheus.MustRegister(QueryOutcomesTotal)
	prometheus.MustRegister(AssistantRequestsTotal)
	searchMetricsRegistered = true
}

// RecordDrops adds per-reason drop counts for a source.
func RecordDrops(source string, drops map[string]int) {
	for reason, n := range drops {
		if n > 0 {
			ItemsDroppedTotal.WithLabelValues(source, reason).Add(float64(n))
		}
	}
}
