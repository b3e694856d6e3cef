// Package metrics declares the Prometheus instruments of the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "baduklive"

var (
	// FetchTotal counts upstream fetches by kind (list, detail, analysis) and outcome.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Upstream fetches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch latency including retries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// StaleResponses counts fetch results dropped because the selection changed.
	StaleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Fetch results discarded after the selected match changed",
		},
		[]string{"kind"},
	)

	AnalysisMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_records_merged_total",
			Help:      "Analysis records inserted or overwritten",
		},
	)

	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Kiosk sessions currently held by the hub",
		},
	)

	Watchers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_watchers",
			Help:      "Attached stream clients by transport",
		},
		[]string{"transport"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_breaker_state",
			Help:      "Circuit breaker state of the upstream client",
		},
	)

	ArchiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_writes_total",
			Help:      "Archive writes by table and outcome",
		},
		[]string{"table", "outcome"},
	)
)

// Outcome maps an error to an outcome label
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
