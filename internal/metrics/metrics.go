package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "campusrun"

var (
	SamplesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_samples_total",
		Help:      "Location samples accumulated by the positioning session.",
	})

	TrackingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracking_active",
		Help:      "1 while a positioning session holds a location subscription.",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_completed_total",
		Help:      "Runs finalized into the run history.",
	})

	RemoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_calls_total",
		Help:      "Calls to the remote collaborator by operation and result.",
	}, []string{"operation", "result"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_cache_lookups_total",
		Help:      "Remote collection reads served from cache (hit) or fetched (miss).",
	}, []string{"collection", "result"})
)

// ObserveRemote records the outcome of one remote call.
func ObserveRemote(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RemoteCalls.WithLabelValues(operation, result).Inc()
}
