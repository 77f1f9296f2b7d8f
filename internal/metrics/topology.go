package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ResourcesCreated counts controller resources created by the builder.
	ResourcesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoctl_resources_created_total",
			Help: "Total number of controller resources created",
		},
		[]string{"kind"},
	)

	// ResourcesRolledBack counts undo actions by outcome.
	ResourcesRolledBack = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoctl_resources_rolled_back_total",
			Help: "Total number of undo actions run during rollback",
		},
		[]string{"status"},
	)

	// ApplyDuration measures how long a blueprint takes to apply.
	ApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topoctl_apply_duration_seconds",
			Help:    "Time taken to apply a blueprint",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	// ApplyResults counts apply runs by result: "success", "rolled_back"
	// or "rollback_failed".
	ApplyResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoctl_apply_results_total",
			Help: "Total number of apply runs by result",
		},
		[]string{"result"},
	)
)

func registerTopologyMetrics() error {
	return register(
		ResourcesCreated,
		ResourcesRolledBack,
		ApplyDuration,
		ApplyResults,
	)
}
