package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StoreQueryDuration measures emulator store query duration by operation.
	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "topoctl_store_query_duration_seconds",
			Help: "Emulator store query duration in seconds",
			// 100µs to 1s
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation"},
	)

	// StoreResources tracks live resources held by the emulator by kind.
	StoreResources = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topoctl_store_resources",
			Help: "Number of live resources in the emulator store",
		},
		[]string{"kind"},
	)
)

func registerStoreMetrics() error {
	return register(
		StoreQueryDuration,
		StoreResources,
	)
}
