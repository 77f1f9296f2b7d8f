package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoctl_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "topoctl_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
			// 1ms to 10s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks currently processing requests.
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "topoctl_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// InjectedFaults counts failures injected by the emulator.
	InjectedFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoctl_emulator_injected_faults_total",
			Help: "Total number of failures injected by the emulator",
		},
		[]string{"kind"},
	)

	// RateLimitedRequests counts requests the emulator throttled.
	RateLimitedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topoctl_emulator_rate_limited_requests_total",
			Help: "Total number of requests rejected by the emulator rate limit",
		},
	)
)

func registerHTTPMetrics() error {
	return register(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		InjectedFaults,
		RateLimitedRequests,
	)
}
