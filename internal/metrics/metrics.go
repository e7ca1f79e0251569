// Package metrics holds the Prometheus instruments used by the dispatcher.
// All collectors are registered with the global registry, so mounting
// promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Error kinds used as the "kind" label of RequestErrorsTotal.
const (
	KindStructured = "structured"
	KindInternal   = "internal"
	KindNotFound   = "not_found"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "andromeda_requests_total",
			Help: "Requests handled, by method, route pattern, and status code.",
		}, []string{"method", "route", "status"})

	RequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "andromeda_request_errors_total",
			Help: "Requests that ended on the error path, by kind.",
		}, []string{"kind"})

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "andromeda_request_duration_seconds",
			Help:    "Time spent in endpoint handlers and rendering.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

	EndpointsRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "andromeda_endpoints_registered",
			Help: "Number of endpoint patterns registered across dispatchers.",
		})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestErrorsTotal,
		RequestDuration,
		EndpointsRegistered,
	)
}
