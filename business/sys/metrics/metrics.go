// Package metrics constructs the metrics the application will track.
package metrics

import (
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This holds the single instance of the metrics value needed for
// collecting metrics. The prometheus collectors are already safe for
// concurrent access so no locking is required.
var m = struct {
	goroutines prometheus.Gauge
	requests   *prometheus.CounterVec
	errors     prometheus.Counter
	panics     prometheus.Counter
}{
	goroutines: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "node",
		Name:      "goroutines",
		Help:      "Number of goroutines sampled every 100 requests.",
	}),
	requests: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "node",
		Name:      "requests_total",
		Help:      "Number of HTTP requests handled by route.",
	}, []string{"method", "route"}),
	errors: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "node",
		Name:      "errors_total",
		Help:      "Number of HTTP requests that returned an error.",
	}),
	panics: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "node",
		Name:      "panics_total",
		Help:      "Number of HTTP requests that panicked.",
	}),
}

// requestCount drives the goroutine sampling.
var requestCount atomic.Int64

// AddGoroutines refreshes the goroutine metric.
func AddGoroutines() {
	m.goroutines.Set(float64(runtime.NumGoroutine()))
}

// AddRequests increments the request metric for the route and returns the
// total number of requests seen.
func AddRequests(method string, route string) int64 {
	m.requests.WithLabelValues(method, route).Inc()
	return requestCount.Add(1)
}

// AddErrors increments the errors metric.
func AddErrors() {
	m.errors.Inc()
}

// AddPanics increments the panics metric.
func AddPanics() {
	m.panics.Inc()
}
