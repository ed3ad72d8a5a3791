package fs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// mutationTotal counts gateway mutations by operation and result.
	mutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadrant_mutation_total",
		Help: "Total gateway mutations by operation and result",
	}, []string{"operation", "result"})

	// mutationDuration tracks the read-modify-write time, lock wait excluded.
	mutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quadrant_mutation_duration_seconds",
		Help:    "Gateway mutation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"operation"})

	// lockWaitDuration tracks how long mutations queued behind a file lock.
	lockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quadrant_file_lock_wait_seconds",
		Help:    "Time spent waiting for a per-file mutation lock",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// staleLockTotal counts file locks force-released after going stale.
	staleLockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadrant_file_lock_stale_total",
		Help: "Total per-file locks force-released after the stale timeout",
	})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// MetricsHandler serves the gateway metrics, along with the rest of the
// default registry, in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
