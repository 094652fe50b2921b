// internal/metrics/prom.go
// Package metrics centralises Prometheus metric registration for the
// classforge processor and its CLI driver. It exposes typed collectors so
// instrumented code stays import-cycle-free, grounded on the teacher's
// internal/metrics/prom.go (same once.Do registration shape, same
// namespace/subsystem/name layering, swapped from runtime/gateway metrics to
// engine/provider/capture metrics). Callers expose these via the /metrics
// HTTP handler from the Prometheus client library (see internal/progress).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var once sync.Once

var (
	// Counter metrics -------------------------------------------------------

	RoundsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classforge",
		Subsystem: "engine",
		Name:      "rounds_total",
		Help:      "Total number of transformation rounds executed.",
	})

	ClassesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classforge",
		Subsystem: "engine",
		Name:      "classes_written_total",
		Help:      "Total number of classes whose bytecode was rewritten.",
	})

	ClassesParsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classforge",
		Subsystem: "provider",
		Name:      "classes_parsed_total",
		Help:      "Total number of classfile parses performed by a Reader.",
	})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classforge",
		Subsystem: "provider",
		Name:      "cache_hits_total",
		Help:      "Total number of class lookups served from the weak/pinned cache.",
	})

	StaleCapturesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classforge",
		Subsystem: "capture",
		Name:      "stale_captures_total",
		Help:      "Total number of ErrStaleCapture rejections observed across all rounds.",
	})

	// Gauge metrics ---------------------------------------------------------

	ActiveRoundTransformers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "classforge",
		Subsystem: "engine",
		Name:      "active_round_transformers",
		Help:      "Number of transformers running READ concurrently in the current round.",
	})

	ProgressSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "classforge",
		Subsystem: "progress",
		Name:      "subscribers",
		Help:      "Current number of active WebSocket progress subscribers.",
	})

	// Histogram metrics -------------------------------------------------------

	RoundDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "classforge",
		Subsystem: "engine",
		Name:      "round_duration_seconds",
		Help:      "Wall-clock duration of a single READ/fixpoint/WRITE round.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register exports all metrics; safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RoundsTotal,
			ClassesWrittenTotal,
			ClassesParsedTotal,
			CacheHitsTotal,
			StaleCapturesTotal,
			ActiveRoundTransformers,
			ProgressSubscribers,
			RoundDuration,
		)
	})
}
