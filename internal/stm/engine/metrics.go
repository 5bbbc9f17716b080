package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	txEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simpletm",
			Subsystem: "tx",
			Name:      "events_total",
			Help:      "Counter of transaction outcomes and conflicts.",
		}, []string{"type"})

	txAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "simpletm",
			Subsystem: "tx",
			Name:      "attempts",
			Help:      "Attempts needed per finished transaction.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		})

	allocEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simpletm",
			Subsystem: "alloc",
			Name:      "events_total",
			Help:      "Counter of transactional allocator events.",
		}, []string{"type"})
)

const (
	eventCommit   = "commit"
	eventRestart  = "restart"
	eventConflict = "conflict"
	eventRecover  = "recover"
	eventAbort    = "abort"

	allocSuccess = "alloc"
	allocFailure = "alloc_failure"
	allocFree    = "free"
)

func init() {
	prometheus.MustRegister(txEvents)
	prometheus.MustRegister(txAttempts)
	prometheus.MustRegister(allocEvents)
}
