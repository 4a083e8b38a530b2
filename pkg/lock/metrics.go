package lock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for distributed lock operations.
var (
	lockAcquireTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashsale_lock_acquire_total",
		Help: "Distributed lock acquisition attempts by outcome",
	}, []string{"outcome"}) // "acquired", "timeout", "cancelled", "error"

	lockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashsale_lock_wait_seconds",
		Help:    "Time spent waiting for a distributed lock",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	lockReleaseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashsale_lock_release_total",
		Help: "Distributed lock releases by outcome",
	}, []string{"outcome"}) // "released", "expired", "error"
)
