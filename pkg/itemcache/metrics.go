package itemcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the item cache.
var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashsale_item_cache_lookups_total",
		Help: "Item cache lookups by result",
	}, []string{"result"}) // "local_hit", "remote_hit", "refilled", "try_later", "error"

	lookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashsale_item_cache_lookup_duration_seconds",
		Help:    "Item cache lookup duration in seconds",
		Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	})

	localWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashsale_item_cache_local_writes_total",
		Help: "Local tier write attempts by outcome",
	}, []string{"outcome"}) // "stored", "contended", "stale", "rejected"

	refillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashsale_item_cache_refills_total",
		Help: "Refill attempts by outcome",
	}, []string{"outcome"}) // "positive", "negative", "double_check_hit", "lock_unavailable", "upstream_error", "timeout", "abandoned", "error"

	refillDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashsale_item_cache_refill_duration_seconds",
		Help:    "Refill duration in seconds, lock wait included",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	refillsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flashsale_item_cache_refills_coalesced_total",
		Help: "Refill calls that shared a result with concurrent callers in the same process",
	})
)
