package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks remote tier hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashsale_remote_cache_hits_total",
			Help: "Total number of remote item cache hits",
		},
	)

	// CacheMisses tracks remote tier misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashsale_remote_cache_misses_total",
			Help: "Total number of remote item cache misses",
		},
	)

	// CacheWrittenBytes tracks bytes written to the remote tier
	CacheWrittenBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashsale_remote_cache_written_bytes_total",
			Help: "Total number of bytes written to the remote item cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashsale_remote_cache_errors_total",
			Help: "Total number of remote cache operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete"
	)
)
