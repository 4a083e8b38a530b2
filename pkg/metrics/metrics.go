// Package metrics exposes the Prometheus collectors of the item cache.
// Collectors are declared with promauto next to the code that updates them
// (cache, itemcache, lock, catalog, ratelimit); this package only serves
// them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is where every collector in this module registers.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the collectors registered in Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered collectors in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Collectors
//
// Lookup path (pkg/itemcache):
//   - flashsale_item_cache_lookups_total{result} (Counter): local_hit, remote_hit, refilled, try_later, error
//   - flashsale_item_cache_lookup_duration_seconds (Histogram)
//   - flashsale_item_cache_local_writes_total{outcome} (Counter): stored, contended, stale, rejected
//   - flashsale_item_cache_refills_total{outcome} (Counter): positive, negative, double_check_hit, lock_unavailable, upstream_error, error
//   - flashsale_item_cache_refill_duration_seconds (Histogram): lock wait included
//   - flashsale_item_cache_refills_coalesced_total (Counter)
//
// Remote tier (pkg/cache):
//   - flashsale_remote_cache_hits_total, flashsale_remote_cache_misses_total (Counter)
//   - flashsale_remote_cache_written_bytes_total (Counter)
//   - flashsale_remote_cache_errors_total{operation} (Counter)
//
// Refill lock (pkg/lock):
//   - flashsale_lock_acquire_total{outcome} (Counter): acquired, timeout, cancelled, error
//   - flashsale_lock_wait_seconds (Histogram)
//   - flashsale_lock_release_total{outcome} (Counter): released, expired, error
//
// Catalog (pkg/catalog, pkg/ratelimit):
//   - flashsale_catalog_requests_total{status}, flashsale_catalog_errors_total{class} (Counter)
//   - flashsale_catalog_request_duration_seconds (Histogram)
//   - flashsale_catalog_retries_total{error_class}, flashsale_catalog_retry_exhausted_total{error_class} (Counter)
//   - flashsale_catalog_rate_limit_remaining (Gauge)
//   - flashsale_catalog_rate_limit_blocks_total, flashsale_catalog_rate_limit_throttles_total (Counter)
//
// Example queries:
//
//	# local hit ratio
//	sum(rate(flashsale_item_cache_lookups_total{result="local_hit"}[5m]))
//	  / sum(rate(flashsale_item_cache_lookups_total[5m]))
//
//	# try-later rate during a sale
//	rate(flashsale_item_cache_lookups_total{result="try_later"}[1m])
//
//	# P99 lock wait
//	histogram_quantile(0.99, rate(flashsale_lock_wait_seconds_bucket[5m]))
