// Package cache provides the shared, out-of-process tier of the item cache,
// backed by Redis.
//
// The package is deliberately payload-agnostic: it stores opaque byte values
// under string keys with a TTL. Encoding of item cache entries lives in
// package itemcache.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Build the key for item 42 ("ITEM_CACHE_KEY_42")
//	key := cache.ItemKey(42).String()
//
//	// Get from cache
//	data, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - refill under the item lock
//	}
//
//	// Store with TTL
//	err = manager.Put(ctx, key, data, 5*time.Minute)
//
// # Key Naming
//
// Keys are a fixed prefix followed by the decimal item id. The default
// prefixes match the deployed flash-sale services:
//
//   - ITEM_CACHE_KEY_<id> - cached item entry
//   - UPDATE_ITEM_CACHE_LOCK_KEY_<id> - refill lock for the item
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - flashsale_remote_cache_hits_total - Remote tier hits
//   - flashsale_remote_cache_misses_total - Remote tier misses
//   - flashsale_remote_cache_written_bytes_total - Bytes written to the remote tier
//   - flashsale_remote_cache_errors_total{operation} - Remote tier operation errors
package cache
