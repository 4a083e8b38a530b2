// Package itemcache implements the read path for hot flash-sale items.
//
// A lookup consults three layers in order:
//
//  1. LocalTier - a bounded in-process cache with a short TTL (10s).
//  2. The remote tier - Redis, keyed ITEM_CACHE_KEY_<id>, TTL 5 minutes.
//  3. A locked refill - acquires UPDATE_ITEM_CACHE_LOCK_KEY_<id> (wait 1s,
//     lease 5s), re-checks Redis, fetches the item once from the store and
//     writes the new entry back to Redis.
//
// Callers that lose the lock race get a try-later entry instead of
// waiting on the store. Items missing upstream are cached as negative
// entries with the same TTLs.
//
// # Client Versions
//
// Every entry carries a version: the refill time in milliseconds, strictly
// increasing within a process. A caller that has already seen a newer
// version passes it to Lookup, which then skips the local tier for that
// request.
//
//	svc, err := itemcache.NewService(itemcache.DefaultConfig(), store, cache.NewManager(rdb), lock.NewRedisLocker(rdb, lock.DefaultConfig()))
//	if err != nil {
//		return err
//	}
//
//	entry, err := svc.Lookup(ctx, 42, nil)
//	switch {
//	case err != nil:
//		// Redis unavailable
//	case entry.IsTryLater():
//		// retry shortly
//	case !entry.Exists():
//		// item does not exist
//	default:
//		item, _ := entry.Item()
//		_ = item
//	}
package itemcache
