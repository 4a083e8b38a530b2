package cache

import "strconv"

// Default key prefixes. They must stay bit-exact with existing deployments
// that share the same Redis instance.
const (
	DefaultItemKeyPrefix = "ITEM_CACHE_KEY_"
	DefaultLockKeyPrefix = "UPDATE_ITEM_CACHE_LOCK_KEY_"
)

// Key identifies a per-item record in Redis.
type Key struct {
	// Prefix is prepended verbatim to the item id.
	Prefix string

	// ItemID is the flash item id.
	ItemID int64
}

// ItemKey returns the cache key for an item using the default prefix.
func ItemKey(itemID int64) Key {
	return Key{Prefix: DefaultItemKeyPrefix, ItemID: itemID}
}

// LockKey returns the refill lock name for an item using the default prefix.
func LockKey(itemID int64) Key {
	return Key{Prefix: DefaultLockKeyPrefix, ItemID: itemID}
}

// String generates the Redis key.
// Format: <prefix><item id>
//
// Example:
//
//	ITEM_CACHE_KEY_10086
func (k Key) String() string {
	return k.Prefix + strconv.FormatInt(k.ItemID, 10)
}
