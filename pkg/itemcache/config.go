package itemcache

import (
	"fmt"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/cache"
)

// Config holds the freshness and locking policy of the item cache.
type Config struct {
	// LocalTTL is how long an entry lives in the in-process tier.
	LocalTTL time.Duration

	// LocalCapacity bounds the number of items in the in-process tier.
	LocalCapacity int

	// RemoteTTL is how long an entry lives in Redis.
	RemoteTTL time.Duration

	// LockWait bounds how long a refill waits for the item lock.
	LockWait time.Duration

	// LockLease is how long a held lock survives a crashed holder.
	// Must be >= LockWait.
	LockLease time.Duration

	// ItemKeyPrefix and LockKeyPrefix name the per-item Redis keys.
	ItemKeyPrefix string
	LockKeyPrefix string
}

// DefaultConfig returns the production freshness policy.
func DefaultConfig() Config {
	return Config{
		LocalTTL:      10 * time.Second,
		LocalCapacity: 1000,
		RemoteTTL:     5 * time.Minute,
		LockWait:      1 * time.Second,
		LockLease:     5 * time.Second,
		ItemKeyPrefix: cache.DefaultItemKeyPrefix,
		LockKeyPrefix: cache.DefaultLockKeyPrefix,
	}
}

// Validate checks the configuration for values the lookup path cannot honor.
func (c Config) Validate() error {
	if c.LocalTTL <= 0 {
		return fmt.Errorf("local_ttl must be > 0 (got %s)", c.LocalTTL)
	}
	if c.LocalCapacity <= 0 {
		return fmt.Errorf("local_capacity must be > 0 (got %d)", c.LocalCapacity)
	}
	if c.RemoteTTL <= 0 {
		return fmt.Errorf("remote_ttl must be > 0 (got %s)", c.RemoteTTL)
	}
	if c.LockWait <= 0 {
		return fmt.Errorf("lock_wait must be > 0 (got %s)", c.LockWait)
	}
	if c.LockLease <= 0 {
		return fmt.Errorf("lock_lease must be > 0 (got %s)", c.LockLease)
	}
	// A lease shorter than the wait lets the lock expire under a refill
	// that has only just started.
	if c.LockWait > c.LockLease {
		return fmt.Errorf("lock_wait (%s) must not exceed lock_lease (%s)", c.LockWait, c.LockLease)
	}
	if c.ItemKeyPrefix == "" || c.LockKeyPrefix == "" {
		return fmt.Errorf("key prefixes are required")
	}
	if c.ItemKeyPrefix == c.LockKeyPrefix {
		return fmt.Errorf("item and lock key prefixes must differ (both %q)", c.ItemKeyPrefix)
	}
	return nil
}

// CacheKey returns the remote tier key for an item.
func (c Config) CacheKey(itemID int64) string {
	return cache.Key{Prefix: c.ItemKeyPrefix, ItemID: itemID}.String()
}

// LockName returns the distributed lock name for an item.
func (c Config) LockName(itemID int64) string {
	return cache.Key{Prefix: c.LockKeyPrefix, ItemID: itemID}.String()
}
