package itemcache

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/cache"
)

// ErrItemNotFound is returned by an ItemStore when the item does not exist.
var ErrItemNotFound = errors.New("item not found")

// ItemStore is the authoritative item source.
type ItemStore interface {
	// FetchByID returns the current item record, or ErrItemNotFound.
	FetchByID(ctx context.Context, itemID int64) (*Item, error)
}

// RemoteCache is the shared tier. Get returns cache.ErrCacheMiss for
// absent keys.
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Lock is a held distributed lock.
type Lock interface {
	Release(ctx context.Context) error
}

// LockFactory acquires named distributed locks.
type LockFactory interface {
	// Acquire waits up to wait for the lock. A held lock expires after
	// lease even if it is never released. Any error means the lock is
	// not held.
	Acquire(ctx context.Context, name string, wait, lease time.Duration) (Lock, error)
}

var _ RemoteCache = (*cache.Manager)(nil)
