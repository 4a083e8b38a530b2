package itemcache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LocalTier is the bounded in-process tier. Expiry and eviction are
// delegated to an expirable LRU; writes go through a single best-effort
// writer lock that is never waited on.
type LocalTier struct {
	entries *expirable.LRU[int64, Entry]
	writeMu sync.Mutex
}

// NewLocalTier creates a local tier holding at most capacity items for ttl each.
func NewLocalTier(capacity int, ttl time.Duration) *LocalTier {
	return &LocalTier{
		entries: expirable.NewLRU[int64, Entry](capacity, nil, ttl),
	}
}

// Get returns the unexpired entry for itemID.
func (t *LocalTier) Get(itemID int64) (Entry, bool) {
	return t.entries.Get(itemID)
}

// PutIfIdle stores entry if no other writer holds the tier lock.
// It never blocks. The write is also skipped for try-later placeholders
// and for entries older than the one already held.
func (t *LocalTier) PutIfIdle(itemID int64, entry Entry) bool {
	if entry.IsTryLater() {
		localWritesTotal.WithLabelValues("rejected").Inc()
		return false
	}

	if !t.writeMu.TryLock() {
		localWritesTotal.WithLabelValues("contended").Inc()
		return false
	}
	defer t.writeMu.Unlock()

	if current, ok := t.entries.Peek(itemID); ok && current.Version() > entry.Version() {
		localWritesTotal.WithLabelValues("stale").Inc()
		return false
	}

	t.entries.Add(itemID, entry)
	localWritesTotal.WithLabelValues("stored").Inc()
	return true
}

// Len returns the number of entries held, expired ones not yet purged included.
func (t *LocalTier) Len() int {
	return t.entries.Len()
}
