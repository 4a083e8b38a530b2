package itemcache

import (
	"sync/atomic"
	"time"
)

// versionClock hands out ms-epoch versions that never repeat or go
// backwards within a process, even if the wall clock does.
type versionClock struct {
	now  func() time.Time
	last atomic.Int64
}

func newVersionClock(now func() time.Time) *versionClock {
	if now == nil {
		now = time.Now
	}
	return &versionClock{now: now}
}

// Next returns a version strictly greater than every version it returned before.
func (c *versionClock) Next() int64 {
	for {
		last := c.last.Load()
		next := c.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if c.last.CompareAndSwap(last, next) {
			return next
		}
	}
}
