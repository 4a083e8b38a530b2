package itemcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// refiller rebuilds a missing remote entry from the item store. Refills of
// one item are serialized across processes by a distributed lock and
// coalesced within a process, so the store sees at most one concurrent
// fetch per item.
type refiller struct {
	cfg    Config
	store  ItemStore
	remote remoteTier
	locks  LockFactory
	clock  *versionClock
	group  singleflight.Group
	logger zerolog.Logger
}

// refill returns a fresh entry for itemID.
//
// The shared refill runs detached from any one caller and is bounded by
// LockWait+LockLease. A caller whose context ends first gets a try-later
// entry; the refill carries on for the others. Lock contention and store
// failures also yield try-later. The only error is a remote tier fault.
func (r *refiller) refill(ctx context.Context, itemID int64) (Entry, error) {
	ch := r.group.DoChan(strconv.FormatInt(itemID, 10), func() (any, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.LockWait+r.cfg.LockLease)
		defer cancel()
		return r.fill(workCtx, itemID)
	})

	select {
	case res := <-ch:
		if res.Shared {
			refillsCoalesced.Inc()
		}
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return res.Val.(Entry), nil
	case <-ctx.Done():
		refillsTotal.WithLabelValues("abandoned").Inc()
		r.logger.Debug().Err(ctx.Err()).Int64("item_id", itemID).Msg("Caller left before refill finished - returning try-later")
		return TryLater(), nil
	}
}

func (r *refiller) fill(ctx context.Context, itemID int64) (Entry, error) {
	start := time.Now()
	defer func() {
		refillDuration.Observe(time.Since(start).Seconds())
	}()

	lockName := r.cfg.LockName(itemID)
	logger := r.logger.With().Int64("item_id", itemID).Str("lock", lockName).Logger()

	lock, err := r.locks.Acquire(ctx, lockName, r.cfg.LockWait, r.cfg.LockLease)
	if err != nil {
		refillsTotal.WithLabelValues("lock_unavailable").Inc()
		logger.Warn().Err(err).Msg("Refill lock unavailable - returning try-later")
		return TryLater(), nil
	}
	defer r.release(ctx, lock, logger)

	key := r.cfg.CacheKey(itemID)

	// Another holder may have refilled while we waited for the lock.
	cached, found, err := r.remote.get(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			refillsTotal.WithLabelValues("timeout").Inc()
			logger.Warn().Err(err).Msg("Refill ran out of time - returning try-later")
			return TryLater(), nil
		}
		refillsTotal.WithLabelValues("error").Inc()
		return Entry{}, err
	}
	if found {
		refillsTotal.WithLabelValues("double_check_hit").Inc()
		logger.Debug().Int64("version", cached.Version()).Msg("Remote entry refilled by another holder")
		return cached, nil
	}

	item, err := r.store.FetchByID(ctx, itemID)
	var entry Entry
	switch {
	case errors.Is(err, ErrItemNotFound), err == nil && item == nil:
		entry = Negative(r.clock.Next())
	case err != nil:
		refillsTotal.WithLabelValues("upstream_error").Inc()
		logger.Warn().Err(err).Msg("Item store fetch failed - returning try-later")
		return TryLater(), nil
	default:
		entry = Positive(*item, r.clock.Next())
	}

	if err := r.remote.put(ctx, key, entry, r.cfg.RemoteTTL); err != nil {
		if ctx.Err() != nil {
			refillsTotal.WithLabelValues("timeout").Inc()
			logger.Warn().Err(err).Msg("Refill ran out of time - returning try-later")
			return TryLater(), nil
		}
		refillsTotal.WithLabelValues("error").Inc()
		return Entry{}, fmt.Errorf("refill item %d: %w", itemID, err)
	}

	if entry.Exists() {
		refillsTotal.WithLabelValues("positive").Inc()
	} else {
		refillsTotal.WithLabelValues("negative").Inc()
	}
	logger.Info().
		Bool("exists", entry.Exists()).
		Int64("version", entry.Version()).
		Dur("duration", time.Since(start)).
		Msg("Remote item cache refilled")

	return entry, nil
}

// release frees the lock even when the refill context is already done.
func (r *refiller) release(ctx context.Context, lock Lock, logger zerolog.Logger) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.LockLease)
	defer cancel()

	if err := lock.Release(releaseCtx); err != nil {
		logger.Warn().Err(err).Msg("Failed to release refill lock")
	}
}
