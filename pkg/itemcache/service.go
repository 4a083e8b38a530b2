package itemcache

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/logging"
	"github.com/rs/zerolog"
)

// Service serves flash item lookups through the local tier, the remote
// tier and, on a remote miss, a locked refill from the item store.
type Service struct {
	cfg      Config
	local    *LocalTier
	remote   remoteTier
	refiller *refiller
	logger   zerolog.Logger
}

// NewService creates a lookup service. The local tier is owned by the
// service; the collaborators are shared with the rest of the process.
func NewService(cfg Config, store ItemStore, remote RemoteCache, locks LockFactory) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid item cache config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("item store is required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote cache is required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock factory is required")
	}

	logger := logging.NewLogger("item-cache")
	tier := remoteTier{cache: remote, logger: logger}

	return &Service{
		cfg:    cfg,
		local:  NewLocalTier(cfg.LocalCapacity, cfg.LocalTTL),
		remote: tier,
		refiller: &refiller{
			cfg:    cfg,
			store:  store,
			remote: tier,
			locks:  locks,
			clock:  newVersionClock(time.Now),
			logger: logger,
		},
		logger: logger,
	}, nil
}

// Lookup returns the cache entry for itemID.
//
// clientVersion is the newest version the caller has seen, or nil. A local
// entry older than clientVersion is bypassed in favor of the remote tier.
// The returned entry may be a try-later placeholder; the error is non-nil
// only when the remote tier itself fails.
func (s *Service) Lookup(ctx context.Context, itemID int64, clientVersion *int64) (Entry, error) {
	start := time.Now()
	defer func() {
		lookupDuration.Observe(time.Since(start).Seconds())
	}()

	if entry, ok := s.local.Get(itemID); ok {
		if clientVersion == nil || *clientVersion <= entry.Version() {
			lookupsTotal.WithLabelValues("local_hit").Inc()
			s.logger.Debug().Int64("item_id", itemID).Msg("Local cache hit")
			return entry, nil
		}
		s.logger.Debug().
			Int64("item_id", itemID).
			Int64("version", entry.Version()).
			Int64("client_version", *clientVersion).
			Msg("Local entry older than client version")
	}

	return s.lookupRemote(ctx, itemID)
}

func (s *Service) lookupRemote(ctx context.Context, itemID int64) (Entry, error) {
	key := s.cfg.CacheKey(itemID)

	entry, found, err := s.remote.get(ctx, key)
	if err != nil && ctx.Err() != nil {
		lookupsTotal.WithLabelValues("try_later").Inc()
		s.logger.Debug().Err(err).Int64("item_id", itemID).Msg("Lookup cancelled during remote read")
		return TryLater(), nil
	}
	if err != nil {
		lookupsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Int64("item_id", itemID).Msg("Remote cache read failed")
		return Entry{}, fmt.Errorf("lookup item %d: %w", itemID, err)
	}

	result := "remote_hit"
	if !found {
		s.logger.Debug().Int64("item_id", itemID).Str("cache_key", key).Msg("Remote cache miss")
		entry, err = s.refiller.refill(ctx, itemID)
		if err != nil {
			lookupsTotal.WithLabelValues("error").Inc()
			s.logger.Error().Err(err).Int64("item_id", itemID).Msg("Refill failed")
			return Entry{}, fmt.Errorf("lookup item %d: %w", itemID, err)
		}
		result = "refilled"
	}

	if entry.IsTryLater() {
		lookupsTotal.WithLabelValues("try_later").Inc()
		return entry, nil
	}

	if s.local.PutIfIdle(itemID, entry) {
		s.logger.Debug().Int64("item_id", itemID).Int64("version", entry.Version()).Msg("Local cache updated")
	}

	lookupsTotal.WithLabelValues(result).Inc()
	return entry, nil
}
