package itemcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/cache"
	"github.com/rs/zerolog"
)

// remoteTier wraps a RemoteCache with the entry codec.
type remoteTier struct {
	cache  RemoteCache
	logger zerolog.Logger
}

// get returns the entry stored under key. Absent and undecodable values
// both report found=false so the caller refills; only cache faults are
// returned as errors.
func (t remoteTier) get(ctx context.Context, key string) (entry Entry, found bool, err error) {
	data, err := t.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("read remote entry %s: %w", key, err)
	}

	entry, err = decodeEntry(data)
	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("cache_key", key).
			Msg("Discarding undecodable remote entry")
		return Entry{}, false, nil
	}

	return entry, true, nil
}

func (t remoteTier) put(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	if err := t.cache.Put(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("write remote entry %s: %w", key, err)
	}
	return nil
}
