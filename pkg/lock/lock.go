// Package lock implements the distributed per-item refill lock on Redis.
//
// A lock is a Redis key set with SET NX PX to a random token. The PX lease
// bounds how long a crashed holder can block others. Release deletes the
// key only while it still carries the holder's token, so a holder whose
// lease ran out cannot release a lock that has since been taken by someone
// else.
package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrNotAcquired is returned when the lock stays held by someone else
	// for the whole wait window.
	ErrNotAcquired = errors.New("lock not acquired")

	// ErrNotHeld is returned by Release when the lease expired before release.
	ErrNotHeld = errors.New("lock not held")
)

// releaseScript deletes the lock key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config holds the lock acquisition settings.
type Config struct {
	// RetryInterval is the pause between SET NX attempts while waiting.
	// Each pause is jittered by ±20%.
	RetryInterval time.Duration
}

// DefaultConfig returns the default lock configuration.
func DefaultConfig() Config {
	return Config{
		RetryInterval: 25 * time.Millisecond,
	}
}

// RedisLocker hands out distributed locks backed by a Redis instance.
type RedisLocker struct {
	redis  *redis.Client
	config Config
	logger zerolog.Logger
}

var _ itemcache.LockFactory = (*RedisLocker)(nil)

// NewRedisLocker creates a lock factory on the given Redis client.
func NewRedisLocker(redisClient *redis.Client, config Config) *RedisLocker {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultConfig().RetryInterval
	}
	return &RedisLocker{
		redis:  redisClient,
		config: config,
		logger: logging.NewLogger("item-lock"),
	}
}

// Acquire tries to take the lock named name, polling until wait elapses.
// Returns ErrNotAcquired on timeout and the context error on cancellation.
func (l *RedisLocker) Acquire(ctx context.Context, name string, wait, lease time.Duration) (itemcache.Lock, error) {
	start := time.Now()
	deadline := start.Add(wait)
	token := newToken()

	for attempt := 1; ; attempt++ {
		ok, err := l.redis.SetNX(ctx, name, token, lease).Result()
		if err != nil {
			lockAcquireTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("acquire lock %s: %w", name, err)
		}
		if ok {
			lockAcquireTotal.WithLabelValues("acquired").Inc()
			lockWaitSeconds.Observe(time.Since(start).Seconds())
			l.logger.Debug().
				Str("lock", name).
				Int("attempts", attempt).
				Dur("lease", lease).
				Msg("Lock acquired")
			return &Mutex{redis: l.redis, name: name, token: token, logger: l.logger}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			lockAcquireTotal.WithLabelValues("timeout").Inc()
			lockWaitSeconds.Observe(time.Since(start).Seconds())
			l.logger.Debug().
				Str("lock", name).
				Int("attempts", attempt).
				Dur("wait", wait).
				Msg("Lock wait timed out")
			return nil, fmt.Errorf("%w: %s held after %s", ErrNotAcquired, name, wait)
		}

		pause := time.Duration(float64(l.config.RetryInterval) * (0.8 + rand.Float64()*0.4))
		if pause > remaining {
			pause = remaining
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			lockAcquireTotal.WithLabelValues("cancelled").Inc()
			return nil, fmt.Errorf("acquire lock %s: %w", name, ctx.Err())
		case <-timer.C:
		}
	}
}

// Mutex is a held lock.
type Mutex struct {
	redis  *redis.Client
	name   string
	token  string
	logger zerolog.Logger
}

// Name returns the Redis key of the lock.
func (m *Mutex) Name() string { return m.name }

// Release frees the lock. Returns ErrNotHeld if the lease already expired.
func (m *Mutex) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, m.redis, []string{m.name}, m.token).Int64()
	if err != nil {
		lockReleaseTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("release lock %s: %w", m.name, err)
	}
	if deleted == 0 {
		lockReleaseTotal.WithLabelValues("expired").Inc()
		return fmt.Errorf("%w: %s", ErrNotHeld, m.name)
	}

	lockReleaseTotal.WithLabelValues("released").Inc()
	m.logger.Debug().Str("lock", m.name).Msg("Lock released")
	return nil
}

// newToken returns a unique holder token. UUIDv7 falls back to v4 if the
// time-ordered generator fails.
func newToken() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
