package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Response headers carrying the catalog budget.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

var (
	remainingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flashsale_catalog_rate_limit_remaining",
		Help: "Requests remaining in the current catalog rate limit window",
	})

	blocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flashsale_catalog_rate_limit_blocks_total",
		Help: "Total number of catalog requests blocked by the critical threshold",
	})

	throttlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flashsale_catalog_rate_limit_throttles_total",
		Help: "Total number of catalog requests delayed by the warning threshold",
	})
)

// Config tunes a Tracker.
type Config struct {
	// ThrottleDelay is how long a request waits in the warning range.
	ThrottleDelay time.Duration

	// StateTTL bounds how long a reported budget outlives its reset time.
	StateTTL time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		ThrottleDelay: time.Second,
		StateTTL:      5 * time.Minute,
	}
}

// Tracker records the catalog budget in Redis and gates outgoing requests.
type Tracker struct {
	redis  *redis.Client
	config Config
	logger zerolog.Logger
}

// NewTracker creates a tracker. Zero fields in cfg fall back to DefaultConfig.
func NewTracker(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Tracker {
	def := DefaultConfig()
	if cfg.ThrottleDelay <= 0 {
		cfg.ThrottleDelay = def.ThrottleDelay
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = def.StateTTL
	}
	return &Tracker{
		redis:  redisClient,
		config: cfg,
		logger: logger,
	}
}

// GetState loads the shared state. A healthy default is returned when the
// catalog has not reported a budget yet or the reported one has expired.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	vals, err := t.redis.MGet(ctx, RedisKeyRemaining, RedisKeyResetTimestamp, RedisKeyLastUpdate).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	if vals[0] == nil || vals[1] == nil {
		t.logger.Debug().Msg("No rate limit state in Redis, assuming healthy")
		return defaultState(), nil
	}

	remaining, err := strconv.Atoi(fmt.Sprint(vals[0]))
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	resetUnix, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse reset timestamp: %w", err)
	}

	var lastUpdate time.Time
	if s, ok := vals[2].(string); ok && s != "" {
		if err := json.Unmarshal([]byte(s), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &State{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()
	return state, nil
}

func defaultState() *State {
	now := time.Now()
	return &State{
		Remaining:  defaultRemaining,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// UpdateFromHeaders stores the budget reported in a catalog response.
// Responses without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}
	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return errors.New(HeaderReset + " header missing")
	}
	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	now := time.Now()
	state := &State{
		Remaining:  remaining,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	ttl := time.Duration(resetSeconds)*time.Second + t.config.StateTTL
	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, remaining, ttl)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	remainingGauge.Set(float64(remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Catalog rate limit critical, requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Catalog rate limit low, requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remaining).
			Bool("is_healthy", state.IsHealthy).
			Msg("Catalog rate limit state updated")
	}
	return nil
}

// ShouldAllowRequest reports whether a catalog request may be sent now.
// It returns false at the critical threshold and waits ThrottleDelay in the
// warning range. The wait is abandoned when ctx is done.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Catalog rate limit critical, blocking request")
		blocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.config.ThrottleDelay).
			Msg("Catalog rate limit low, throttling request")
		throttlesTotal.Inc()

		timer := time.NewTimer(t.config.ThrottleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
