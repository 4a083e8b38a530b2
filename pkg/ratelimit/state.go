// Package ratelimit guards the upstream catalog against request storms.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset response headers
// and shares the resulting budget between every process through Redis, so
// one replica that exhausts the budget slows all of them down.
package ratelimit

import (
	"time"
)

// Redis keys for the shared budget.
const (
	RedisKeyRemaining      = "catalog:rate_limit:remaining"
	RedisKeyResetTimestamp = "catalog:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "catalog:rate_limit:last_update"
)

// Thresholds for gating decisions.
const (
	// ThresholdCritical blocks requests when the remaining budget falls below it.
	ThresholdCritical = 5

	// ThresholdWarning throttles requests when the remaining budget falls below it.
	ThresholdWarning = 20

	// ThresholdHealthy marks the budget as healthy at or above it.
	ThresholdHealthy = 50
)

// defaultRemaining is assumed until the catalog has reported a budget.
const defaultRemaining = 100

// State is the last budget reported by the catalog.
type State struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was written.
	LastUpdate time.Time `json:"last_update"`

	IsHealthy bool `json:"is_healthy"`
}

// IsStale reports whether the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock reports whether requests must be refused.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling reports whether requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && s.Remaining >= ThresholdCritical
}

// TimeUntilReset returns the time left in the window, or 0 once it has passed.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
