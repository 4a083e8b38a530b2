package ratelimit

import (
	"testing"
	"time"
)

func TestState_NeedsCriticalBlock(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		resetAt   time.Time
		expected  bool
	}{
		{"healthy", 100, time.Now().Add(time.Minute), false},
		{"warning range", 15, time.Now().Add(time.Minute), false},
		{"at critical threshold", ThresholdCritical, time.Now().Add(time.Minute), false},
		{"below critical threshold", ThresholdCritical - 1, time.Now().Add(time.Minute), true},
		{"exhausted", 0, time.Now().Add(time.Minute), true},
		{"exhausted but window over", 0, time.Now().Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Remaining: tt.remaining, ResetAt: tt.resetAt}
			if got := state.NeedsCriticalBlock(); got != tt.expected {
				t.Errorf("NeedsCriticalBlock() = %v, want %v (remaining=%d)", got, tt.expected, tt.remaining)
			}
		})
	}
}

func TestState_NeedsThrottling(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		expected  bool
	}{
		{"healthy", 50, false},
		{"at warning threshold", ThresholdWarning, false},
		{"just below warning threshold", ThresholdWarning - 1, true},
		{"at critical threshold", ThresholdCritical, true},
		{"below critical threshold", ThresholdCritical - 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Remaining: tt.remaining}
			if got := state.NeedsThrottling(); got != tt.expected {
				t.Errorf("NeedsThrottling() = %v, want %v (remaining=%d)", got, tt.expected, tt.remaining)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	future := &State{ResetAt: time.Now().Add(5 * time.Minute)}
	if d := future.TimeUntilReset(); d < 4*time.Minute || d > 5*time.Minute {
		t.Errorf("TimeUntilReset() = %v, want about 5m", d)
	}

	past := &State{ResetAt: time.Now().Add(-5 * time.Minute)}
	if d := past.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0 for past reset", d)
	}
}

func TestState_UpdateHealth(t *testing.T) {
	tests := []struct {
		remaining int
		healthy   bool
	}{
		{100, true},
		{ThresholdHealthy, true},
		{ThresholdHealthy - 1, false},
		{0, false},
	}

	for _, tt := range tests {
		state := &State{Remaining: tt.remaining}
		state.UpdateHealth()
		if state.IsHealthy != tt.healthy {
			t.Errorf("remaining=%d: IsHealthy = %v, want %v", tt.remaining, state.IsHealthy, tt.healthy)
		}
	}
}

func TestState_IsStale(t *testing.T) {
	state := &State{LastUpdate: time.Now().Add(-2 * time.Minute)}
	if !state.IsStale(time.Minute) {
		t.Error("expected state older than maxAge to be stale")
	}
	if state.IsStale(time.Hour) {
		t.Error("expected state younger than maxAge to be fresh")
	}
}
