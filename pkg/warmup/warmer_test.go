package warmup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLooker answers from a per-id script; the last answer repeats.
type scriptedLooker struct {
	mu      sync.Mutex
	scripts map[int64][]answer
	calls   map[int64]int

	active    atomic.Int32
	maxActive atomic.Int32
	delay     time.Duration
}

type answer struct {
	entry itemcache.Entry
	err   error
}

func newScriptedLooker() *scriptedLooker {
	return &scriptedLooker{
		scripts: make(map[int64][]answer),
		calls:   make(map[int64]int),
	}
}

func (l *scriptedLooker) script(id int64, answers ...answer) {
	l.scripts[id] = answers
}

func (l *scriptedLooker) Lookup(ctx context.Context, itemID int64, _ *int64) (itemcache.Entry, error) {
	n := l.active.Add(1)
	defer l.active.Add(-1)
	for {
		m := l.maxActive.Load()
		if n <= m || l.maxActive.CompareAndSwap(m, n) {
			break
		}
	}

	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return itemcache.TryLater(), nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.calls[itemID]
	l.calls[itemID]++
	s := l.scripts[itemID]
	if len(s) == 0 {
		return itemcache.Negative(1), nil
	}
	if i >= len(s) {
		i = len(s) - 1
	}
	return s[i].entry, s[i].err
}

func (l *scriptedLooker) callsFor(id int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

func found(id int64) answer {
	return answer{entry: itemcache.Positive(itemcache.Item{ID: id}, 10)}
}

func later() answer { return answer{entry: itemcache.TryLater()} }

func fastConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        time.Second,
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewWarmer_Defaults(t *testing.T) {
	w := NewWarmer(newScriptedLooker(), Config{})
	assert.Equal(t, DefaultConfig(), w.config)
}

func TestWarm_ClassifiesOutcomes(t *testing.T) {
	looker := newScriptedLooker()
	looker.script(1, found(1))
	looker.script(2) // absent
	looker.script(3, later(), found(3))
	looker.script(4, later())
	looker.script(5, answer{err: errors.New("redis down")})

	report, err := NewWarmer(looker, fastConfig()).Warm(context.Background(), []int64{5, 4, 3, 2, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, report.Warmed)
	assert.Equal(t, []int64{2}, report.Absent)
	assert.Equal(t, []int64{4}, report.Pending)
	require.Contains(t, report.Failed, int64(5))
	assert.ErrorContains(t, report.Failed[5], "redis down")
	assert.Equal(t, 5, report.Total())

	assert.Equal(t, 1, looker.callsFor(1), "duplicate ids are looked up once")
	assert.Equal(t, 2, looker.callsFor(3))
	assert.Equal(t, 3, looker.callsFor(4), "try-later is retried up to MaxAttempts")
	assert.Equal(t, 1, looker.callsFor(5), "errors are not retried")
}

func TestWarm_BoundedConcurrency(t *testing.T) {
	looker := newScriptedLooker()
	looker.delay = 10 * time.Millisecond
	ids := make([]int64, 40)
	for i := range ids {
		ids[i] = int64(i + 1)
		looker.script(ids[i], found(ids[i]))
	}

	cfg := fastConfig()
	cfg.MaxConcurrency = 3
	report, err := NewWarmer(looker, cfg).Warm(context.Background(), ids)
	require.NoError(t, err)

	assert.Len(t, report.Warmed, 40)
	assert.LessOrEqual(t, looker.maxActive.Load(), int32(3))
}

func TestWarm_Empty(t *testing.T) {
	report, err := NewWarmer(newScriptedLooker(), fastConfig()).Warm(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Total())
}

func TestWarm_ContextCancelled(t *testing.T) {
	looker := newScriptedLooker()
	looker.delay = time.Second
	ids := []int64{1, 2, 3, 4, 5, 6}
	for _, id := range ids {
		looker.script(id, found(id))
	}

	cfg := fastConfig()
	cfg.MaxConcurrency = 2
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := NewWarmer(looker, cfg).Warm(ctx, ids)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Empty(t, report.Warmed)
	assert.Equal(t, len(ids), report.Total(), "every id is accounted for")
}
