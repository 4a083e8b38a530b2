package warmup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/logging"
	"github.com/rs/zerolog"
)

// Looker is the subset of itemcache.Service used for warm-up.
type Looker interface {
	Lookup(ctx context.Context, itemID int64, clientVersion *int64) (itemcache.Entry, error)
}

var _ Looker = (*itemcache.Service)(nil)

// Config holds warmer configuration.
type Config struct {
	// MaxConcurrency is the number of parallel lookups.
	MaxConcurrency int

	// Timeout bounds a single lookup.
	Timeout time.Duration

	// MaxAttempts bounds lookups per id while they return try-later.
	MaxAttempts int

	// RetryDelay is the pause between try-later attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns the startup defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		RetryDelay:     200 * time.Millisecond,
	}
}

// Report summarises a warm-up run. Each id appears in exactly one list.
type Report struct {
	Warmed  []int64
	Absent  []int64
	Pending []int64
	Failed  map[int64]error
}

// Total returns the number of ids in the report.
func (r Report) Total() int {
	return len(r.Warmed) + len(r.Absent) + len(r.Pending) + len(r.Failed)
}

type outcome struct {
	id    int64
	entry itemcache.Entry
	err   error
}

// Warmer looks up batches of ids through a Looker.
type Warmer struct {
	looker Looker
	config Config
	logger zerolog.Logger
}

// NewWarmer creates a warmer. Non-positive config fields use defaults.
func NewWarmer(looker Looker, config Config) *Warmer {
	def := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = def.RetryDelay
	}

	return &Warmer{
		looker: looker,
		config: config,
		logger: logging.NewLogger("warmup"),
	}
}

// Warm looks up every distinct id. It returns ctx.Err() together with a
// partial report when ctx ends first; ids not attempted are reported as
// pending.
func (w *Warmer) Warm(ctx context.Context, ids []int64) (Report, error) {
	start := time.Now()
	ids = dedupe(ids)

	queue := make(chan int64, len(ids))
	for _, id := range ids {
		queue <- id
	}
	close(queue)

	workers := min(w.config.MaxConcurrency, len(ids))
	results := make(chan outcome, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go w.worker(ctx, queue, results, &wg, i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	report := Report{Failed: make(map[int64]error)}
	seen := make(map[int64]bool, len(ids))
	for r := range results {
		seen[r.id] = true
		switch {
		case r.err != nil:
			report.Failed[r.id] = r.err
		case r.entry.IsTryLater():
			report.Pending = append(report.Pending, r.id)
		case r.entry.Exists():
			report.Warmed = append(report.Warmed, r.id)
		default:
			report.Absent = append(report.Absent, r.id)
		}
	}
	for _, id := range ids {
		if !seen[id] {
			report.Pending = append(report.Pending, id)
		}
	}
	sortIDs(report.Warmed)
	sortIDs(report.Absent)
	sortIDs(report.Pending)

	w.logger.Info().
		Int("ids", len(ids)).
		Int("warmed", len(report.Warmed)).
		Int("absent", len(report.Absent)).
		Int("pending", len(report.Pending)).
		Int("failed", len(report.Failed)).
		Dur("duration", time.Since(start)).
		Msg("Warm-up complete")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (w *Warmer) worker(ctx context.Context, queue <-chan int64, results chan<- outcome, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for id := range queue {
		if ctx.Err() != nil {
			w.logger.Debug().
				Int("worker_id", workerID).
				Int("processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		entry, err := w.warmOne(ctx, id)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
			w.logger.Warn().Err(err).Int64("item_id", id).Msg("Warm-up lookup failed")
		}
		results <- outcome{id: id, entry: entry, err: err}
		processed++
	}
}

// warmOne looks up id until it resolves or attempts run out.
func (w *Warmer) warmOne(ctx context.Context, id int64) (itemcache.Entry, error) {
	var entry itemcache.Entry
	for attempt := 1; attempt <= w.config.MaxAttempts; attempt++ {
		lookupCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		var err error
		entry, err = w.looker.Lookup(lookupCtx, id, nil)
		cancel()
		if err != nil {
			return entry, fmt.Errorf("lookup item %d: %w", id, err)
		}
		if !entry.IsTryLater() || attempt == w.config.MaxAttempts {
			return entry, nil
		}

		timer := time.NewTimer(w.config.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return entry, nil
		case <-timer.C:
		}
	}
	return entry, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
