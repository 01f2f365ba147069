package executor

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/nextrunner/nextrunner/internal/config"
)

// Pool enforces a two-level concurrency bound: a global `test_threads`
// semaphore every unit draws from, and an optional per-test-group
// semaphore a unit also draws from when its override assigns it to a
// group. Acquiring both (group first, then global) before spawning and
// releasing both on exit guarantees the per-group concurrency bound
// without letting any one group starve the rest of the global pool.
type Pool struct {
	global *semaphore.Weighted
	groups map[string]*semaphore.Weighted
}

// NewPool builds a Pool. testThreads is the profile's global parallelism;
// groups is the profile's test-group → max-threads map. Groups with
// MaxThreads<=0 get no semaphore (unbounded beyond the global limit).
func NewPool(testThreads int64, groups map[string]config.TestGroup) *Pool {
	if testThreads <= 0 {
		testThreads = 1
	}
	g := make(map[string]*semaphore.Weighted, len(groups))
	for name, tg := range groups {
		if tg.MaxThreads > 0 {
			g[name] = semaphore.NewWeighted(int64(tg.MaxThreads))
		}
	}
	return &Pool{global: semaphore.NewWeighted(testThreads), groups: g}
}

// Acquire blocks until threadsRequired permits are available from both the
// global pool and (if group names a bounded group) the group pool,
// returning a release func to call exactly once on exit. It unblocks
// early if ctx is cancelled.
func (p *Pool) Acquire(ctx context.Context, threadsRequired int64, group string) (release func(), err error) {
	if threadsRequired <= 0 {
		threadsRequired = 1
	}
	var groupSem *semaphore.Weighted
	if group != "" {
		groupSem = p.groups[group]
	}
	if groupSem != nil {
		if err := groupSem.Acquire(ctx, threadsRequired); err != nil {
			return nil, err
		}
	}
	if err := p.global.Acquire(ctx, threadsRequired); err != nil {
		if groupSem != nil {
			groupSem.Release(threadsRequired)
		}
		return nil, err
	}
	return func() {
		if groupSem != nil {
			groupSem.Release(threadsRequired)
		}
		p.global.Release(threadsRequired)
	}, nil
}
