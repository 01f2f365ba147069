package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextrunner/nextrunner/internal/config"
)

func TestPoolEnforcesGlobalLimit(t *testing.T) {
	p := NewPool(2, nil)
	ctx := context.Background()

	release1, err := p.Acquire(ctx, 1, "")
	require.NoError(t, err)
	release2, err := p.Acquire(ctx, 1, "")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		release3, err := p.Acquire(ctx, 1, "")
		require.NoError(t, err)
		close(acquired)
		release3()
	}()

	select {
	case <-acquired:
		t.Fatal("third acquire should have blocked while the global pool was full")
	case <-time.After(50 * time.Millisecond):
	}

	release1()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("third acquire never unblocked after a release")
	}
	release2()
}

func TestPoolEnforcesGroupLimitWithinGlobalBudget(t *testing.T) {
	groups := map[string]config.TestGroup{"db": {Name: "db", MaxThreads: 1}}
	p := NewPool(4, groups)
	ctx := context.Background()

	releaseA, err := p.Acquire(ctx, 1, "db")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		releaseB, err := p.Acquire(ctx, 1, "db")
		require.NoError(t, err)
		close(acquired)
		releaseB()
	}()

	select {
	case <-acquired:
		t.Fatal("second db-group acquire should have blocked behind the group's own limit")
	case <-time.After(50 * time.Millisecond):
	}

	releaseA()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second db-group acquire never unblocked")
	}
}

func TestPoolUngroupedTestsDontContendWithGroup(t *testing.T) {
	groups := map[string]config.TestGroup{"db": {Name: "db", MaxThreads: 1}}
	p := NewPool(4, groups)
	ctx := context.Background()

	releaseDB, err := p.Acquire(ctx, 1, "db")
	require.NoError(t, err)
	defer releaseDB()

	var acquiredCount int64
	release, err := p.Acquire(ctx, 1, "")
	require.NoError(t, err)
	atomic.AddInt64(&acquiredCount, 1)
	release()

	assert.EqualValues(t, 1, acquiredCount)
}

func TestPoolAcquireRespectsContextCancellation(t *testing.T) {
	p := NewPool(1, nil)
	ctx := context.Background()

	release, err := p.Acquire(ctx, 1, "")
	require.NoError(t, err)
	defer release()

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = p.Acquire(cctx, 1, "")
	assert.Error(t, err)
}
