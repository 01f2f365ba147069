package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextrunner/nextrunner/internal/binaryid"
	"github.com/nextrunner/nextrunner/internal/events"
	"github.com/nextrunner/nextrunner/internal/executor"
)

var testBinaryID = mustBinaryID()

func mustBinaryID() binaryid.ID {
	id, err := binaryid.FromParts("fixture-crate", binaryid.KindTest, "fixture_tests")
	if err != nil {
		panic(err)
	}
	return id
}

func shUnit(id string, exitCode int) executor.UnitConfig {
	return executor.UnitConfig{
		ID: events.TestUnitID(testBinaryID, id),
		Command: executor.Command{
			Binary:        "sh",
			ExtraArgs:     []string{"-c", "exit " + itoa(exitCode)},
			IsSetupScript: true,
		},
		Capture:         executor.CaptureSplit,
		ThreadsRequired: 1,
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func drainEvents(ch <-chan events.Event) []events.Event {
	var out []events.Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}

func TestDispatcherRunEmitsStartedThenFinishedInOrder(t *testing.T) {
	pool := executor.NewPool(4, nil)
	exec := executor.New(pool)
	d := New(exec, nil)

	plan := Plan{Tests: []executor.UnitConfig{shUnit("pass", 0)}}
	out := make(chan events.Event, 64)

	var collected []events.Event
	done := make(chan struct{})
	go func() {
		collected = drainEvents(out)
		close(done)
	}()

	stats := d.Run(context.Background(), plan, out)
	<-done

	require.NotEmpty(t, collected)
	assert.Equal(t, events.KindRunStarted, collected[0].Kind)
	assert.Equal(t, events.KindRunFinished, collected[len(collected)-1].Kind)
	assert.Equal(t, 1, stats.Snapshot().FinishedPass)
}

func TestDispatcherStatsAccountForFailures(t *testing.T) {
	pool := executor.NewPool(4, nil)
	exec := executor.New(pool)
	d := New(exec, nil)

	plan := Plan{Tests: []executor.UnitConfig{shUnit("pass", 0), shUnit("fail", 1)}}
	out := make(chan events.Event, 64)
	done := make(chan struct{})
	go func() {
		drainEvents(out)
		close(done)
	}()

	stats := d.Run(context.Background(), plan, out)
	<-done

	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.FinishedPass)
	assert.Equal(t, 1, stats.FailedCount())
}

func TestDispatcherSetupScriptFailureCancelsAndSkipsTests(t *testing.T) {
	pool := executor.NewPool(4, nil)
	exec := executor.New(pool)
	d := New(exec, nil)

	plan := Plan{
		SetupScripts: []executor.UnitConfig{shUnit("setup", 1)},
		Tests:        []executor.UnitConfig{shUnit("never-runs", 0)},
	}
	out := make(chan events.Event, 64)
	var collected []events.Event
	done := make(chan struct{})
	go func() {
		collected = drainEvents(out)
		close(done)
	}()

	stats := d.Run(context.Background(), plan, out)
	<-done

	assert.Equal(t, events.CancelSetupScriptFailure, stats.Snapshot().CancelReason)
	for _, e := range collected {
		assert.NotEqual(t, events.KindUnitStarted, e.Kind, "no test unit should have started after a failed setup script")
	}
}

func TestDispatcherMaxFailCancelsRun(t *testing.T) {
	pool := executor.NewPool(4, nil)
	exec := executor.New(pool)
	maxFail := 1
	d := New(exec, &maxFail)

	plan := Plan{Tests: []executor.UnitConfig{shUnit("pass", 0), shUnit("fail", 1)}}
	out := make(chan events.Event, 64)
	var collected []events.Event
	done := make(chan struct{})
	go func() {
		collected = drainEvents(out)
		close(done)
	}()

	stats := d.Run(context.Background(), plan, out)
	<-done

	assert.Equal(t, events.CancelTestFailure, stats.Snapshot().CancelReason)

	var sawBeginCancel bool
	for _, e := range collected {
		if e.Kind == events.KindRunBeginCancel {
			sawBeginCancel = true
			assert.Equal(t, events.CancelTestFailure, e.CancelReason)
		}
	}
	assert.True(t, sawBeginCancel, "RunBeginCancel should be emitted once fail-fast's max-fail threshold is reached")
}

func TestDispatcherRunStressRepeatsUntilCountReached(t *testing.T) {
	pool := executor.NewPool(4, nil)
	exec := executor.New(pool)
	d := New(exec, nil)

	plan := Plan{Tests: []executor.UnitConfig{shUnit("pass", 0)}}
	out := make(chan events.Event, 256)
	var collected []events.Event
	done := make(chan struct{})
	go func() {
		collected = drainEvents(out)
		close(done)
	}()

	count := uint32(3)
	stats, outcome := d.RunStress(context.Background(), plan, out, StressConfig{Count: &count})
	<-done

	assert.Equal(t, StressCompleted, outcome)
	require.NotNil(t, stats)
	assert.Equal(t, uint32(3), stats.Snapshot().StressIterations)

	started := 0
	for _, e := range collected {
		if e.Kind == events.KindRunStarted {
			started++
		}
	}
	assert.Equal(t, 3, started, "RunStress should emit one full RunStarted..RunFinished envelope per iteration")
}

func TestDispatcherRunStressCancelsOnFailure(t *testing.T) {
	pool := executor.NewPool(4, nil)
	exec := executor.New(pool)
	maxFail := 1
	d := New(exec, &maxFail)

	plan := Plan{Tests: []executor.UnitConfig{shUnit("fail", 1)}}
	out := make(chan events.Event, 256)
	done := make(chan struct{})
	go func() {
		drainEvents(out)
		close(done)
	}()

	count := uint32(10)
	stats, outcome := d.RunStress(context.Background(), plan, out, StressConfig{Count: &count})
	<-done

	assert.Equal(t, StressCancelled, outcome)
	assert.Equal(t, uint32(1), stats.Snapshot().StressIterations, "a fail-fast cancellation should stop the stress loop after the first iteration that triggers it")
}

func TestDispatcherRunRespectsContextCancellation(t *testing.T) {
	pool := executor.NewPool(1, nil)
	exec := executor.New(pool)
	d := New(exec, nil)

	slow := executor.UnitConfig{
		ID: events.TestUnitID(testBinaryID, "slow"),
		Command: executor.Command{
			Binary:        "sh",
			ExtraArgs:     []string{"-c", "sleep 5"},
			IsSetupScript: true,
		},
		Capture:         executor.CaptureSplit,
		ThreadsRequired: 1,
	}
	plan := Plan{Tests: []executor.UnitConfig{slow}}
	out := make(chan events.Event, 64)
	done := make(chan struct{})
	go func() {
		drainEvents(out)
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	d.Run(ctx, plan, out)
	<-done
	assert.Less(t, time.Since(start), 5*time.Second, "the dispatcher should have terminated the slow process instead of waiting out its full sleep")
}
