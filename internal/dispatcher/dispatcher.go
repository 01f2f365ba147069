package dispatcher

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextrunner/nextrunner/internal/events"
	"github.com/nextrunner/nextrunner/internal/executor"
)

// infoSoftDeadline bounds how long the dispatcher waits for unit
// replies to one info-request broadcast before reporting whatever it
// has collected as final.
const infoSoftDeadline = 100 * time.Millisecond

// jobControlGrace is how long the dispatcher waits after broadcasting a
// job-control Stop before actually suspending itself, giving units a
// chance to observe the signal.
const jobControlGrace = 100 * time.Millisecond

// Plan is the ordered unit of work one call to Run executes: setup
// scripts (run sequentially, in declaration order, before any test
// starts) followed by the test units to run concurrently.
type Plan struct {
	SetupScripts []executor.UnitConfig
	Tests        []executor.UnitConfig
}

// Dispatcher is the single-owner run controller described in the
// concurrency model: one goroutine runs its central select loop and is
// the only mutator of run statistics and cancel state.
type Dispatcher struct {
	exec    *executor.Executor
	maxFail *int
}

// New builds a Dispatcher that runs units through exec. maxFail is the
// profile's fail-fast threshold; nil disables fail-fast entirely.
func New(exec *executor.Executor, maxFail *int) *Dispatcher {
	return &Dispatcher{exec: exec, maxFail: maxFail}
}

// Run executes plan to completion, streaming every unit and envelope
// event onto out as it happens (RunStarted first, RunFinished last, out
// closed on return), and returns the final run statistics. The caller
// owns out and must keep draining it for the run to make progress.
func (d *Dispatcher) Run(ctx context.Context, plan Plan, out chan<- events.Event) *events.RunStats {
	stats := d.runOnce(ctx, plan, out)
	close(out)
	return stats
}

// StressConfig configures a repeating stress run (SPEC_FULL.md §13): the
// same Plan is executed over and over, each iteration emitting its own
// full RunStarted..RunFinished envelope onto out, until Count iterations
// have completed or Duration has elapsed — whichever is configured and
// reached first. At least one of Count or Duration must be set; RunStress
// never repeats forever on its own.
type StressConfig struct {
	Count    *uint32
	Duration *time.Duration
}

// StressOutcome reports why a stress run stopped.
type StressOutcome int

const (
	// StressCompleted means the configured Count or Duration was
	// reached normally.
	StressCompleted StressOutcome = iota
	// StressCancelled means some iteration ended with a non-none cancel
	// reason (signal, fail-fast, setup-script failure) before the stop
	// condition fired, or the caller's context was already cancelled
	// between iterations. This resolves spec.md §9 open question (c):
	// the distinction is keyed on whether the configured stop condition
	// is what ended the run, not on which kind of stop condition it was.
	StressCancelled
)

// RunStress runs plan repeatedly through runOnce, stamping the cumulative
// iteration count onto the RunStats from the final iteration before
// returning it alongside the outcome that ended the loop.
func (d *Dispatcher) RunStress(ctx context.Context, plan Plan, out chan<- events.Event, cfg StressConfig) (*events.RunStats, StressOutcome) {
	defer close(out)

	var deadline time.Time
	if cfg.Duration != nil {
		deadline = time.Now().Add(*cfg.Duration)
	}

	var stats *events.RunStats
	var iterations uint32
	for {
		if ctx.Err() != nil {
			if stats != nil {
				stats.SetStressIterations(iterations)
			}
			return stats, StressCancelled
		}
		if cfg.Count != nil && iterations >= *cfg.Count {
			if stats != nil {
				stats.SetStressIterations(iterations)
			}
			return stats, StressCompleted
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			if stats != nil {
				stats.SetStressIterations(iterations)
			}
			return stats, StressCompleted
		}

		stats = d.runOnce(ctx, plan, out)
		iterations++

		if stats.Snapshot().CancelReason != events.CancelNone {
			stats.SetStressIterations(iterations)
			return stats, StressCancelled
		}
	}
}

// runOnce drives one RunStarted..RunFinished cycle of plan without
// closing out, so Run (a single iteration) and RunStress (many
// iterations sharing one output channel) can both build on it.
func (d *Dispatcher) runOnce(ctx context.Context, plan Plan, out chan<- events.Event) *events.RunStats {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := make(chan events.Event, 256)
	stats := events.NewRunStats(len(plan.Tests))
	stopwatch := NewStopwatch()
	registry := newUnitRegistry()

	// emit is only used for envelope events sent outside the test phase
	// (run start, setup scripts, finish), while sink is exclusively fed
	// by executor.RunUnit calls for in-flight test units and drained by
	// centralLoop; the two never carry the same event.
	emit := func(e events.Event) { out <- e }

	emit(events.RunStarted())

	if !d.runSetupScripts(runCtx, emit, stats, registry, plan.SetupScripts) {
		d.finish(cancel, emit, stats)
		return stats
	}

	g, gCtx := errgroup.WithContext(runCtx)
	for _, cfg := range plan.Tests {
		cfg := cfg
		requests := make(chan events.RunUnitRequest, 4)
		registry.register(cfg.ID, requests)
		g.Go(func() error {
			defer registry.unregister(cfg.ID)
			d.exec.RunUnit(gCtx, cfg, sink, requests)
			return nil
		})
	}

	done := make(chan struct{})
	go func() { _ = g.Wait(); close(done) }()

	d.centralLoop(runCtx, cancel, sink, out, stats, stopwatch, registry, done)
	d.finish(cancel, emit, stats)
	return stats
}

// runSetupScripts runs every setup script sequentially in declaration
// order; a failure always cancels the run (per policy) and stops
// running further scripts, reporting false so the caller skips the test
// phase entirely. Setup script attempts are run against a private sink
// the caller discards, since only the start/finish envelope events
// (emitted here) are externally interesting.
func (d *Dispatcher) runSetupScripts(ctx context.Context, emit func(events.Event), stats *events.RunStats, registry *unitRegistry, scripts []executor.UnitConfig) bool {
	for _, cfg := range scripts {
		cfg := cfg
		requests := make(chan events.RunUnitRequest, 4)
		registry.register(cfg.ID, requests)
		attemptSink := make(chan events.Event, 16)
		go drain(attemptSink)
		emit(events.SetupScriptStarted(cfg.ID))
		statuses := d.exec.RunUnit(ctx, cfg, attemptSink, requests)
		close(attemptSink)
		registry.unregister(cfg.ID)

		var result events.ExecutionResult
		if len(statuses) > 0 {
			result = statuses.Last().Result
		} else {
			result = events.ExecFail("setup script never ran")
		}
		passed := result.Passed()
		stats.RecordSetupScript(passed)
		emit(events.SetupScriptFinished(cfg.ID, result))

		if !passed {
			if stats.SetCancelReason(events.CancelSetupScriptFailure) {
				emit(events.RunBeginCancelEvent(events.CancelSetupScriptFailure))
			}
			return false
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return true
}

// drain discards every event sent on ch until it is closed; used to
// keep a RunUnit call's per-attempt event traffic from blocking when
// nothing downstream wants it.
func drain(ch <-chan events.Event) {
	for range ch {
	}
}

// centralLoop is the dispatcher's single select loop: it owns every
// mutation of stats and cancel state, and is the only goroutine
// permitted to read the shared unit-event sink. Every event it reads is
// forwarded onto out before or after processing, so the caller sees the
// same stream this loop observes.
func (d *Dispatcher) centralLoop(ctx context.Context, cancel context.CancelFunc, sink <-chan events.Event, out chan<- events.Event, stats *events.RunStats, stopwatch *Stopwatch, registry *unitRegistry, done <-chan struct{}) {
	cancelSig := make(chan os.Signal, 4)
	notifyCancel(cancelSig)
	jobSig := make(chan os.Signal, 4)
	notifyJobControl(jobSig)
	infoSig := make(chan os.Signal, 4)
	notifyInfo(infoSig)

	emit := func(e events.Event) { out <- e }
	signalCount := 0

	for {
		select {
		case <-done:
			return

		case e := <-sink:
			out <- e
			d.observe(cancel, emit, stats, registry, e)

		case sig := <-cancelSig:
			signalCount++
			reason := events.CancelSignal
			if isInterrupt(sig) {
				reason = events.CancelInterrupt
			}
			switch signalCount {
			case 1:
				if stats.SetCancelReason(reason) {
					emit(events.RunBeginCancelEvent(reason))
				}
				cancel()
				registry.broadcastSignal(events.SignalStop)
			case 2:
				registry.broadcastSignal(events.SignalShutdown)
			default:
				panic("nextrunner: dispatcher received a third cancellation signal")
			}

		case <-jobSig:
			stopwatch.Pause()
			registry.broadcastSignal(events.SignalStop)
			time.Sleep(jobControlGrace)
			suspendSelf()
			stopwatch.Resume()
			registry.broadcastSignal(events.SignalContinue)

		case <-infoSig:
			d.broadcastInfo(emit, registry)
		}
	}
}

// observe folds one event into run statistics and enforces the
// fail-fast policy; it never blocks.
func (d *Dispatcher) observe(cancel context.CancelFunc, emit func(events.Event), stats *events.RunStats, registry *unitRegistry, e events.Event) {
	switch e.Kind {
	case events.KindUnitFinished:
		if len(e.Statuses) > 0 {
			stats.RecordFinished(e.Describe, e.Statuses.Last().Result)
		}
		if d.maxFail != nil && stats.FailedCount() >= *d.maxFail {
			if stats.SetCancelReason(events.CancelTestFailure) {
				emit(events.RunBeginCancelEvent(events.CancelTestFailure))
				cancel()
				registry.broadcastSignal(events.SignalStop)
			}
		}
	case events.KindUnitSkipped:
		stats.RecordSkipped()
	}
}

// broadcastInfo runs one info-request collection cycle: query every
// running unit, wait up to infoSoftDeadline for replies, and emit the
// InfoStarted/InfoResponse*/InfoFinished sequence.
func (d *Dispatcher) broadcastInfo(emit func(events.Event), registry *unitRegistry) {
	handles := registry.snapshot()
	total := len(handles)
	emit(events.InfoStarted(total))

	type reply struct {
		payload events.InfoResponsePayload
	}
	results := make(chan reply, total)
	for _, ch := range handles {
		ch := ch
		replyCh := make(chan events.InfoResponsePayload, 1)
		select {
		case ch <- events.QueryRequest(replyCh):
		default:
			continue
		}
		go func() {
			select {
			case p := <-replyCh:
				results <- reply{payload: p}
			case <-time.After(infoSoftDeadline):
			}
		}()
	}

	deadline := time.After(infoSoftDeadline)
	received := 0
collect:
	for received < total {
		select {
		case r := <-results:
			received++
			emit(events.InfoResponseEvent(received, total, r.payload))
		case <-deadline:
			break collect
		}
	}
	emit(events.InfoFinished(total - received))
}

// finish finalizes statistics and emits the run's terminal event.
func (d *Dispatcher) finish(cancel context.CancelFunc, emit func(events.Event), stats *events.RunStats) {
	stats.SetNotRun()
	emit(events.RunFinished(stats))
	cancel()
}
