package executor

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/nextrunner/nextrunner/internal/config"
	"github.com/nextrunner/nextrunner/internal/events"
)

// UnitConfig bundles everything Executor.RunUnit needs to take one unit
// (test case or setup script) from idle to finished, across every retry
// attempt.
type UnitConfig struct {
	ID      events.UnitID
	Command Command
	Capture CaptureStrategy

	Timeouts config.TimeoutPolicy
	Retries  config.RetryPolicy

	ThreadsRequired int64
	Group           string

	// BaseEnv is the ambient environment (typically os.Environ()) a unit's
	// process inherits before Command.Env layers its own variables on top.
	BaseEnv []string
	// LibraryPathVar names the OS-specific shared-library search path
	// variable (LD_LIBRARY_PATH, DYLD_LIBRARY_PATH, ...); empty disables
	// library-path augmentation.
	LibraryPathVar string
}

// Executor runs units against a shared concurrency Pool.
type Executor struct {
	pool *Pool
}

// New builds an Executor drawing concurrency permits from pool.
func New(pool *Pool) *Executor {
	return &Executor{pool: pool}
}

// RunUnit runs cfg to completion, including every retry attempt, emitting
// lifecycle events onto sink and listening on requests for signals and
// info queries the dispatcher routes to this unit. It blocks until the
// unit has finished, and always returns the history of every attempt
// made.
func (e *Executor) RunUnit(ctx context.Context, cfg UnitConfig, sink chan<- events.Event, requests <-chan events.RunUnitRequest) events.ExecutionStatuses {
	release, err := e.pool.Acquire(ctx, cfg.ThreadsRequired, cfg.Group)
	if err != nil {
		sink <- events.UnitStarted(cfg.ID)
		statuses := events.ExecutionStatuses{{
			Attempt:   1,
			StartedAt: time.Now(),
			Result:    events.ExecFail(err.Error()),
		}}
		sink <- events.UnitFinished(cfg.ID, statuses)
		return statuses
	}
	defer release()

	sink <- events.UnitStarted(cfg.ID)

	maxAttempts := MaxAttempts(cfg.Retries)
	var statuses events.ExecutionStatuses

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			sink <- events.UnitRetryStarted(cfg.ID, attempt)
		}
		status := e.runAttempt(ctx, cfg, attempt, sink, requests)
		statuses = append(statuses, status)

		if status.Result.Passed() || attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		delay := RetryDelay(cfg.Retries, attempt)
		sink <- events.UnitAttemptFailedWillRetry(cfg.ID, attempt, delay)
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	sink <- events.UnitFinished(cfg.ID, statuses)
	return statuses
}

// runAttempt spawns one process for cfg, waits for it to exit (or be
// terminated by ctx cancellation or a timeout), and classifies the
// outcome into one ExecutionStatus.
func (e *Executor) runAttempt(ctx context.Context, cfg UnitConfig, attempt int, sink chan<- events.Event, requests <-chan events.RunUnitRequest) events.ExecutionStatus {
	startedAt := time.Now()

	program, args := cfg.Command.Argv()
	cmd := exec.Command(program, args...)
	cmd.Dir = cfg.Command.WorkingDir
	cmd.Env = cfg.Command.Env(cfg.BaseEnv, cfg.LibraryPathVar)

	capt, err := newCapture(cfg.Capture, cmd)
	if err != nil {
		return events.ExecutionStatus{
			Attempt:   attempt,
			StartedAt: startedAt,
			Result:    events.ExecFail(err.Error()),
		}
	}

	if err := cmd.Start(); err != nil {
		capt.closeParentEnds()
		return events.ExecutionStatus{
			Attempt:   attempt,
			StartedAt: startedAt,
			Result:    events.ExecFail(err.Error()),
		}
	}
	capt.startCopying()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	outcome := e.pumpUntilExit(ctx, cfg, attempt, startedAt, cmd, waitCh, sink, requests)

	// Leak detection only makes sense once the process has actually run
	// to completion on its own and there is something to drain.
	if !outcome.timedOut && cfg.Capture != CaptureNone {
		outcome.leaked = !capt.awaitDrain(cfg.Timeouts.Leak)
	}

	result := classify(outcome)
	return events.ExecutionStatus{
		Attempt:   attempt,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Result:    result,
		Output:    capt.output(),
	}
}

// pumpUntilExit multiplexes process exit, context cancellation, the slow
// timer, and incoming unit requests until cmd exits or is forcibly
// terminated, returning the raw outcome (minus leak detection, which
// only makes sense once the process has exited).
func (e *Executor) pumpUntilExit(ctx context.Context, cfg UnitConfig, attempt int, startedAt time.Time, cmd *exec.Cmd, waitCh <-chan error, sink chan<- events.Event, requests <-chan events.RunUnitRequest) attemptOutcome {
	var (
		slowTicker  *time.Ticker
		slowC       <-chan time.Time
		slowFired   bool
		terminating bool
		terminateAt <-chan time.Time
	)
	if cfg.Timeouts.SlowAfter > 0 {
		slowTicker = time.NewTicker(cfg.Timeouts.SlowAfter)
		slowC = slowTicker.C
		defer slowTicker.Stop()
	}

	for {
		select {
		case err := <-waitCh:
			return attemptOutcome{waitErr: err}

		case <-ctx.Done():
			if !terminating {
				terminating = true
				_ = sendTerminate(cmd.Process)
				t := time.NewTimer(5 * time.Second)
				terminateAt = t.C
			}

		case <-terminateAt:
			_ = sendKill(cmd.Process)
			err := <-waitCh
			return attemptOutcome{waitErr: err, timedOut: true}

		case <-slowC:
			elapsed := time.Since(startedAt)
			willTerminate := cfg.Timeouts.Terminate > 0 && !cfg.Timeouts.WarnOnly
			sink <- events.UnitSlow(cfg.ID, elapsed, willTerminate)
			if !slowFired && !cfg.Timeouts.WarnOnly && cfg.Timeouts.Terminate > 0 {
				slowFired = true
				t := time.NewTimer(cfg.Timeouts.Terminate)
				terminateAt = t.C
			}

		case req, ok := <-requests:
			if !ok {
				requests = nil
				continue
			}
			e.handleRequest(cmd, startedAt, attempt, req)
		}
	}
}

// handleRequest routes a single dispatcher-issued request to this
// attempt's process.
func (e *Executor) handleRequest(cmd *exec.Cmd, startedAt time.Time, attempt int, req events.RunUnitRequest) {
	switch {
	case req.Signal != nil:
		switch *req.Signal {
		case events.SignalStop:
			_ = sendTerminate(cmd.Process)
		case events.SignalShutdown:
			_ = sendKill(cmd.Process)
		case events.SignalContinue:
			_ = sendContinue(cmd.Process)
		}
	case req.Query != nil:
		select {
		case req.Query.Reply <- events.InfoResponsePayload{
			ElapsedMillis: time.Since(startedAt).Milliseconds(),
			Attempt:       attempt,
		}:
		default:
		}
	}
}

// capture wires up a process's stdout/stderr for one CaptureStrategy and
// copies whatever it writes into in-memory buffers over real os.Pipe
// ends, so a process that keeps a duplicated fd alive past its own exit
// (the "leak" condition) is observable: its copy goroutine simply never
// sees EOF.
type capture struct {
	strategy CaptureStrategy

	stdoutW, stderrW, combinedW *os.File
	copySrc                     []copyJob

	stdout, stderr, combined *bytes.Buffer
	done                     chan struct{}
}

func newCapture(strategy CaptureStrategy, cmd *exec.Cmd) (*capture, error) {
	c := &capture{strategy: strategy, done: make(chan struct{})}
	switch strategy {
	case CaptureNone:
		close(c.done)
	case CaptureSplit:
		c.stdout, c.stderr = &bytes.Buffer{}, &bytes.Buffer{}
		outR, outW, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		errR, errW, err := os.Pipe()
		if err != nil {
			_ = outR.Close()
			_ = outW.Close()
			return nil, err
		}
		cmd.Stdout, cmd.Stderr = outW, errW
		c.stdoutW, c.stderrW = outW, errW
		c.copySrc = append(c.copySrc, copyJob{outR, c.stdout}, copyJob{errR, c.stderr})
	case CaptureCombined:
		c.combined = &bytes.Buffer{}
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		cmd.Stdout, cmd.Stderr = w, w
		c.combinedW = w
		c.copySrc = append(c.copySrc, copyJob{r, c.combined})
	}
	return c, nil
}

type copyJob struct {
	r   *os.File
	buf *bytes.Buffer
}

// closeParentEnds closes the write ends this process holds when Start
// fails before the child ever inherited them.
func (c *capture) closeParentEnds() {
	for _, w := range []*os.File{c.stdoutW, c.stderrW, c.combinedW} {
		if w != nil {
			_ = w.Close()
		}
	}
}

// startCopying closes the parent's write-end duplicates (so EOF on the
// read end reflects only the child's copies) and begins draining each
// pipe into its buffer.
func (c *capture) startCopying() {
	for _, w := range []*os.File{c.stdoutW, c.stderrW, c.combinedW} {
		if w != nil {
			_ = w.Close()
		}
	}
	if len(c.copySrc) == 0 {
		return
	}
	var pending = len(c.copySrc)
	drained := make(chan struct{}, pending)
	for _, job := range c.copySrc {
		go func(j copyJob) {
			_, _ = io.Copy(j.buf, j.r)
			_ = j.r.Close()
			drained <- struct{}{}
		}(job)
	}
	go func() {
		for i := 0; i < pending; i++ {
			<-drained
		}
		close(c.done)
	}()
}

// awaitDrain blocks until every copy goroutine has observed EOF or
// timeout elapses (0 means wait indefinitely), reporting whether it
// actually drained.
func (c *capture) awaitDrain(timeout time.Duration) bool {
	if timeout <= 0 {
		<-c.done
		return true
	}
	select {
	case <-c.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *capture) output() events.CapturedOutput {
	switch c.strategy {
	case CaptureSplit:
		return events.CapturedOutput{Shape: events.ShapeSplit, Stdout: c.stdout.Bytes(), Stderr: c.stderr.Bytes()}
	case CaptureCombined:
		return events.CapturedOutput{Shape: events.ShapeCombined, Combined: c.combined.Bytes()}
	default:
		return events.CapturedOutput{Shape: events.ShapeSplit}
	}
}
