package events

import "sync"

// CancelReason is why a run transitioned into cancellation. The ordering
// of these constants IS the monotonic-upgrade priority order: a
// later-listed reason may replace an earlier one, never the reverse.
type CancelReason int

const (
	CancelNone CancelReason = iota
	CancelReportError
	CancelSignal
	CancelInterrupt
	CancelTestFailure
	CancelSetupScriptFailure
)

func (r CancelReason) String() string {
	switch r {
	case CancelNone:
		return "none"
	case CancelReportError:
		return "report-error"
	case CancelSignal:
		return "signal"
	case CancelInterrupt:
		return "interrupt"
	case CancelTestFailure:
		return "test-failure"
	case CancelSetupScriptFailure:
		return "setup-script-failure"
	default:
		return "unknown"
	}
}

// outranks reports whether r should replace current under the monotonic
// upgrade rule: strictly higher priority only.
func (r CancelReason) outranks(current CancelReason) bool { return r > current }

// RunStats is the running tally of a run's outcome. It is safe for
// concurrent use: the dispatcher's central loop is the only writer, but
// a reporter or CLI front door may read a snapshot concurrently while
// the run is still in flight.
type RunStats struct {
	mu sync.Mutex

	InitialRunCount int

	FinishedPass int
	// FinishedFail is keyed by ResultKind.String() (fail/timeout/leak/
	// exec-fail) so each execution-result sub-kind is tallied separately.
	FinishedFail map[string]int
	Flaky        int
	Skipped      int
	NotRun       int

	SetupScriptPass int
	SetupScriptFail int

	CancelReason CancelReason

	// StressIterations is non-zero only for a run that was one cycle of
	// a stress run (SPEC_FULL.md §13): the count of Plan repetitions
	// completed when the stress loop stopped, stamped onto the final
	// iteration's stats.
	StressIterations uint32
}

// NewRunStats returns a RunStats sized for a run that intends to execute
// initialRunCount units.
func NewRunStats(initialRunCount int) *RunStats {
	return &RunStats{
		InitialRunCount: initialRunCount,
		FinishedFail:    make(map[string]int),
	}
}

// RecordFinished folds one unit's terminal Describe/ExecutionResult into
// the tally.
func (s *RunStats) RecordFinished(describe Describe, result ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch describe {
	case DescribeSuccess:
		s.FinishedPass++
	case DescribeFlaky:
		s.Flaky++
	default:
		s.FinishedFail[result.Kind.String()]++
	}
}

// RecordSkipped records a unit that was never dispatched.
func (s *RunStats) RecordSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped++
}

// RecordSetupScript records a setup-script attempt's pass/fail outcome.
func (s *RunStats) RecordSetupScript(passed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if passed {
		s.SetupScriptPass++
	} else {
		s.SetupScriptFail++
	}
}

// FailedCount returns the total number of units that finished with any
// non-pass, non-flaky outcome, used by the dispatcher's fail-fast policy
// to cancel once this reaches the configured max-fail threshold.
func (s *RunStats) FailedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.FinishedFail {
		total += n
	}
	return total
}

// SetNotRun finalizes the "not_run" bucket once the run is over: every
// initially-selected unit minus everything else accounted for, so that
// initial_run_count == passed + failed + skipped + flaky + not_run holds.
func (s *RunStats) SetNotRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounted := s.FinishedPass + s.Flaky + s.Skipped
	for _, n := range s.FinishedFail {
		accounted += n
	}
	if s.InitialRunCount > accounted {
		s.NotRun = s.InitialRunCount - accounted
	} else {
		s.NotRun = 0
	}
}

// SetCancelReason upgrades the recorded cancel reason if reason strictly
// outranks whatever is currently stored, returning whether an upgrade
// happened (callers use this to decide whether to emit RunBeginCancel).
func (s *RunStats) SetCancelReason(reason CancelReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason.outranks(s.CancelReason) {
		s.CancelReason = reason
		return true
	}
	return false
}

// SetStressIterations records how many Plan repetitions a stress run
// completed before its stop condition fired.
func (s *RunStats) SetStressIterations(n uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StressIterations = n
}

// Snapshot returns a copy of the stats safe to read without further
// synchronization.
func (s *RunStats) Snapshot() RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := RunStats{
		InitialRunCount:  s.InitialRunCount,
		FinishedPass:     s.FinishedPass,
		Flaky:            s.Flaky,
		Skipped:          s.Skipped,
		NotRun:           s.NotRun,
		SetupScriptPass:  s.SetupScriptPass,
		SetupScriptFail:  s.SetupScriptFail,
		CancelReason:     s.CancelReason,
		StressIterations: s.StressIterations,
		FinishedFail:     make(map[string]int, len(s.FinishedFail)),
	}
	for k, v := range s.FinishedFail {
		cp.FinishedFail[k] = v
	}
	return cp
}
