package events

import "time"

// ResultKind is the outcome of a single execution attempt.
type ResultKind int

const (
	ResultPass ResultKind = iota
	ResultFail
	ResultTimeout
	ResultLeak
	ResultExecFail
)

func (k ResultKind) String() string {
	switch k {
	case ResultPass:
		return "pass"
	case ResultFail:
		return "fail"
	case ResultTimeout:
		return "timeout"
	case ResultLeak:
		return "leak"
	case ResultExecFail:
		return "exec-fail"
	default:
		return "unknown"
	}
}

// ExecutionResult is the outcome of one attempt, in a closed shape: Pass;
// Fail (with the process's exit code or whether it aborted on a signal,
// and whether it also leaked); Timeout or Leak, each carrying whether the
// underlying attempt would otherwise have passed or failed; or ExecFail,
// when the process never started.
type ExecutionResult struct {
	Kind ResultKind

	// Fail-specific.
	ExitCode int
	Aborted  bool // true if the process died to a signal rather than exiting

	// Set on Fail when the leak-timeout also elapsed for this attempt.
	Leaked bool

	// Timeout/Leak-specific: whether, ignoring the timeout/leak condition
	// itself, the attempt's own pass/fail outcome was a pass.
	InnerPass bool

	// ExecFail-specific.
	StartError string
}

// Pass builds a passing ExecutionResult.
func Pass() ExecutionResult { return ExecutionResult{Kind: ResultPass} }

// Fail builds a failing ExecutionResult for a process that exited
// normally with a non-zero code.
func Fail(exitCode int, leaked bool) ExecutionResult {
	return ExecutionResult{Kind: ResultFail, ExitCode: exitCode, Leaked: leaked}
}

// Aborted builds a failing ExecutionResult for a process killed by a
// signal (e.g. SIGABRT/SIGSEGV).
func Aborted(leaked bool) ExecutionResult {
	return ExecutionResult{Kind: ResultFail, Aborted: true, Leaked: leaked}
}

// Timeout builds a Timeout ExecutionResult, classified pass|fail
// depending on what the attempt's own exit would have been had it not
// been killed for running too long.
func Timeout(innerPass bool) ExecutionResult {
	return ExecutionResult{Kind: ResultTimeout, InnerPass: innerPass}
}

// Leak builds a Leak ExecutionResult. With --no-capture there are no
// pipes to watch for lingering writers, so leak detection is off
// entirely in that capture mode and Leak is never produced; callers
// enforce this at the call site, not here.
func Leak(innerPass bool) ExecutionResult {
	return ExecutionResult{Kind: ResultLeak, InnerPass: innerPass}
}

// ExecFail builds an ExecutionResult for a process that never started.
func ExecFail(reason string) ExecutionResult {
	return ExecutionResult{Kind: ResultExecFail, StartError: reason}
}

// Passed reports whether this attempt, taken alone, counts as a pass for
// retry/flaky-accounting purposes.
func (r ExecutionResult) Passed() bool {
	switch r.Kind {
	case ResultPass:
		return true
	case ResultTimeout, ResultLeak:
		return r.InnerPass
	default:
		return false
	}
}

// OutputShape distinguishes how an attempt's captured output was stored.
type OutputShape int

const (
	ShapeSplit OutputShape = iota
	ShapeCombined
	ShapeStartError
)

// CapturedOutput holds one attempt's captured process output. Exactly one
// of the byte slices is meaningful, selected by Shape; a content-addressed
// variant (once archived to the record store) carries digests instead of
// raw bytes via CapturedDigests.
type CapturedOutput struct {
	Shape    OutputShape
	Stdout   []byte
	Stderr   []byte
	Combined []byte
}

// CapturedDigests is the archived, content-addressed form of
// CapturedOutput: the same Shape, but referencing store.zip entries by
// hash instead of holding the bytes in memory.
type CapturedDigests struct {
	Shape          OutputShape
	StdoutDigest   string
	StderrDigest   string
	CombinedDigest string
}

// ExecutionStatus is one attempt's full record: when it started, how long
// it ran, what happened, and what it produced.
type ExecutionStatus struct {
	Attempt   int
	StartedAt time.Time
	Duration  time.Duration
	Result    ExecutionResult
	Output    CapturedOutput
}

// Describe classifies how a unit's full attempt history should be
// reported: Success if every attempt passed (only possible if there was
// exactly one, since retries only fire on failure); Flaky if the final
// attempt passed after one or more earlier failures; Failure otherwise.
type Describe int

const (
	DescribeSuccess Describe = iota
	DescribeFlaky
	DescribeFailure
)

// ExecutionStatuses aggregates every attempt of one unit, in attempt
// order.
type ExecutionStatuses []ExecutionStatus

// Describe classifies the full history: Success, Flaky{last, prior}, or
// Failure{first, retries}.
func (s ExecutionStatuses) Describe() Describe {
	if len(s) == 0 {
		return DescribeFailure
	}
	last := s[len(s)-1]
	if !last.Result.Passed() {
		return DescribeFailure
	}
	if len(s) == 1 {
		return DescribeSuccess
	}
	return DescribeFlaky
}

// Last returns the final attempt.
func (s ExecutionStatuses) Last() ExecutionStatus { return s[len(s)-1] }

// First returns the first attempt.
func (s ExecutionStatuses) First() ExecutionStatus { return s[0] }

// Prior returns every attempt before the last one.
func (s ExecutionStatuses) Prior() ExecutionStatuses {
	if len(s) <= 1 {
		return nil
	}
	return s[:len(s)-1]
}
