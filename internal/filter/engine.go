package filter

import (
	"github.com/nextrunner/nextrunner/internal/filterexpr"
	"github.com/nextrunner/nextrunner/internal/testlist"
)

// RunMode selects whether a run is executing ordinary tests or
// benchmarks.
type RunMode int

const (
	RunModeTest RunMode = iota
	RunModeBenchmark
)

// IgnoredPolicy controls whether ignored tests are included, excluded, or
// the only ones considered; it mirrors the test binary's own --ignored
// flag.
type IgnoredPolicy int

const (
	// IgnoredPolicyExclude runs only non-ignored tests. The default.
	IgnoredPolicyExclude IgnoredPolicy = iota
	// IgnoredPolicyOnly runs only ignored tests.
	IgnoredPolicyOnly
	// IgnoredPolicyInclude runs both ignored and non-ignored tests.
	IgnoredPolicyInclude
)

// BinaryDecision is the three-way outcome of EvaluateBinary, translating
// filterexpr.BinaryMatch into a flat enum
// (Definite/Possible/Mismatch{Expression|DefaultSet}).
type BinaryDecision int

const (
	BinaryDefinite BinaryDecision = iota
	BinaryPossible
	BinaryMismatchExpression
	BinaryMismatchDefaultSet
)

func (d BinaryDecision) IsMismatch() bool {
	return d == BinaryMismatchExpression || d == BinaryMismatchDefaultSet
}

// EvaluateBinary runs bf against q and reports the filter-level decision.
func EvaluateBinary(bf *filterexpr.BinaryFilter, q filterexpr.BinaryQuery) BinaryDecision {
	if bf == nil {
		return BinaryDefinite
	}
	m := bf.EvalBinary(q)
	switch {
	case m.IsDefinite():
		return BinaryDefinite
	case m.IsPossible():
		return BinaryPossible
	case m.MismatchKind() == filterexpr.MismatchExpression:
		return BinaryMismatchExpression
	default:
		return BinaryMismatchDefaultSet
	}
}

// TestFilter is the stateful per-binary test-level filter: one instance is
// built per binary (so its Partitioner's counter observes exactly that
// binary's candidate tests) and its Evaluate method is called once per
// test case, in listing order, to produce a testlist.FilterMatch.
type TestFilter struct {
	Expr        *filterexpr.BinaryFilter
	Names       *NamePatternSet
	Ignored     IgnoredPolicy
	RunMode     RunMode
	// RerunPassed holds test names that a prior run in the same rerun
	// chain already passed; these short-circuit to
	// ReasonRerunAlreadyPassed while still consuming a partition slot, so
	// reruns keep the same bucket assignment a full run would have given
	// the same test set.
	RerunPassed map[string]bool
	Partitioner Partitioner
}

// NewTestFilter builds a TestFilter. partitioner may be nil, meaning "no
// partitioning" (every candidate test matches the partition stage).
func NewTestFilter(expr *filterexpr.BinaryFilter, names *NamePatternSet, ignored IgnoredPolicy, mode RunMode, rerunPassed map[string]bool, partitioner Partitioner) *TestFilter {
	if partitioner == nil {
		partitioner = noopPartitioner{}
	}
	return &TestFilter{
		Expr:        expr,
		Names:       names,
		Ignored:     ignored,
		RunMode:     mode,
		RerunPassed: rerunPassed,
		Partitioner: partitioner,
	}
}

// Evaluate applies a fixed precedence order to one test case and returns
// its FilterMatch. Order of checks:
//
//  1. benchmark-mode mismatch (run-mode=benchmark, test isn't one) — no
//     partition slot consumed: a benchmark-only run's non-benchmark tests
//     were never candidates to begin with.
//  2. ignored-policy mismatch — no partition slot consumed, for the same
//     reason: an excluded-by-policy test was never a run candidate.
//  3. name-pattern AND filter-expression match — no partition slot
//     consumed on mismatch.
//  4. partition bucketing: every test surviving 1–3 is a genuine run
//     candidate and consumes exactly one partition slot, in listing
//     order, regardless of what happens next.
//  5. rerun-already-passed short-circuit, checked after the partition
//     slot is consumed — counted partitioning still advances, so a rerun
//     of a partial failure set buckets identically to the original full
//     run.
func (f *TestFilter) Evaluate(q filterexpr.TestQuery, tc testlist.TestCase) testlist.FilterMatch {
	if f.RunMode == RunModeBenchmark && !tc.IsBenchmark {
		return testlist.Mismatch(testlist.ReasonNotBenchmark)
	}
	if !f.ignoredOK(tc.Ignored) {
		return testlist.Mismatch(testlist.ReasonIgnored)
	}

	nameOK := f.Names == nil || f.Names.Match(tc.Name)
	exprOK := f.Expr == nil || f.Expr.EvalTest(q)
	if !nameOK || !exprOK {
		if !exprOK {
			return testlist.Mismatch(testlist.ReasonExpression)
		}
		return testlist.Mismatch(testlist.ReasonString)
	}

	inBucket := f.Partitioner.Observe(tc.Name)

	if f.RerunPassed != nil && f.RerunPassed[tc.Name] {
		return testlist.Mismatch(testlist.ReasonRerunAlreadyPassed)
	}
	if !inBucket {
		return testlist.Mismatch(testlist.ReasonPartition)
	}
	return testlist.Matches()
}

func (f *TestFilter) ignoredOK(ignored bool) bool {
	switch f.Ignored {
	case IgnoredPolicyOnly:
		return ignored
	case IgnoredPolicyInclude:
		return true
	default:
		return !ignored
	}
}
