// Package testlist owns the catalog of discovered test binaries and their
// enumerated test cases. It is the leaf "data" component in the pipeline:
// binary and artifact discovery are a collaborator's job; this package
// only stores and indexes what the collaborator reported, and answers
// the filter engine's and dispatcher's questions about it.
package testlist

// MismatchReason is the reason a test's FilterMatch is a mismatch. The
// zero value is never a valid reason on its own (use Matches()).
type MismatchReason string

const (
	ReasonIgnored           MismatchReason = "ignored"
	ReasonString            MismatchReason = "string"
	ReasonExpression        MismatchReason = "expression"
	ReasonPartition         MismatchReason = "partition"
	ReasonDefaultFilter     MismatchReason = "default-filter"
	ReasonNotBenchmark      MismatchReason = "not-a-benchmark"
	ReasonRerunAlreadyPassed MismatchReason = "rerun-already-passed"
)

// FilterMatch is the pre-computed filter decision for one test case:
// either it matches (runs) or it has a single mismatch reason recorded at
// the point precedence first excluded it.
type FilterMatch struct {
	matched bool
	reason  MismatchReason
}

// Matches returns a FilterMatch indicating the test should run.
func Matches() FilterMatch { return FilterMatch{matched: true} }

// Mismatch returns a FilterMatch indicating the test should not run,
// carrying the first precedence-ordered reason it was excluded.
func Mismatch(reason MismatchReason) FilterMatch {
	return FilterMatch{matched: false, reason: reason}
}

// IsMatch reports whether the test should run.
func (m FilterMatch) IsMatch() bool { return m.matched }

// Reason returns the mismatch reason. It is only meaningful when
// IsMatch() is false.
func (m FilterMatch) Reason() MismatchReason { return m.reason }

// TestCase belongs to exactly one binary (by construction: it is only
// ever reachable through Catalog.Tests(binaryID)).
type TestCase struct {
	// Name is the test's fully qualified name as reported by the binary's
	// --list output.
	Name string
	// Ignored mirrors the #[ignore]-equivalent flag reported by the binary.
	Ignored bool
	// IsBenchmark is true for entries the binary's terse listing marked
	// "benchmark" rather than "test".
	IsBenchmark bool
	// Filter is computed exactly once per test per run; see
	// Catalog.SetFilterMatch.
	Filter FilterMatch

	filterSet bool
}
