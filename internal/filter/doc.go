// Package filter implements the stateful per-binary test filter and the
// binary-level short-circuit filter. It sits on top of internal/filterexpr
// (the compiled set language) and internal/testlist (the
// FilterMatch/MismatchReason vocabulary a decision is recorded in),
// adding the three concerns the expression language itself doesn't know
// about: name-pattern matching, ignored-test policy, and partition
// bucketing.
package filter
