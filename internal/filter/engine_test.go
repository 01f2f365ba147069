package filter

import (
	"testing"

	"github.com/nextrunner/nextrunner/internal/filterexpr"
	"github.com/nextrunner/nextrunner/internal/testlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tc(name string, ignored, bench bool) testlist.TestCase {
	return testlist.TestCase{Name: name, Ignored: ignored, IsBenchmark: bench}
}

func TestTestFilter_Precedence(t *testing.T) {
	f := NewTestFilter(nil, nil, IgnoredPolicyExclude, RunModeTest, nil, nil)

	m := f.Evaluate(filterexpr.TestQuery{TestName: "anything"}, tc("anything", true, false))
	require.False(t, m.IsMatch())
	assert.Equal(t, testlist.ReasonIgnored, m.Reason())
}

func TestTestFilter_NotBenchmarkInBenchmarkMode(t *testing.T) {
	f := NewTestFilter(nil, nil, IgnoredPolicyExclude, RunModeBenchmark, nil, nil)
	m := f.Evaluate(filterexpr.TestQuery{TestName: "a"}, tc("a", false, false))
	require.False(t, m.IsMatch())
	assert.Equal(t, testlist.ReasonNotBenchmark, m.Reason())
}

func TestTestFilter_NamePatternSkipOverridesInclude(t *testing.T) {
	names := NewNamePatternSet([]string{"foo"}, nil, []string{"foobar"}, nil)
	f := NewTestFilter(nil, names, IgnoredPolicyExclude, RunModeTest, nil, nil)

	m := f.Evaluate(filterexpr.TestQuery{TestName: "foobar_test"}, tc("foobar_test", false, false))
	require.False(t, m.IsMatch())
	assert.Equal(t, testlist.ReasonString, m.Reason())

	m = f.Evaluate(filterexpr.TestQuery{TestName: "foo_test"}, tc("foo_test", false, false))
	require.True(t, m.IsMatch())
}

func TestTestFilter_RerunAlreadyPassedAdvancesPartition(t *testing.T) {
	part := New(KindCount, 0, 2)
	rerun := map[string]bool{"a": true}
	f := NewTestFilter(nil, nil, IgnoredPolicyExclude, RunModeTest, rerun, part)

	m := f.Evaluate(filterexpr.TestQuery{TestName: "a"}, tc("a", false, false))
	require.False(t, m.IsMatch())
	assert.Equal(t, testlist.ReasonRerunAlreadyPassed, m.Reason())

	// "a" consumed slot 0, so "b" lands in bucket 1 and is excluded; had
	// the short-circuit skipped the counter, "b" would take slot 0 and
	// match. This proves the partition counter advanced.
	m = f.Evaluate(filterexpr.TestQuery{TestName: "b"}, tc("b", false, false))
	require.False(t, m.IsMatch())
	assert.Equal(t, testlist.ReasonPartition, m.Reason())
}

func TestTestFilter_ExpressionMismatchReasonWins(t *testing.T) {
	expr, err := filterexpr.Parse(`test(nomatch)`)
	require.NoError(t, err)
	bf := filterexpr.NewBinaryFilter([]filterexpr.Expr{expr}, nil, false)
	names := NewNamePatternSet([]string{"other"}, nil, nil, nil)
	f := NewTestFilter(bf, names, IgnoredPolicyExclude, RunModeTest, nil, nil)

	m := f.Evaluate(filterexpr.TestQuery{TestName: "something"}, tc("something", false, false))
	require.False(t, m.IsMatch())
	assert.Equal(t, testlist.ReasonExpression, m.Reason())
}

func TestIgnoredPolicy(t *testing.T) {
	f := NewTestFilter(nil, nil, IgnoredPolicyOnly, RunModeTest, nil, nil)
	m := f.Evaluate(filterexpr.TestQuery{TestName: "a"}, tc("a", false, false))
	require.False(t, m.IsMatch())
	assert.Equal(t, testlist.ReasonIgnored, m.Reason())

	m = f.Evaluate(filterexpr.TestQuery{TestName: "a"}, tc("a", true, false))
	require.True(t, m.IsMatch())
}

func TestNamePatternSet_EqualIgnoresMatcherState(t *testing.T) {
	a := NewNamePatternSet([]string{"x"}, nil, nil, nil)
	b := NewNamePatternSet([]string{"x"}, nil, nil, nil)
	assert.True(t, a.Equal(b))

	c := NewNamePatternSet([]string{"y"}, nil, nil, nil)
	assert.False(t, a.Equal(c))
}
