package filterexpr

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// PatternSetMatcher must agree with a naive any-of-substring scan for any
// pattern set and subject string: collapsing an OR chain into one
// Aho-Corasick automaton is an optimization, not a semantic change.
func TestPatternSetMatcherAgreesWithNaiveScan(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("PatternSetMatcher matches iff any pattern is a substring", prop.ForAll(
		func(patterns []string, subject string) bool {
			m := NewPatternSetMatcher(patterns)
			want := false
			for _, p := range patterns {
				if p != "" && strings.Contains(subject, p) {
					want = true
					break
				}
			}
			return m.Match(subject) == want
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
