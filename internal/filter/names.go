package filter

import "github.com/nextrunner/nextrunner/internal/filterexpr"

// NamePatternSet is a four-pattern-set name filter: substring-include,
// exact-include, substring-skip, exact-skip. Skip always overrides
// include; an empty include set of both kinds means "everything
// matches".
//
// Equality of two NamePatternSets ignores the derived Aho-Corasick
// automata: Equal compares only the raw pattern slices.
type NamePatternSet struct {
	SubstringInclude []string
	ExactInclude     []string
	SubstringSkip    []string
	ExactSkip        []string

	exactIncludeSet map[string]struct{}
	exactSkipSet    map[string]struct{}
	includeMatcher  *filterexpr.PatternSetMatcher
	skipMatcher     *filterexpr.PatternSetMatcher
}

// NewNamePatternSet builds a NamePatternSet, pre-compiling its Aho-Corasick
// automata once so repeated Match calls don't rebuild them.
func NewNamePatternSet(substrInclude, exactInclude, substrSkip, exactSkip []string) *NamePatternSet {
	s := &NamePatternSet{
		SubstringInclude: append([]string(nil), substrInclude...),
		ExactInclude:     append([]string(nil), exactInclude...),
		SubstringSkip:    append([]string(nil), substrSkip...),
		ExactSkip:        append([]string(nil), exactSkip...),
		exactIncludeSet:  toSet(exactInclude),
		exactSkipSet:     toSet(exactSkip),
	}
	if len(substrInclude) > 0 {
		s.includeMatcher = filterexpr.NewPatternSetMatcher(substrInclude)
	}
	if len(substrSkip) > 0 {
		s.skipMatcher = filterexpr.NewPatternSetMatcher(substrSkip)
	}
	return s
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// Match reports whether name survives this pattern set: not skipped, and
// either included by a pattern or by the "no include patterns means
// everything matches" default.
func (s *NamePatternSet) Match(name string) bool {
	if s == nil {
		return true
	}
	if _, skip := s.exactSkipSet[name]; skip {
		return false
	}
	if s.skipMatcher != nil && s.skipMatcher.Match(name) {
		return false
	}
	if len(s.ExactInclude) == 0 && len(s.SubstringInclude) == 0 {
		return true
	}
	if _, ok := s.exactIncludeSet[name]; ok {
		return true
	}
	return s.includeMatcher != nil && s.includeMatcher.Match(name)
}

// Equal compares two NamePatternSets by their raw pattern lists only.
func (s *NamePatternSet) Equal(o *NamePatternSet) bool {
	if s == nil || o == nil {
		return s == o
	}
	return equalSlices(s.SubstringInclude, o.SubstringInclude) &&
		equalSlices(s.ExactInclude, o.ExactInclude) &&
		equalSlices(s.SubstringSkip, o.SubstringSkip) &&
		equalSlices(s.ExactSkip, o.ExactSkip)
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
