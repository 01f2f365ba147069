package filterexpr

import (
	"regexp"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// Matcher decides whether a single string argument (a package name, kind,
// binary name, test name, or platform tag) satisfies a predicate.
type Matcher interface {
	Match(s string) bool
	String() string
}

// ExactMatcher requires the argument to equal a fixed string exactly. Used
// for kind() and platform().
type ExactMatcher struct{ Value string }

func (m ExactMatcher) Match(s string) bool { return s == m.Value }
func (m ExactMatcher) String() string      { return "=" + m.Value }

// SubstringMatcher requires the argument to contain a fixed substring.
// This is the default matcher for a bare, unquoted predicate argument.
type SubstringMatcher struct{ Value string }

func (m SubstringMatcher) Match(s string) bool { return contains(s, m.Value) }
func (m SubstringMatcher) String() string      { return m.Value }

func contains(s, sub string) bool {
	if sub == "" {
		return true
	}
	return len(s) >= len(sub) && indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// RegexMatcher requires the argument to match a compiled regular
// expression. Produced by a /.../ delimited predicate argument.
type RegexMatcher struct{ Re *regexp.Regexp }

func (m RegexMatcher) Match(s string) bool { return m.Re.MatchString(s) }
func (m RegexMatcher) String() string      { return "/" + m.Re.String() + "/" }

// PatternSetMatcher matches if the argument contains ANY of a set of
// substrings. The parser collapses a chain of OR'd substring predicates on
// the same field (e.g. test(a) | test(b) | test(c) ...) into one of these
// at compile time, trading a linear scan of alternatives for a single
// Aho-Corasick automaton walk — the shape a profile's default-filter or a
// large --skip list actually takes in practice.
type PatternSetMatcher struct {
	patterns []string
	trie     *ahocorasick.Trie
}

// NewPatternSetMatcher builds a PatternSetMatcher over patterns. Matching
// is substring-by-any-of; an empty pattern list never matches.
func NewPatternSetMatcher(patterns []string) *PatternSetMatcher {
	cp := make([]string, len(patterns))
	copy(cp, patterns)
	builder := ahocorasick.NewTrieBuilder()
	builder.AddStrings(cp)
	return &PatternSetMatcher{patterns: cp, trie: builder.Build()}
}

func (m *PatternSetMatcher) Match(s string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	return len(m.trie.Match([]byte(s))) > 0
}

func (m *PatternSetMatcher) String() string {
	out := "any("
	for i, p := range m.patterns {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + ")"
}
