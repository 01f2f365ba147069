package filterexpr

// optimize collapses a chain of OR'd substring predicates over the same
// field into a single predicate backed by a PatternSetMatcher, so a
// profile's default-filter or a large --skip list walks the Aho-Corasick
// automaton once per test instead of scanning each alternative in turn.
func optimize(e Expr) Expr {
	switch e := e.(type) {
	case BinOp:
		left := optimize(e.Left)
		right := optimize(e.Right)
		if e.Op == "or" {
			if merged, ok := mergeOrPredicates(left, right); ok {
				return merged
			}
		}
		return BinOp{Op: e.Op, Left: left, Right: right}
	case Not:
		return Not{X: optimize(e.X)}
	default:
		return e
	}
}

func mergeOrPredicates(left, right Expr) (Expr, bool) {
	lp, lok := asSubstringPred(left)
	rp, rok := asSubstringPred(right)
	if !lok || !rok || lp.Kind != rp.Kind {
		return nil, false
	}
	return Pred{Kind: lp.Kind, Matcher: NewPatternSetMatcher(append(lp.patterns(), rp.patterns()...))}, true
}

func asSubstringPred(e Expr) (predPatterns, bool) {
	p, ok := e.(Pred)
	if !ok {
		return predPatterns{}, false
	}
	switch m := p.Matcher.(type) {
	case SubstringMatcher:
		return predPatterns{Kind: p.Kind, single: m.Value}, true
	case *PatternSetMatcher:
		return predPatterns{Kind: p.Kind, set: m}, true
	default:
		return predPatterns{}, false
	}
}

// predPatterns is an internal view used only to merge OR chains; it is not
// part of the public AST.
type predPatterns struct {
	Kind   PredKind
	single string
	set    *PatternSetMatcher
}

func (pp predPatterns) patterns() []string {
	if pp.set != nil {
		return pp.set.patterns
	}
	return []string{pp.single}
}
