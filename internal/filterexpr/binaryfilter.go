package filterexpr

// MismatchKind distinguishes why a binary-level evaluation came back
// Mismatch: an explicit expression ruled it out, or the profile's
// default set (applied only when the expression result needs it) did.
// Expression reasons take precedence when both apply.
type MismatchKind int

const (
	MismatchExpression MismatchKind = iota
	MismatchDefaultSet
)

// BinaryMatch is the three-way outcome of evaluating a binary against a
// filterset before its tests are listed: Definite means every test in the
// binary that could match the expression's binary-level predicates is
// known to be eligible without listing; Possible means listing is
// required (the expression mentions test()); Mismatch means the binary
// can be skipped entirely.
type BinaryMatch struct {
	definite bool
	possible bool
	reason   MismatchKind
}

func Definite() BinaryMatch          { return BinaryMatch{definite: true} }
func Possible() BinaryMatch          { return BinaryMatch{possible: true} }
func Mismatch(k MismatchKind) BinaryMatch { return BinaryMatch{reason: k} }

func (m BinaryMatch) IsDefinite() bool      { return m.definite }
func (m BinaryMatch) IsPossible() bool      { return m.possible }
func (m BinaryMatch) IsMismatch() bool      { return !m.definite && !m.possible }
func (m BinaryMatch) MismatchKind() MismatchKind { return m.reason }

func fromTV(tv TV) BinaryMatch {
	switch tv {
	case TVTrue:
		return Definite()
	case TVUnknown:
		return Possible()
	default:
		return Mismatch(MismatchExpression)
	}
}

// BinaryFilter is the compiled form of a profile's filterset configuration:
// zero or more user-supplied expressions (OR'd together — a binary passes
// if ANY expression could match it) combined with the profile's default
// set, which is applied as an AND only when the bound requires it (the
// "default-filter" interacts with an explicit expression via intersection,
// never union).
type BinaryFilter struct {
	exprs      []Expr
	defaultSet Expr
	useDefault bool
}

// NewBinaryFilter builds a BinaryFilter. exprs may be empty (meaning "no
// user filterset: everything passes through to defaultSet"); defaultSet
// may be nil if useDefault is false.
func NewBinaryFilter(exprs []Expr, defaultSet Expr, useDefault bool) *BinaryFilter {
	return &BinaryFilter{exprs: exprs, defaultSet: defaultSet, useDefault: useDefault}
}

// EvalBinary computes the BinaryMatch for q.
func (f *BinaryFilter) EvalBinary(q BinaryQuery) BinaryMatch {
	exprResult := f.evalExprs(q)
	if exprResult.IsMismatch() {
		return exprResult
	}
	if !f.useDefault || f.defaultSet == nil {
		return exprResult
	}

	defaultTV := EvalBinaryTV(f.defaultSet, q)
	defaultResult := fromTV(defaultTV)
	if defaultResult.IsMismatch() {
		return Mismatch(MismatchDefaultSet)
	}
	if exprResult.IsDefinite() && defaultResult.IsDefinite() {
		return Definite()
	}
	return Possible()
}

func (f *BinaryFilter) evalExprs(q BinaryQuery) BinaryMatch {
	if len(f.exprs) == 0 {
		return Definite()
	}
	tv := TVFalse
	for _, e := range f.exprs {
		tv = tvOr(tv, EvalBinaryTV(e, q))
	}
	return fromTV(tv)
}

// EvalTest computes whether a specific test matches, given that its
// binary already passed EvalBinary (callers should not call EvalTest for
// a binary that returned Mismatch from EvalBinary).
func (f *BinaryFilter) EvalTest(q TestQuery) bool {
	exprMatch := len(f.exprs) == 0
	for _, e := range f.exprs {
		if Eval(e, q) {
			exprMatch = true
			break
		}
	}
	if !exprMatch {
		return false
	}
	if !f.useDefault || f.defaultSet == nil {
		return true
	}
	return Eval(f.defaultSet, q)
}
