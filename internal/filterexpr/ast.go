// Package filterexpr implements the set language used to select tests:
// union, intersection, difference, and negation over primitive predicates
// (package, kind, binary, test name, platform).
//
// A filterset expression is compiled once into an Expr tree and evaluated
// many times: once per test (full two-valued logic, see Eval) and,
// independently, once per binary before any test name is known (three-valued
// logic, see EvalBinary) so the dispatcher can skip binaries an expression
// can never match without listing them first.
package filterexpr

// Expr is a compiled filterset expression.
type Expr interface {
	isExpr()
}

// All matches every test unconditionally. Produced by all().
type All struct{}

// None matches no test. Produced by none().
type None struct{}

// BinOp is a binary set operator: "or" (union), "and" (intersection), or
// "diff" (set difference, Left minus Right).
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// Not negates its operand.
type Not struct {
	X Expr
}

// PredKind names a primitive predicate.
type PredKind string

const (
	PredPackage  PredKind = "package"
	PredKindOf   PredKind = "kind"
	PredBinary   PredKind = "binary"
	PredTestName PredKind = "test"
	PredPlatform PredKind = "platform"
)

// Pred is a leaf predicate: PredKind applied to a string Matcher.
type Pred struct {
	Kind    PredKind
	Matcher Matcher
}

func (All) isExpr()   {}
func (None) isExpr()  {}
func (BinOp) isExpr() {}
func (Not) isExpr()   {}
func (Pred) isExpr()  {}

// isBinaryLevel reports whether a predicate reads only binary-level query
// fields (not the test name). Used by EvalBinary to
// decide whether a predicate is decidable before a test name is known.
func (k PredKind) isBinaryLevel() bool {
	return k == PredPackage || k == PredKindOf || k == PredBinary || k == PredPlatform
}
