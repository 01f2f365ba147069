package filterexpr

import "github.com/nextrunner/nextrunner/internal/binaryid"

// TestQuery carries the fields a test-level evaluation can read.
type TestQuery struct {
	Package      string
	Kind         binaryid.Kind
	Binary       string // target name, or the binary's full String() form
	TestName     string
	PlatformHost bool // true if evaluating against the host platform, false for target
}

// BinaryQuery carries only the fields known before a binary's tests have
// been listed.
type BinaryQuery struct {
	Package      string
	Kind         binaryid.Kind
	Binary       string
	PlatformHost bool
}

func platformTag(host bool) string {
	if host {
		return "host"
	}
	return "target"
}

// Eval evaluates expr against a fully known TestQuery using ordinary
// two-valued logic.
func Eval(expr Expr, q TestQuery) bool {
	switch e := expr.(type) {
	case All:
		return true
	case None:
		return false
	case Not:
		return !Eval(e.X, q)
	case BinOp:
		switch e.Op {
		case "or":
			return Eval(e.Left, q) || Eval(e.Right, q)
		case "and":
			return Eval(e.Left, q) && Eval(e.Right, q)
		case "diff":
			return Eval(e.Left, q) && !Eval(e.Right, q)
		}
		return false
	case Pred:
		return evalPred(e, q)
	default:
		return false
	}
}

func evalPred(p Pred, q TestQuery) bool {
	switch p.Kind {
	case PredPackage:
		return p.Matcher.Match(q.Package)
	case PredKindOf:
		return p.Matcher.Match(string(q.Kind))
	case PredBinary:
		return p.Matcher.Match(q.Binary)
	case PredTestName:
		return p.Matcher.Match(q.TestName)
	case PredPlatform:
		return p.Matcher.Match(platformTag(q.PlatformHost))
	default:
		return false
	}
}

// TV is a three-valued truth value: known-true, known-false, or unknown
// (depends on a field not yet available, i.e. the test name).
type TV int

const (
	TVUnknown TV = iota
	TVTrue
	TVFalse
)

func tvNot(a TV) TV {
	switch a {
	case TVTrue:
		return TVFalse
	case TVFalse:
		return TVTrue
	default:
		return TVUnknown
	}
}

// Strong Kleene (K3) and/or: a known False makes an AND False regardless of
// the other operand's unknown-ness; a known True makes an OR True likewise.
func tvAnd(a, b TV) TV {
	if a == TVFalse || b == TVFalse {
		return TVFalse
	}
	if a == TVUnknown || b == TVUnknown {
		return TVUnknown
	}
	return TVTrue
}

func tvOr(a, b TV) TV {
	if a == TVTrue || b == TVTrue {
		return TVTrue
	}
	if a == TVUnknown || b == TVUnknown {
		return TVUnknown
	}
	return TVFalse
}

// EvalBinaryTV evaluates expr against a BinaryQuery using strong
// three-valued logic: predicates that only read binary-level fields
// (package, kind, binary, platform) are decided True/False; the test()
// predicate is always TVUnknown at this stage, and propagates through
// AND/OR the way K3 requires — an unknown only vanishes if the other
// operand alone already decides the result (False for AND, True for OR).
func EvalBinaryTV(expr Expr, q BinaryQuery) TV {
	switch e := expr.(type) {
	case All:
		return TVTrue
	case None:
		return TVFalse
	case Not:
		return tvNot(EvalBinaryTV(e.X, q))
	case BinOp:
		l := EvalBinaryTV(e.Left, q)
		r := EvalBinaryTV(e.Right, q)
		switch e.Op {
		case "or":
			return tvOr(l, r)
		case "and":
			return tvAnd(l, r)
		case "diff":
			return tvAnd(l, tvNot(r))
		}
		return TVUnknown
	case Pred:
		if !e.Kind.isBinaryLevel() {
			return TVUnknown
		}
		if evalPred(e, TestQuery{
			Package:      q.Package,
			Kind:         q.Kind,
			Binary:       q.Binary,
			PlatformHost: q.PlatformHost,
		}) {
			return TVTrue
		}
		return TVFalse
	default:
		return TVUnknown
	}
}
