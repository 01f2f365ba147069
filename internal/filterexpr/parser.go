package filterexpr

import (
	"fmt"
	"regexp"
)

// Parse compiles a filterset expression string into an Expr tree.
//
// Grammar (lowest to highest precedence):
//
//	expr   := orExpr
//	orExpr := diffExpr (("|" | "or") diffExpr)*
//	diffExpr := andExpr ("-" andExpr)*
//	andExpr := unary (("&" | "and") unary)*
//	unary  := ("!" | "not") unary | primary
//	primary := "(" expr ")" | predicate
//	predicate := name "(" arg ")"
//
// name is one of package, kind, binary, test, platform, all, none.
func Parse(s string) (Expr, error) {
	p := &parser{lex: newLexer(s)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("filterexpr: unexpected trailing input at position %d", p.tok.pos)
	}
	return optimize(expr), nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseDiff()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseDiff()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseDiff() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokDiff {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: "diff", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("filterexpr: expected ')' at position %d", p.tok.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		return p.parsePredicate()
	default:
		return nil, fmt.Errorf("filterexpr: expected a predicate or '(' at position %d", p.tok.pos)
	}
}

func (p *parser) parsePredicate() (Expr, error) {
	name := p.tok.text
	namePos := p.tok.pos

	switch name {
	case "all":
		return p.parseNiladic(All{})
	case "none":
		return p.parseNiladic(None{})
	}

	kind, ok := predKindByName(name)
	if !ok {
		return nil, fmt.Errorf("filterexpr: unknown predicate %q at position %d", name, namePos)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokLParen {
		return nil, fmt.Errorf("filterexpr: expected '(' after %q at position %d", name, p.tok.pos)
	}

	raw, quoted, isRegex, err := p.lex.scanArg()
	if err != nil {
		return nil, err
	}

	matcher, err := buildMatcher(raw, quoted, isRegex, kind)
	if err != nil {
		return nil, err
	}

	// Re-lex from right after the argument: scanArg stopped at the closing
	// delimiter or ')'. For quoted/regex forms the closing ')' still needs
	// consuming.
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokRParen {
		return nil, fmt.Errorf("filterexpr: expected ')' closing %s(...) at position %d", name, p.tok.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	return Pred{Kind: kind, Matcher: matcher}, nil
}

func (p *parser) parseNiladic(e Expr) (Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokLParen {
		return nil, fmt.Errorf("filterexpr: expected '(' at position %d", p.tok.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokRParen {
		return nil, fmt.Errorf("filterexpr: expected ')' at position %d", p.tok.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return e, nil
}

func predKindByName(name string) (PredKind, bool) {
	switch name {
	case "package":
		return PredPackage, true
	case "kind":
		return PredKindOf, true
	case "binary":
		return PredBinary, true
	case "test":
		return PredTestName, true
	case "platform":
		return PredPlatform, true
	default:
		return "", false
	}
}

func buildMatcher(raw string, quoted, isRegex bool, kind PredKind) (Matcher, error) {
	switch {
	case isRegex:
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("filterexpr: invalid regex %q: %w", raw, err)
		}
		return RegexMatcher{Re: re}, nil
	case quoted:
		return SubstringMatcher{Value: raw}, nil
	case kind == PredKindOf || kind == PredPlatform:
		// kind() and platform() take a small closed vocabulary; exact match.
		return ExactMatcher{Value: raw}, nil
	default:
		return SubstringMatcher{Value: raw}, nil
	}
}
