package parser

import (
	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/diag"
	"github.com/xplshn/consolite-compiler/internal/lexer"
	"github.com/xplshn/consolite-compiler/internal/token"
)

// prevClass is the shunting-yard `prev` classifier: one of
// ∅, "(", ")", "op", "val".
type prevClass int

const (
	prevNone prevClass = iota
	prevLParen
	prevRParen
	prevOp
	prevVal
)

const unaryPrec = 2

// binaryOpInfo reports the binary meaning of a token kind, if any.
func binaryOpInfo(k token.Kind) (op ast.Op, prec int, leftAssoc, ok bool) {
	switch k {
	case token.Star:
		return ast.OpMul, 3, true, true
	case token.Slash:
		return ast.OpDiv, 3, true, true
	case token.Rem:
		return ast.OpRem, 3, true, true
	case token.Plus:
		return ast.OpAdd, 4, true, true
	case token.Minus:
		return ast.OpSub, 4, true, true
	case token.Shl:
		return ast.OpShl, 5, true, true
	case token.Shr:
		return ast.OpShr, 5, true, true
	case token.Lt:
		return ast.OpLt, 6, true, true
	case token.Lte:
		return ast.OpLte, 6, true, true
	case token.Gt:
		return ast.OpGt, 6, true, true
	case token.Gte:
		return ast.OpGte, 6, true, true
	case token.EqEq:
		return ast.OpEq, 7, true, true
	case token.Neq:
		return ast.OpNeq, 7, true, true
	case token.Amp:
		return ast.OpBitAnd, 8, true, true
	case token.Caret:
		return ast.OpBitXor, 9, true, true
	case token.Pipe:
		return ast.OpBitOr, 10, true, true
	case token.AndAnd:
		return ast.OpAnd, 11, true, true
	case token.OrOr:
		return ast.OpOr, 12, true, true
	case token.Assign:
		return ast.OpAssign, 13, false, true
	}
	return 0, 0, false, false
}

// unaryOpInfo reports the unary meaning of a token kind, if any. All
// unary operators share precedence 2 and right-to-left associativity.
func unaryOpInfo(k token.Kind) (op ast.Op, ok bool) {
	switch k {
	case token.Minus:
		return ast.OpNeg, true
	case token.Plus:
		return ast.OpPos, true
	case token.Bang:
		return ast.OpNot, true
	case token.Tilde:
		return ast.OpComplement, true
	case token.Star:
		return ast.OpDeref, true
	case token.Amp:
		return ast.OpAddrOf, true
	}
	return 0, false
}

func isOperatorKind(k token.Kind) bool {
	switch k {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Rem,
		token.Amp, token.Pipe, token.Caret, token.Assign, token.Lt, token.Gt,
		token.Bang, token.Tilde, token.OrOr, token.AndAnd, token.EqEq,
		token.Neq, token.Lte, token.Gte, token.Shl, token.Shr:
		return true
	}
	return false
}

// stackEntry is either a paren/bracket marker (for matching) or a
// resolved operator awaiting its operands to reach the output.
type stackEntry struct {
	isParen   bool
	parenCh   byte // '(' or '['
	op        ast.Op
	unary     bool
	prec      int
	leftAssoc bool
	line      int
}

// ParseExpr implements the expression parser (E): shunting-yard with
// three stacks (output/operator/paren) and a `prev` classifier, per §4.3.
func (p *Parser) ParseExpr() (*ast.Expr, *diag.Error) {
	var output []ast.Atom
	var opStack []stackEntry
	var parenStack []byte
	prev := prevNone

	popForPrecedence := func(prec int, leftAssoc bool) {
		for len(opStack) > 0 {
			top := opStack[len(opStack)-1]
			if top.isParen {
				break
			}
			if top.prec < prec || (top.prec == prec && leftAssoc) {
				output = append(output, atomFromEntry(top))
				opStack = opStack[:len(opStack)-1]
				continue
			}
			break
		}
	}

	finish := func() (*ast.Expr, *diag.Error) {
		for len(opStack) > 0 {
			top := opStack[len(opStack)-1]
			opStack = opStack[:len(opStack)-1]
			if top.isParen {
				return nil, diag.Errorf(top.line, "mismatched '%c' in expression", top.parenCh)
			}
			output = append(output, atomFromEntry(top))
		}
		return &ast.Expr{Postfix: output}, nil
	}

	for {
		tok := p.cur

		switch tok.Kind {
		case token.LParen:
			if !(prev == prevNone || prev == prevLParen || prev == prevOp) {
				return nil, diag.Errorf(tok.Line, "unexpected '(' in expression")
			}
			opStack = append(opStack, stackEntry{isParen: true, parenCh: '(', line: tok.Line})
			parenStack = append(parenStack, '(')
			prev = prevLParen
			p.advance()
			continue

		case token.LBracket:
			if !(prev == prevRParen || prev == prevVal) {
				return nil, diag.Errorf(tok.Line, "unexpected '[' in expression")
			}
			popForPrecedence(1, true)
			opStack = append(opStack, stackEntry{op: ast.OpIndex, unary: false, prec: 1, leftAssoc: true, line: tok.Line})
			opStack = append(opStack, stackEntry{isParen: true, parenCh: '[', line: tok.Line})
			parenStack = append(parenStack, '[')
			prev = prevLParen
			p.advance()
			continue

		case token.RParen:
			if len(parenStack) == 0 {
				if prev == prevRParen || prev == prevVal {
					return finish()
				}
				return nil, diag.Errorf(tok.Line, "unexpected ')' in expression")
			}
			if !(prev == prevRParen || prev == prevVal) {
				return nil, diag.Errorf(tok.Line, "unexpected ')' in expression")
			}
			if parenStack[len(parenStack)-1] != '(' {
				return nil, diag.Errorf(tok.Line, "mismatched ')'")
			}
			if err := popToMarker(&opStack, &output); err != nil {
				return nil, err
			}
			parenStack = parenStack[:len(parenStack)-1]
			prev = prevRParen
			p.advance()
			continue

		case token.RBracket:
			if len(parenStack) == 0 {
				if prev == prevRParen || prev == prevVal {
					return finish()
				}
				return nil, diag.Errorf(tok.Line, "unexpected ']' in expression")
			}
			if !(prev == prevRParen || prev == prevVal) {
				return nil, diag.Errorf(tok.Line, "unexpected ']' in expression")
			}
			if parenStack[len(parenStack)-1] != '[' {
				return nil, diag.Errorf(tok.Line, "mismatched ']'")
			}
			if err := popToMarker(&opStack, &output); err != nil {
				return nil, err
			}
			parenStack = parenStack[:len(parenStack)-1]
			if len(opStack) == 0 || opStack[len(opStack)-1].isParen {
				return nil, diag.Errorf(tok.Line, "internal: missing index operator")
			}
			idx := opStack[len(opStack)-1]
			opStack = opStack[:len(opStack)-1]
			output = append(output, atomFromEntry(idx))
			prev = prevRParen
			p.advance()
			continue

		case token.Number:
			if !(prev == prevNone || prev == prevLParen || prev == prevOp) {
				return nil, diag.Errorf(tok.Line, "unexpected numeric literal")
			}
			val, ok := lexer.ParseNumber(tok.Text)
			if !ok {
				return nil, diag.Errorf(tok.Line, "invalid numeric literal '%s'", tok.Text)
			}
			output = append(output, ast.Atom{Kind: ast.AtomLiteral, Literal: val, Line: tok.Line})
			prev = prevVal
			p.advance()
			continue

		case token.Ident:
			if !(prev == prevNone || prev == prevLParen || prev == prevOp) {
				return nil, diag.Errorf(tok.Line, "unexpected identifier '%s'", tok.Text)
			}
			name := tok.Text
			line := tok.Line
			res := p.tables.Lookup(name)
			switch res.Kind {
			case LookupGlobal:
				output = append(output, ast.Atom{Kind: ast.AtomGlobal, Name: name, Line: line})
				p.advance()
			case LookupParam:
				output = append(output, ast.Atom{Kind: ast.AtomParam, Name: name, Line: line})
				p.advance()
			case LookupLocal:
				output = append(output, ast.Atom{Kind: ast.AtomLocal, Name: name, Line: line})
				p.advance()
			case LookupFunction:
				if res.Function.ReturnType.Void {
					return nil, diag.Errorf(line, "cannot use void function '%s' in an expression", name)
				}
				if name == "main" {
					return nil, diag.Errorf(line, "'main' may not be called explicitly")
				}
				p.advance()
				call, err := p.parseCallArgs(name, res.Function, line)
				if err != nil {
					return nil, err
				}
				output = append(output, ast.Atom{Kind: ast.AtomCall, Call: call, Line: line})
			default:
				return nil, diag.Errorf(line, "undeclared identifier '%s'", name)
			}
			prev = prevVal
			continue
		}

		if isOperatorKind(tok.Kind) {
			binOp, binPrec, binLeftAssoc, canBinary := binaryOpInfo(tok.Kind)
			unOp, canUnary := unaryOpInfo(tok.Kind)
			isBinaryCtx := prev == prevRParen || prev == prevVal
			isUnaryCtx := prev == prevNone || prev == prevLParen || prev == prevOp

			switch {
			case canBinary && isBinaryCtx:
				popForPrecedence(binPrec, binLeftAssoc)
				opStack = append(opStack, stackEntry{op: binOp, unary: false, prec: binPrec, leftAssoc: binLeftAssoc, line: tok.Line})
				prev = prevOp
			case canUnary && isUnaryCtx:
				popForPrecedence(unaryPrec, false)
				opStack = append(opStack, stackEntry{op: unOp, unary: true, prec: unaryPrec, leftAssoc: false, line: tok.Line})
				prev = prevOp
			default:
				return nil, diag.Errorf(tok.Line, "operator '%s' cannot be used here", tok.Kind)
			}
			p.advance()
			continue
		}

		// Any other token: valid terminal only if the paren stack is
		// empty and we're in a val/")" state.
		if len(parenStack) == 0 && (prev == prevRParen || prev == prevVal) {
			return finish()
		}
		return nil, diag.Errorf(tok.Line, "unexpected token %s in expression", tok.Kind)
	}
}

func popToMarker(opStack *[]stackEntry, output *[]ast.Atom) *diag.Error {
	for {
		if len(*opStack) == 0 {
			return diag.Errorf(0, "mismatched parenthesis")
		}
		top := (*opStack)[len(*opStack)-1]
		*opStack = (*opStack)[:len(*opStack)-1]
		if top.isParen {
			return nil
		}
		*output = append(*output, atomFromEntry(top))
	}
}

func atomFromEntry(e stackEntry) ast.Atom {
	return ast.Atom{Kind: ast.AtomOperator, Op: e.op, Unary: e.unary, Line: e.line}
}

// parseCallArgs parses the parenthesized, comma-separated argument list
// of a function call whose name token has already been consumed.
func (p *Parser) parseCallArgs(name string, fn *ast.Function, line int) (*ast.Call, *diag.Error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []*ast.Expr
	if !p.check(token.RParen) {
		for {
			arg, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if len(args) != len(fn.Params) {
		return nil, diag.Errorf(line, "'%s' expects %d argument(s), got %d", name, len(fn.Params), len(args))
	}
	return &ast.Call{Callee: name, Args: args, IsBuiltin: fn.IsBuiltin}, nil
}
