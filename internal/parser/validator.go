package parser

import (
	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/diag"
)

type valueKind int

const (
	rvalue valueKind = iota
	lvalue
)

// ValidateExpr implements the expression validator (V): walks the
// postfix sequence with a stack of {rvalue, lvalue} kinds, per §4.4.
func ValidateExpr(e *ast.Expr) *diag.Error {
	var stack []valueKind
	pop := func() valueKind {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for _, a := range e.Postfix {
		switch a.Kind {
		case ast.AtomLiteral, ast.AtomCall:
			stack = append(stack, rvalue)
		case ast.AtomGlobal, ast.AtomParam, ast.AtomLocal:
			stack = append(stack, lvalue)
		case ast.AtomOperator:
			if a.Unary {
				if len(stack) < 1 {
					return diag.Errorf(a.Line, "malformed expression")
				}
				operand := pop()
				switch a.Op {
				case ast.OpAddrOf:
					if operand != lvalue {
						return diag.Errorf(a.Line, "cannot take the address of an r-value")
					}
					stack = append(stack, rvalue)
				case ast.OpDeref:
					stack = append(stack, lvalue)
				default:
					stack = append(stack, rvalue)
				}
			} else {
				if len(stack) < 2 {
					return diag.Errorf(a.Line, "malformed expression")
				}
				rhs := pop()
				lhs := pop()
				switch a.Op {
				case ast.OpAssign:
					if lhs != lvalue {
						return diag.Errorf(a.Line, "left-hand side of assignment must be an l-value")
					}
					stack = append(stack, rvalue)
				case ast.OpIndex:
					_ = rhs
					stack = append(stack, lvalue)
				default:
					stack = append(stack, rvalue)
				}
			}
		}
	}
	if len(stack) != 1 {
		return diag.Errorf(0, "malformed expression")
	}
	return nil
}
