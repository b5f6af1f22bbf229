package parser

import (
	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/config"
	"github.com/xplshn/consolite-compiler/internal/diag"
)

// constVal is either a plain 16-bit value or a reference to a constant-
// initialized global array awaiting an index operation; only the array's
// *static initializer* is ever visible here (open question in §9: the
// constant evaluator sees initializers only, never a later mutated value).
type constVal struct {
	isArray bool
	global  *ast.Global
	value   uint16
}

func boolU16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// EvaluateConst implements the constant evaluator (C): walks the postfix
// sequence with a value stack, per §4.5.
func EvaluateConst(e *ast.Expr, tables *SymbolTables, cfg *config.Config, sink diag.Sink) {
	var stack []constVal
	isConst := true

	pop := func() constVal {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

evalLoop:
	for _, a := range e.Postfix {
		switch a.Kind {
		case ast.AtomLiteral:
			stack = append(stack, constVal{value: a.Literal})

		case ast.AtomGlobal:
			g := tables.Globals[a.Name]
			if !g.HasInit {
				// No explicit initializer: this global is ordinary mutable
				// state, not a known compile-time value, even though it is
				// zero-filled at load. Only an explicitly initialized
				// global's *static initializer* is visible to folding.
				isConst = false
				break evalLoop
			}
			if g.Type.IsArray {
				stack = append(stack, constVal{isArray: true, global: g})
			} else {
				stack = append(stack, constVal{value: g.Scalar})
			}

		case ast.AtomParam, ast.AtomLocal, ast.AtomCall:
			isConst = false
			break evalLoop

		case ast.AtomOperator:
			if a.Unary {
				if a.Op == ast.OpAddrOf || a.Op == ast.OpDeref {
					isConst = false
					break evalLoop
				}
				rhs := pop()
				if rhs.isArray {
					isConst = false
					break evalLoop
				}
				var v uint16
				switch a.Op {
				case ast.OpNeg:
					v = -rhs.value
				case ast.OpPos:
					v = rhs.value
				case ast.OpNot:
					v = boolU16(rhs.value == 0)
				case ast.OpComplement:
					v = ^rhs.value
				}
				stack = append(stack, constVal{value: v})
				continue
			}

			if a.Op == ast.OpAssign {
				isConst = false
				break evalLoop
			}
			rhs := pop()
			lhs := pop()

			if a.Op == ast.OpIndex {
				if !lhs.isArray || rhs.isArray {
					isConst = false
					break evalLoop
				}
				idx := int(rhs.value)
				if idx < 0 || idx >= len(lhs.global.Array) {
					if cfg == nil || cfg.IsEnabled(config.WarnOOBIndex) {
						if sink != nil {
							sink.Warn(a.Line, "array index %d is out of bounds for '%s'", idx, lhs.global.Name)
						}
					}
					isConst = false
					break evalLoop
				}
				stack = append(stack, constVal{value: lhs.global.Array[idx]})
				continue
			}

			if lhs.isArray || rhs.isArray {
				isConst = false
				break evalLoop
			}
			var v uint16
			switch a.Op {
			case ast.OpAdd:
				v = lhs.value + rhs.value
			case ast.OpSub:
				v = lhs.value - rhs.value
			case ast.OpMul:
				v = lhs.value * rhs.value
			case ast.OpDiv:
				if rhs.value == 0 {
					if cfg == nil || cfg.IsEnabled(config.WarnDivByZero) {
						if sink != nil {
							sink.Warn(a.Line, "division by zero")
						}
					}
					v = 0xFFFF
				} else {
					v = lhs.value / rhs.value
				}
			case ast.OpRem:
				if rhs.value == 0 {
					if cfg == nil || cfg.IsEnabled(config.WarnDivByZero) {
						if sink != nil {
							sink.Warn(a.Line, "modulus by zero")
						}
					}
					v = 0xFFFF
				} else {
					v = lhs.value % rhs.value
				}
			case ast.OpShl:
				v = lhs.value << rhs.value
			case ast.OpShr:
				v = lhs.value >> rhs.value
			case ast.OpLt:
				v = boolU16(lhs.value < rhs.value)
			case ast.OpLte:
				v = boolU16(lhs.value <= rhs.value)
			case ast.OpGt:
				v = boolU16(lhs.value > rhs.value)
			case ast.OpGte:
				v = boolU16(lhs.value >= rhs.value)
			case ast.OpEq:
				v = boolU16(lhs.value == rhs.value)
			case ast.OpNeq:
				v = boolU16(lhs.value != rhs.value)
			case ast.OpBitAnd:
				v = lhs.value & rhs.value
			case ast.OpBitXor:
				v = lhs.value ^ rhs.value
			case ast.OpBitOr:
				v = lhs.value | rhs.value
			case ast.OpAnd:
				v = boolU16(lhs.value != 0 && rhs.value != 0)
			case ast.OpOr:
				v = boolU16(lhs.value != 0 || rhs.value != 0)
			}
			stack = append(stack, constVal{value: v})
		}
	}

	if isConst && len(stack) == 1 && !stack[0].isArray {
		e.IsConst = true
		e.ConstValue = stack[0].value
		return
	}
	e.IsConst = false
}
