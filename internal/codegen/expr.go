package codegen

import (
	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/diag"
)

// valueToReg materializes an operand's value into dst, per the table in
// the code generator design: Address pops an address and loads through
// it, Register moves, Value pops, Literal loads an immediate.
func (c *Context) valueToReg(op ast.Operand, dst string) string {
	switch op.Kind {
	case ast.OperandAddress:
		c.em.WriteInst("POP %s", dst)
		c.em.WriteInst("LOAD %s %s", dst, dst)
	case ast.OperandRegister:
		if op.Reg != dst {
			c.em.WriteInst("MOV %s %s", dst, op.Reg)
		}
	case ast.OperandValue:
		c.em.WriteInst("POP %s", dst)
	case ast.OperandLiteral:
		c.em.WriteInst("MOVI %s 0x%04x", dst, op.Literal)
	}
	return dst
}

// normalizeBool reduces op to exactly 0 or 1 in dst, for &&/||.
func (c *Context) normalizeBool(op ast.Operand, dst string) {
	reg := c.valueToReg(op, dst)
	trueLbl := c.em.GetUnusedLabel(c.labelPfx + "bool_true")
	endLbl := c.em.GetUnusedLabel(c.labelPfx + "bool_end")
	c.em.WriteInst("TST %s", reg)
	c.em.WriteInst("JNE %s", trueLbl)
	c.em.WriteInst("MOVI %s 0x0000", reg)
	c.em.WriteInst("JMPI %s", endLbl)
	c.em.Label(trueLbl)
	c.em.WriteInst("MOVI %s 0x0001", reg)
	c.em.Label(endLbl)
}

// cmpJump maps each comparison operator to its post-CMP conditional jump.
// The language has no signed type (only uint16, per spec Non-goals), so
// ordering comparisons use the unsigned jumps JB/JBE/JA/JAE rather than a
// signed JLT/JLE/JGT/JGE family the target doesn't define.
var cmpJump = map[ast.Op]string{
	ast.OpLt: "JB", ast.OpLte: "JBE", ast.OpGt: "JA",
	ast.OpGte: "JAE", ast.OpEq: "JEQ", ast.OpNeq: "JNE",
}

// genExpr lowers a postfix expression with an operand stack, per §4.7.
func (c *Context) genExpr(e *ast.Expr) (ast.Operand, *diag.Error) {
	var stack []ast.Operand
	pop := func() ast.Operand {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for _, a := range e.Postfix {
		switch a.Kind {
		case ast.AtomLiteral:
			stack = append(stack, ast.Operand{Kind: ast.OperandLiteral, Literal: a.Literal})

		case ast.AtomGlobal:
			g := c.tables.Globals[a.Name]
			c.em.WriteInst("MOVI %s %s", scratch1, g.Label)
			c.em.WriteInst("PUSH %s", scratch1)
			stack = append(stack, ast.Operand{Kind: ast.OperandAddress})

		case ast.AtomParam:
			p := c.paramByName[a.Name]
			if p.Loc.Kind == ast.LocRegister {
				stack = append(stack, ast.Operand{Kind: ast.OperandRegister, Reg: p.Loc.Reg})
			} else {
				c.loadAddress(p.Loc, scratch1)
				c.em.WriteInst("PUSH %s", scratch1)
				stack = append(stack, ast.Operand{Kind: ast.OperandAddress})
			}

		case ast.AtomLocal:
			l := c.localByName[a.Name]
			if l.Loc.Kind == ast.LocRegister {
				stack = append(stack, ast.Operand{Kind: ast.OperandRegister, Reg: l.Loc.Reg})
			} else {
				c.loadAddress(l.Loc, scratch1)
				c.em.WriteInst("PUSH %s", scratch1)
				stack = append(stack, ast.Operand{Kind: ast.OperandAddress})
			}

		case ast.AtomCall:
			op, err := c.genCall(a.Call)
			if err != nil {
				return ast.Operand{}, err
			}
			stack = append(stack, op)

		case ast.AtomOperator:
			if a.Unary {
				rhs := pop()
				switch a.Op {
				case ast.OpNeg:
					reg := c.valueToReg(rhs, scratch2)
					c.em.WriteInst("MOVI %s 0xffff", scratch3)
					c.em.WriteInst("XOR %s %s", reg, scratch3)
					c.em.WriteInst("MOVI %s 0x0001", scratch3)
					c.em.WriteInst("ADD %s %s", reg, scratch3)
					c.em.WriteInst("PUSH %s", reg)
					stack = append(stack, ast.Operand{Kind: ast.OperandValue})
				case ast.OpPos:
					reg := c.valueToReg(rhs, scratch2)
					c.em.WriteInst("PUSH %s", reg)
					stack = append(stack, ast.Operand{Kind: ast.OperandValue})
				case ast.OpComplement:
					reg := c.valueToReg(rhs, scratch2)
					c.em.WriteInst("MOVI %s 0xffff", scratch3)
					c.em.WriteInst("XOR %s %s", reg, scratch3)
					c.em.WriteInst("PUSH %s", reg)
					stack = append(stack, ast.Operand{Kind: ast.OperandValue})
				case ast.OpNot:
					reg := c.valueToReg(rhs, scratch2)
					trueLbl := c.em.GetUnusedLabel(c.labelPfx + "not_true")
					endLbl := c.em.GetUnusedLabel(c.labelPfx + "not_end")
					c.em.WriteInst("TST %s", reg)
					c.em.WriteInst("JEQ %s", trueLbl)
					c.em.WriteInst("MOVI %s 0x0000", reg)
					c.em.WriteInst("JMPI %s", endLbl)
					c.em.Label(trueLbl)
					c.em.WriteInst("MOVI %s 0x0001", reg)
					c.em.Label(endLbl)
					c.em.WriteInst("PUSH %s", reg)
					stack = append(stack, ast.Operand{Kind: ast.OperandValue})
				case ast.OpAddrOf:
					// rhs is already an Address operand (address-taken
					// locals/params are always frame-resident); the
					// address is already the value we want.
					_ = rhs
					stack = append(stack, ast.Operand{Kind: ast.OperandValue})
				case ast.OpDeref:
					reg := c.valueToReg(rhs, scratch2)
					c.em.WriteInst("PUSH %s", reg)
					stack = append(stack, ast.Operand{Kind: ast.OperandAddress})
				}
				continue
			}

			rhs := pop()
			lhs := pop()
			switch a.Op {
			case ast.OpAssign:
				reg := c.valueToReg(rhs, scratch3)
				switch lhs.Kind {
				case ast.OperandAddress:
					c.em.WriteInst("POP %s", scratch2)
					c.em.WriteInst("STOR %s %s", reg, scratch2)
				case ast.OperandRegister:
					if lhs.Reg != reg {
						c.em.WriteInst("MOV %s %s", lhs.Reg, reg)
					}
				default:
					return ast.Operand{}, diag.Errorf(a.Line, "left-hand side of assignment is not assignable")
				}
				c.em.WriteInst("PUSH %s", reg)
				stack = append(stack, ast.Operand{Kind: ast.OperandValue})

			case ast.OpIndex:
				idxReg := c.valueToReg(rhs, scratch3)
				baseReg := c.valueToReg(lhs, scratch2)
				c.em.WriteInst("SHL %s 0x0001", idxReg)
				c.em.WriteInst("ADD %s %s", baseReg, idxReg)
				c.em.WriteInst("PUSH %s", baseReg)
				stack = append(stack, ast.Operand{Kind: ast.OperandAddress})

			case ast.OpAnd:
				c.normalizeBool(lhs, scratch2)
				c.normalizeBool(rhs, scratch3)
				c.em.WriteInst("AND %s %s", scratch2, scratch3)
				c.em.WriteInst("PUSH %s", scratch2)
				stack = append(stack, ast.Operand{Kind: ast.OperandValue})

			case ast.OpOr:
				c.normalizeBool(lhs, scratch2)
				c.normalizeBool(rhs, scratch3)
				c.em.WriteInst("OR %s %s", scratch2, scratch3)
				c.em.WriteInst("PUSH %s", scratch2)
				stack = append(stack, ast.Operand{Kind: ast.OperandValue})

			case ast.OpRem:
				rReg := c.valueToReg(rhs, scratch3)
				lReg := c.valueToReg(lhs, scratch2)
				c.em.WriteInst("MOV %s %s", scratch1, lReg)
				c.em.WriteInst("DIV %s %s", scratch1, rReg)
				c.em.WriteInst("MUL %s %s", scratch1, rReg)
				c.em.WriteInst("SUB %s %s", lReg, scratch1)
				c.em.WriteInst("PUSH %s", lReg)
				stack = append(stack, ast.Operand{Kind: ast.OperandValue})

			default:
				if mnem, ok := arithMnemonic[a.Op]; ok {
					rReg := c.valueToReg(rhs, scratch3)
					lReg := c.valueToReg(lhs, scratch2)
					c.em.WriteInst("%s %s %s", mnem, lReg, rReg)
					c.em.WriteInst("PUSH %s", lReg)
					stack = append(stack, ast.Operand{Kind: ast.OperandValue})
					continue
				}
				if jmp, ok := cmpJump[a.Op]; ok {
					rReg := c.valueToReg(rhs, scratch3)
					lReg := c.valueToReg(lhs, scratch2)
					c.em.WriteInst("CMP %s %s", lReg, rReg)
					trueLbl := c.em.GetUnusedLabel(c.labelPfx + "cmp_true")
					endLbl := c.em.GetUnusedLabel(c.labelPfx + "cmp_end")
					c.em.WriteInst("%s %s", jmp, trueLbl)
					c.em.WriteInst("MOVI %s 0x0000", lReg)
					c.em.WriteInst("JMPI %s", endLbl)
					c.em.Label(trueLbl)
					c.em.WriteInst("MOVI %s 0x0001", lReg)
					c.em.Label(endLbl)
					c.em.WriteInst("PUSH %s", lReg)
					stack = append(stack, ast.Operand{Kind: ast.OperandValue})
					continue
				}
				return ast.Operand{}, diag.Errorf(a.Line, "internal: unhandled operator %s", a.Op)
			}
		}
	}

	if len(stack) != 1 {
		return ast.Operand{}, diag.Errorf(0, "internal: malformed expression during codegen")
	}
	return stack[0], nil
}

var arithMnemonic = map[ast.Op]string{
	ast.OpAdd: "ADD", ast.OpSub: "SUB", ast.OpMul: "MUL", ast.OpDiv: "DIV",
	ast.OpShl: "SHL", ast.OpShr: "SHRL", ast.OpBitAnd: "AND", ast.OpBitXor: "XOR",
	ast.OpBitOr: "OR",
}

// genExprDiscard evaluates e purely for side effects, dropping any
// pending machine-stack value the result left behind.
func (c *Context) genExprDiscard(e *ast.Expr) *diag.Error {
	op, err := c.genExpr(e)
	if err != nil {
		return err
	}
	if op.Kind == ast.OperandAddress || op.Kind == ast.OperandValue {
		c.em.WriteInst("POP %s", scratch1)
	}
	return nil
}
