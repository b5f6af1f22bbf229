package codegen

import (
	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/diag"
)

// genCall lowers a call atom (built-in or user function), leaving an
// operand the enclosing expression can continue to work with. Void
// calls return a harmless Literal placeholder since the parser only
// permits them as standalone void-call statements, whose result is
// always discarded.
func (c *Context) genCall(call *ast.Call) (ast.Operand, *diag.Error) {
	fn := c.tables.Functions[call.Callee]
	if fn.IsBuiltin {
		return c.genBuiltinCall(fn, call)
	}
	return c.genUserCall(fn, call)
}

func (c *Context) evalArgToReg(e *ast.Expr, reg string) (string, *diag.Error) {
	op, err := c.genExpr(e)
	if err != nil {
		return "", err
	}
	return c.valueToReg(op, reg), nil
}

var voidOperand = ast.Operand{Kind: ast.OperandLiteral, Literal: 0}

func (c *Context) genBuiltinCall(fn *ast.Function, call *ast.Call) (ast.Operand, *diag.Error) {
	switch fn.BuiltinMnemonic {
	case "COLOR":
		reg, err := c.evalArgToReg(call.Args[0], scratch1)
		if err != nil {
			return ast.Operand{}, err
		}
		c.em.WriteInst("COLOR %s", reg)
		return voidOperand, nil

	case "PIXEL":
		r0, err := c.evalArgToReg(call.Args[0], scratch1)
		if err != nil {
			return ast.Operand{}, err
		}
		r1, err := c.evalArgToReg(call.Args[1], scratch2)
		if err != nil {
			return ast.Operand{}, err
		}
		c.em.WriteInst("PIXEL %s %s", r0, r1)
		return voidOperand, nil

	case "TIMERST":
		c.em.WriteInst("TIMERST")
		return voidOperand, nil

	case "TIME":
		c.em.WriteInst("TIME %s", scratch1)
		c.em.WriteInst("PUSH %s", scratch1)
		return ast.Operand{Kind: ast.OperandValue}, nil

	case "RND":
		c.em.WriteInst("RND %s", scratch1)
		c.em.WriteInst("PUSH %s", scratch1)
		return ast.Operand{Kind: ast.OperandValue}, nil

	case "INPUT":
		reg, err := c.evalArgToReg(call.Args[0], scratch2)
		if err != nil {
			return ast.Operand{}, err
		}
		c.em.WriteInst("INPUT %s %s", scratch1, reg)
		c.em.WriteInst("PUSH %s", scratch1)
		return ast.Operand{Kind: ast.OperandValue}, nil
	}
	return ast.Operand{}, diag.Errorf(0, "internal: unknown built-in '%s'", fn.BuiltinMnemonic)
}

// genUserCall saves the caller's live A..D parameter registers, loads
// the first four arguments into A..D, pushes any overflow arguments
// right-to-left, calls, and restores the saved registers.
func (c *Context) genUserCall(fn *ast.Function, call *ast.Call) (ast.Operand, *diag.Error) {
	var saved []string
	for _, p := range c.fn.Params {
		if p.Loc.Kind == ast.LocRegister {
			saved = append(saved, p.Loc.Reg)
		}
	}
	for _, r := range saved {
		c.em.WriteInst("PUSH %s", r)
	}

	for i, argExpr := range call.Args {
		if i >= len(paramRegs) {
			break
		}
		if _, err := c.evalArgToReg(argExpr, paramRegs[i]); err != nil {
			return ast.Operand{}, err
		}
	}
	for i := len(call.Args) - 1; i >= len(paramRegs); i-- {
		reg, err := c.evalArgToReg(call.Args[i], scratch1)
		if err != nil {
			return ast.Operand{}, err
		}
		c.em.WriteInst("PUSH %s", reg)
	}

	c.em.WriteInst("CALL %s", fn.Name)

	for i := len(saved) - 1; i >= 0; i-- {
		c.em.WriteInst("POP %s", saved[i])
	}

	if fn.ReturnType.Void {
		return voidOperand, nil
	}
	c.em.WriteInst("PUSH L")
	return ast.Operand{Kind: ast.OperandValue}, nil
}
