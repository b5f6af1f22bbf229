package codegen

import (
	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/diag"
)

// genStmt lowers one statement, per §4.7's statement table: if/for/while
// mint their own labels; break/continue jump to the nearest enclosing
// pair threaded on c.breakStack/c.contStack; return jumps to the
// function's single end label so the epilogue always runs.
func (c *Context) genStmt(s *ast.Stmt) *diag.Error {
	switch s.Kind {
	case ast.StmtCompound:
		for _, inner := range s.Data.(*ast.CompoundStmt).Stmts {
			if err := c.genStmt(inner); err != nil {
				return err
			}
		}

	case ast.StmtNull, ast.StmtLocalDecl:
		// Local initializers are emitted once, up front, in genFunction.

	case ast.StmtExpr, ast.StmtVoidCall:
		return c.genExprDiscard(s.Data.(*ast.ExprStmt).Expr)

	case ast.StmtIf:
		return c.genIf(s.Data.(*ast.IfStmt))

	case ast.StmtWhile:
		return c.genWhile(s.Data.(*ast.WhileStmt))

	case ast.StmtDoWhile:
		return c.genDoWhile(s.Data.(*ast.DoWhileStmt))

	case ast.StmtFor:
		return c.genFor(s.Data.(*ast.ForStmt))

	case ast.StmtBreak:
		c.em.WriteInst("JMPI %s", c.breakStack[len(c.breakStack)-1])

	case ast.StmtContinue:
		c.em.WriteInst("JMPI %s", c.contStack[len(c.contStack)-1])

	case ast.StmtReturn:
		d := s.Data.(*ast.ReturnStmt)
		if d.HasExpr {
			op, err := c.genExpr(d.Expr)
			if err != nil {
				return err
			}
			c.valueToReg(op, "L")
		}
		c.em.WriteInst("JMPI %s", c.endLabel)

	case ast.StmtLabel:
		d := s.Data.(*ast.LabelStmt)
		c.em.Label(c.fn.Labels[d.Name].AsmLabel)

	case ast.StmtGoto:
		d := s.Data.(*ast.GotoStmt)
		c.em.WriteInst("JMPI %s", c.fn.Labels[d.Name].AsmLabel)
	}
	return nil
}

func (c *Context) genIf(d *ast.IfStmt) *diag.Error {
	op, err := c.genExpr(d.Cond)
	if err != nil {
		return err
	}
	reg := c.valueToReg(op, scratch1)
	c.em.WriteInst("TST %s", reg)
	falseLbl := c.em.GetUnusedLabel(c.labelPfx + "if_false")
	c.em.WriteInst("JEQ %s", falseLbl)

	if err := c.genStmt(d.Then); err != nil {
		return err
	}
	if d.Else != nil {
		endLbl := c.em.GetUnusedLabel(c.labelPfx + "if_end")
		c.em.WriteInst("JMPI %s", endLbl)
		c.em.Label(falseLbl)
		if err := c.genStmt(d.Else); err != nil {
			return err
		}
		c.em.Label(endLbl)
	} else {
		c.em.Label(falseLbl)
	}
	return nil
}

func (c *Context) pushLoopLabels(breakLbl, contLbl string) {
	c.breakStack = append(c.breakStack, breakLbl)
	c.contStack = append(c.contStack, contLbl)
}

func (c *Context) popLoopLabels() {
	c.breakStack = c.breakStack[:len(c.breakStack)-1]
	c.contStack = c.contStack[:len(c.contStack)-1]
}

func (c *Context) genWhile(d *ast.WhileStmt) *diag.Error {
	contLbl := c.em.GetUnusedLabel(c.labelPfx + "while_cont")
	breakLbl := c.em.GetUnusedLabel(c.labelPfx + "while_end")

	c.em.Label(contLbl)
	op, err := c.genExpr(d.Cond)
	if err != nil {
		return err
	}
	reg := c.valueToReg(op, scratch1)
	c.em.WriteInst("TST %s", reg)
	c.em.WriteInst("JEQ %s", breakLbl)

	c.pushLoopLabels(breakLbl, contLbl)
	err = c.genStmt(d.Body)
	c.popLoopLabels()
	if err != nil {
		return err
	}

	c.em.WriteInst("JMPI %s", contLbl)
	c.em.Label(breakLbl)
	return nil
}

func (c *Context) genDoWhile(d *ast.DoWhileStmt) *diag.Error {
	contLbl := c.em.GetUnusedLabel(c.labelPfx + "do_cont")
	breakLbl := c.em.GetUnusedLabel(c.labelPfx + "do_end")

	c.em.Label(contLbl)
	c.pushLoopLabels(breakLbl, contLbl)
	err := c.genStmt(d.Body)
	c.popLoopLabels()
	if err != nil {
		return err
	}

	op, err := c.genExpr(d.Cond)
	if err != nil {
		return err
	}
	reg := c.valueToReg(op, scratch1)
	c.em.WriteInst("TST %s", reg)
	c.em.WriteInst("JNE %s", contLbl)
	c.em.Label(breakLbl)
	return nil
}

func (c *Context) genFor(d *ast.ForStmt) *diag.Error {
	for _, e := range d.Init {
		if err := c.genExprDiscard(e); err != nil {
			return err
		}
	}

	startLbl := c.em.GetUnusedLabel(c.labelPfx + "for_start")
	contLbl := c.em.GetUnusedLabel(c.labelPfx + "for_cont")
	breakLbl := c.em.GetUnusedLabel(c.labelPfx + "for_end")

	c.em.Label(startLbl)
	if d.Cond != nil {
		op, err := c.genExpr(d.Cond)
		if err != nil {
			return err
		}
		reg := c.valueToReg(op, scratch1)
		c.em.WriteInst("TST %s", reg)
		c.em.WriteInst("JEQ %s", breakLbl)
	}

	c.pushLoopLabels(breakLbl, contLbl)
	err := c.genStmt(d.Body)
	c.popLoopLabels()
	if err != nil {
		return err
	}

	c.em.Label(contLbl)
	for _, e := range d.Post {
		if err := c.genExprDiscard(e); err != nil {
			return err
		}
	}
	c.em.WriteInst("JMPI %s", startLbl)
	c.em.Label(breakLbl)
	return nil
}
