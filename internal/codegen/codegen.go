// Package codegen implements the code generator (G): frame layout,
// register allocation, and direct-to-assembly-text lowering of the
// parsed program, plus the bootloader and globals emission (component O
// lives in internal/emitter; this package drives it).
package codegen

import (
	"fmt"

	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/config"
	"github.com/xplshn/consolite-compiler/internal/diag"
	"github.com/xplshn/consolite-compiler/internal/emitter"
	"github.com/xplshn/consolite-compiler/internal/parser"
)

var paramRegs = []string{"A", "B", "C", "D"}
var localRegs = []string{"E", "F", "G", "H", "I", "J", "K"}

const (
	scratch1 = "L" // also the function return-value register
	scratch2 = "M"
	scratch3 = "N"
)

// Context is the per-compilation codegen state: the emitter being
// written to, the program's symbol tables, and the small amount of
// per-function state (current frame, loop label targets) threaded
// through statement and expression lowering.
type Context struct {
	em     *emitter.Emitter
	tables *parser.SymbolTables
	cfg    *config.Config
	sink   diag.Sink

	fn         *ast.Function
	labelPfx   string
	endLabel   string
	savedRegs  []string // pushed in prologue order; popped in reverse in epilogue
	breakStack []string
	contStack  []string

	paramByName map[string]*ast.Param
	localByName map[string]*ast.Local
}

func NewContext(tables *parser.SymbolTables, cfg *config.Config, sink diag.Sink) *Context {
	return &Context{em: emitter.New(), tables: tables, cfg: cfg, sink: sink}
}

// addImm lowers `dst += imm` (or `dst -= -imm`) through tmp, since the
// target has no immediate-operand arithmetic instruction, only ADD/SUB
// between two registers and MOVI to load an immediate into a register.
func (c *Context) addImm(dst string, imm int, tmp string) {
	if imm < 0 {
		c.em.WriteInst("MOVI %s 0x%04x", tmp, uint16(-imm))
		c.em.WriteInst("SUB %s %s", dst, tmp)
		return
	}
	c.em.WriteInst("MOVI %s 0x%04x", tmp, uint16(imm))
	c.em.WriteInst("ADD %s %s", dst, tmp)
}

// otherScratch picks a scratch register distinct from every name in avoid,
// for holding an immediate operand alongside a caller-supplied register
// whose identity (and thus potential aliasing) isn't known statically.
func otherScratch(avoid ...string) string {
	skip := make(map[string]bool, len(avoid))
	for _, a := range avoid {
		skip[a] = true
	}
	for _, s := range []string{scratch1, scratch2, scratch3} {
		if !skip[s] {
			return s
		}
	}
	return scratch1
}

// Generate lowers the whole program and returns the assembly text.
func Generate(prog *ast.Program, tables *parser.SymbolTables, cfg *config.Config, sink diag.Sink) (string, *diag.Error) {
	c := NewContext(tables, cfg, sink)

	c.em.Writeln("        MOVI SP stack_start")
	c.em.Writeln("        CALL main")
	progFinished := c.em.GetUnusedLabel("program_finished")
	c.em.Label(progFinished)
	c.em.Writeln(fmt.Sprintf("        JMPI %s", progFinished))

	for _, g := range prog.Globals {
		c.emitGlobal(g)
	}

	for _, fn := range prog.Functions {
		if fn.IsBuiltin {
			continue
		}
		if err := c.genFunction(fn); err != nil {
			return "", err
		}
	}

	c.em.Label("stack_start")

	return c.em.String(), nil
}

func (c *Context) emitGlobal(g *ast.Global) {
	if g.Type.IsArray {
		dataLabel := g.Label + "_data"
		c.em.WriteDataRef(g.Label, dataLabel)
		c.em.WriteData(dataLabel, g.Array)
		return
	}
	c.em.WriteData(g.Label, []uint16{g.Scalar})
}

// genFunction lays out the frame, emits prologue, body, epilogue.
func (c *Context) genFunction(fn *ast.Function) *diag.Error {
	prevFn, prevPfx, prevEnd := c.fn, c.labelPfx, c.endLabel
	c.fn = fn
	c.labelPfx = fn.Name + "_"
	c.savedRegs = nil
	c.paramByName = make(map[string]*ast.Param, len(fn.Params))
	c.localByName = make(map[string]*ast.Local, len(fn.Locals))
	for _, p := range fn.Params {
		c.paramByName[p.Name] = p
	}
	for _, l := range fn.Locals {
		c.localByName[l.Name] = l
	}

	markAddressTaken(fn)

	c.em.Label(fn.Name)
	c.endLabel = c.em.GetUnusedLabel(c.labelPfx + "end")

	// Step 1: assign parameter locations.
	for i, p := range fn.Params {
		if i < len(paramRegs) {
			p.Loc = ast.VarLocation{Kind: ast.LocRegister, Reg: paramRegs[i]}
		} else {
			overflowIdx := i - len(paramRegs)
			p.Loc = ast.VarLocation{Kind: ast.LocFrameOffset, Offset: -(emitter.AddressSize + (overflowIdx+1)*emitter.DataSize)}
		}
	}

	// Step 2: register-eligible locals get E..K in declaration order,
	// unless address-taken or the register pool is exhausted.
	regIdx := 0
	var frameLocals []*ast.Local
	for _, l := range fn.Locals {
		if !l.AddressTaken && !l.Type.IsArray && regIdx < len(localRegs) {
			l.Loc = ast.VarLocation{Kind: ast.LocRegister, Reg: localRegs[regIdx]}
			regIdx++
			continue
		}
		frameLocals = append(frameLocals, l)
	}

	// Step 3: frame-resident locals (address-taken or overflow) get
	// offsets from 0 upward; arrays reserve an extra data span.
	offset := 0
	for _, l := range frameLocals {
		l.Loc = ast.VarLocation{Kind: ast.LocFrameOffset, Offset: offset}
		if l.Type.IsArray {
			l.DataOffset = offset + emitter.DataSize
			l.HasDataOffset = true
			offset += emitter.DataSize + l.Type.ArraySize*emitter.DataSize
		} else {
			offset += emitter.DataSize
		}
	}

	// Step 5: address-taken register parameters are spilled too, placed
	// after the frame-resident locals.
	var spilledParams []*ast.Param
	for _, p := range fn.Params {
		if p.Loc.Kind == ast.LocRegister {
			spilledParams = append(spilledParams, p)
		}
	}
	// None of the spec's built-ins take a parameter's address in this
	// language (no way to know without a use-site walk per parameter);
	// params are only spilled when `&name` appears in the body.
	addrTakenParams := addressTakenNames(fn)
	var actuallySpilled []*ast.Param
	for _, p := range spilledParams {
		if addrTakenParams[p.Name] {
			actuallySpilled = append(actuallySpilled, p)
		}
	}
	for _, p := range actuallySpilled {
		p.Loc = ast.VarLocation{Kind: ast.LocFrameOffset, Offset: offset}
		offset += emitter.DataSize
	}
	totalLocalBytes := offset

	// Prologue.
	c.em.WriteInst("PUSH FP")
	c.em.WriteInst("MOV FP SP")
	for _, p := range actuallySpilled {
		c.em.WriteInst("PUSH %s", regOfOriginalParamSlot(fn, p))
	}
	for _, l := range fn.Locals {
		if l.Loc.Kind == ast.LocRegister {
			c.em.WriteInst("PUSH %s", l.Loc.Reg)
			c.savedRegs = append(c.savedRegs, l.Loc.Reg)
		}
	}
	if totalLocalBytes > 0 {
		c.addImm("SP", totalLocalBytes, scratch1)
	}

	// Step 7: local initializers.
	for _, l := range fn.Locals {
		if err := c.emitLocalInit(l); err != nil {
			return err
		}
	}

	// Step 8: mint an asm label for every source label up front so
	// forward gotos resolve.
	for name, lbl := range fn.Labels {
		lbl.AsmLabel = c.em.GetUnusedLabel(c.labelPfx + name)
	}

	// Step 9: body.
	for _, s := range fn.Body {
		if err := c.genStmt(s); err != nil {
			return err
		}
	}

	// Step 10: epilogue.
	c.em.Label(c.endLabel)
	c.em.WriteInst("MOV SP FP")
	for i := len(c.savedRegs) - 1; i >= 0; i-- {
		c.em.WriteInst("POP %s", c.savedRegs[i])
	}
	c.em.WriteInst("POP FP")
	overflowBytes := 0
	if len(fn.Params) > len(paramRegs) {
		overflowBytes = (len(fn.Params) - len(paramRegs)) * emitter.DataSize
	}
	if overflowBytes > 0 {
		c.em.WriteInst("RET 0x%02x", overflowBytes)
	} else {
		c.em.WriteInst("RET")
	}

	c.fn, c.labelPfx, c.endLabel = prevFn, prevPfx, prevEnd
	return nil
}

// regOfOriginalParamSlot is the register a param was assigned before any
// spilling decision; used to emit the spill PUSH.
func regOfOriginalParamSlot(fn *ast.Function, p *ast.Param) string {
	for i, q := range fn.Params {
		if q == p && i < len(paramRegs) {
			return paramRegs[i]
		}
	}
	return ""
}

func (c *Context) emitLocalInit(l *ast.Local) *diag.Error {
	if l.Init == nil {
		return nil
	}
	if l.Type.IsArray {
		c.em.WriteInst("MOV %s FP", scratch1)
		c.addImm(scratch1, l.DataOffset, scratch2)
		if err := c.storeToLocation(l.Loc, scratch1); err != nil {
			return err
		}
		for i, e := range l.Init {
			op, err := c.genExpr(e)
			if err != nil {
				return err
			}
			reg := c.valueToReg(op, scratch2)
			c.em.WriteInst("MOV %s FP", scratch1)
			c.addImm(scratch1, l.DataOffset+i*emitter.DataSize, scratch3)
			c.em.WriteInst("STOR %s %s", reg, scratch1)
		}
		return nil
	}
	op, err := c.genExpr(l.Init[0])
	if err != nil {
		return err
	}
	reg := c.valueToReg(op, scratch1)
	return c.storeToLocation(l.Loc, reg)
}

// storeToLocation writes reg's value into loc (register move or STOR
// through FP-relative address).
func (c *Context) storeToLocation(loc ast.VarLocation, reg string) *diag.Error {
	if loc.Kind == ast.LocRegister {
		if loc.Reg != reg {
			c.em.WriteInst("MOV %s %s", loc.Reg, reg)
		}
		return nil
	}
	c.em.WriteInst("MOV %s FP", scratch3)
	c.addImm(scratch3, loc.Offset, otherScratch(reg, scratch3))
	c.em.WriteInst("STOR %s %s", reg, scratch3)
	return nil
}

// loadAddress computes loc's address into reg (FP + offset); only valid
// for frame-resident locations.
func (c *Context) loadAddress(loc ast.VarLocation, reg string) {
	c.em.WriteInst("MOV %s FP", reg)
	c.addImm(reg, loc.Offset, otherScratch(reg, scratch1))
}

// markAddressTaken walks a function body once, marking every local or
// param referenced through unary `&` so the frame layout pass spills it.
func markAddressTaken(fn *ast.Function) {
	names := addressTakenNames(fn)
	for _, l := range fn.Locals {
		if names[l.Name] {
			l.AddressTaken = true
		}
	}
}

func addressTakenNames(fn *ast.Function) map[string]bool {
	names := make(map[string]bool)
	var walkExpr func(e *ast.Expr)
	walkExpr = func(e *ast.Expr) {
		if e == nil {
			return
		}
		for i, a := range e.Postfix {
			if a.Kind == ast.AtomOperator && a.Unary && a.Op == ast.OpAddrOf && i > 0 {
				prev := e.Postfix[i-1]
				if prev.Kind == ast.AtomParam || prev.Kind == ast.AtomLocal {
					names[prev.Name] = true
				}
			}
			if a.Kind == ast.AtomCall && a.Call != nil {
				for _, arg := range a.Call.Args {
					walkExpr(arg)
				}
			}
		}
	}
	var walkStmt func(s *ast.Stmt)
	walkStmt = func(s *ast.Stmt) {
		if s == nil {
			return
		}
		switch s.Kind {
		case ast.StmtCompound:
			for _, inner := range s.Data.(*ast.CompoundStmt).Stmts {
				walkStmt(inner)
			}
		case ast.StmtExpr, ast.StmtVoidCall:
			walkExpr(s.Data.(*ast.ExprStmt).Expr)
		case ast.StmtIf:
			d := s.Data.(*ast.IfStmt)
			walkExpr(d.Cond)
			walkStmt(d.Then)
			walkStmt(d.Else)
		case ast.StmtFor:
			d := s.Data.(*ast.ForStmt)
			for _, e := range d.Init {
				walkExpr(e)
			}
			walkExpr(d.Cond)
			for _, e := range d.Post {
				walkExpr(e)
			}
			walkStmt(d.Body)
		case ast.StmtWhile:
			d := s.Data.(*ast.WhileStmt)
			walkExpr(d.Cond)
			walkStmt(d.Body)
		case ast.StmtDoWhile:
			d := s.Data.(*ast.DoWhileStmt)
			walkExpr(d.Cond)
			walkStmt(d.Body)
		case ast.StmtReturn:
			d := s.Data.(*ast.ReturnStmt)
			if d.HasExpr {
				walkExpr(d.Expr)
			}
		case ast.StmtLocalDecl:
			for _, e := range s.Data.(*ast.LocalDeclStmt).Local.Init {
				walkExpr(e)
			}
		}
	}
	for _, s := range fn.Body {
		walkStmt(s)
	}
	return names
}
