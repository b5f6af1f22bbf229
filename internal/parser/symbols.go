package parser

import (
	"regexp"

	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/diag"
)

var identRe = regexp.MustCompile(`^[_A-Za-z][_A-Za-z0-9]*$`)

func validName(s string) bool { return identRe.MatchString(s) }

// LookupKind tags what Lookup resolved a name to.
type LookupKind int

const (
	LookupNone LookupKind = iota
	LookupGlobal
	LookupParam
	LookupLocal
	LookupFunction
)

type LookupResult struct {
	Kind     LookupKind
	Global   *ast.Global
	Param    *ast.Param
	Local    *ast.Local
	Function *ast.Function
}

// builtinSpec describes one of the six prebound built-in functions.
type builtinSpec struct {
	name       string
	returnType ast.Type
	paramTypes []ast.Type
}

var builtins = []builtinSpec{
	{"COLOR", ast.Void(), []ast.Type{ast.Uint16()}},
	{"PIXEL", ast.Void(), []ast.Type{ast.Uint16(), ast.Uint16()}},
	{"TIMERST", ast.Void(), nil},
	{"TIME", ast.Uint16(), nil},
	{"INPUT", ast.Uint16(), []ast.Type{ast.Uint16()}},
	{"RND", ast.Uint16(), nil},
}

// SymbolTables holds the four per-kind lookup tables from §4.2: globals,
// functions (seeded with the six built-ins), and the current function's
// parameters and locals.
type SymbolTables struct {
	Globals   map[string]*ast.Global
	Functions map[string]*ast.Function

	// Reset on EnterFunction; populated as the current function's
	// declaration parser runs.
	Params map[string]*ast.Param
	Locals map[string]*ast.Local
}

func NewSymbolTables() *SymbolTables {
	t := &SymbolTables{
		Globals:   make(map[string]*ast.Global),
		Functions: make(map[string]*ast.Function),
		Params:    make(map[string]*ast.Param),
		Locals:    make(map[string]*ast.Local),
	}
	for i, b := range builtins {
		params := make([]*ast.Param, len(b.paramTypes))
		for j, pt := range b.paramTypes {
			params[j] = &ast.Param{Type: pt, Name: string(rune('a' + j))}
		}
		t.Functions[b.name] = &ast.Function{
			ReturnType:      b.returnType,
			Name:            b.name,
			Params:          params,
			IsBuiltin:       true,
			BuiltinMnemonic: builtins[i].name,
		}
	}
	return t
}

// EnterFunction resets the per-function parameter/local tables.
func (t *SymbolTables) EnterFunction() {
	t.Params = make(map[string]*ast.Param)
	t.Locals = make(map[string]*ast.Local)
}

// checkCollision enforces the uniqueness invariant: within a function, no
// two of {global name, function name, parameter name, local name} collide.
func (t *SymbolTables) checkCollision(line int, name string) *diag.Error {
	if _, ok := t.Globals[name]; ok {
		return diag.Errorf(line, "redefinition of '%s'", name)
	}
	if _, ok := t.Functions[name]; ok {
		return diag.Errorf(line, "redefinition of '%s'", name)
	}
	if _, ok := t.Params[name]; ok {
		return diag.Errorf(line, "redefinition of '%s'", name)
	}
	if _, ok := t.Locals[name]; ok {
		return diag.Errorf(line, "redefinition of '%s'", name)
	}
	return nil
}

func (t *SymbolTables) DeclareGlobal(g *ast.Global) *diag.Error {
	if !validName(g.Name) {
		return diag.Errorf(g.Line, "invalid name '%s'", g.Name)
	}
	if err := t.checkCollision(g.Line, g.Name); err != nil {
		return err
	}
	g.Label = g.Name
	t.Globals[g.Name] = g
	return nil
}

func (t *SymbolTables) DeclareFunction(f *ast.Function) *diag.Error {
	if !validName(f.Name) {
		return diag.Errorf(f.Line, "invalid name '%s'", f.Name)
	}
	if err := t.checkCollision(f.Line, f.Name); err != nil {
		return err
	}
	t.Functions[f.Name] = f
	return nil
}

func (t *SymbolTables) DeclareParam(p *ast.Param) *diag.Error {
	if !validName(p.Name) {
		return diag.Errorf(p.Line, "invalid name '%s'", p.Name)
	}
	if err := t.checkCollision(p.Line, p.Name); err != nil {
		return err
	}
	t.Params[p.Name] = p
	return nil
}

func (t *SymbolTables) DeclareLocal(l *ast.Local) *diag.Error {
	if !validName(l.Name) {
		return diag.Errorf(l.Line, "invalid name '%s'", l.Name)
	}
	if err := t.checkCollision(l.Line, l.Name); err != nil {
		return err
	}
	t.Locals[l.Name] = l
	return nil
}

// Lookup resolves name in order of precedence: globals, params, locals,
// functions, per §4.3.
func (t *SymbolTables) Lookup(name string) LookupResult {
	if g, ok := t.Globals[name]; ok {
		return LookupResult{Kind: LookupGlobal, Global: g}
	}
	if p, ok := t.Params[name]; ok {
		return LookupResult{Kind: LookupParam, Param: p}
	}
	if l, ok := t.Locals[name]; ok {
		return LookupResult{Kind: LookupLocal, Local: l}
	}
	if fn, ok := t.Functions[name]; ok {
		return LookupResult{Kind: LookupFunction, Function: fn}
	}
	return LookupResult{Kind: LookupNone}
}
