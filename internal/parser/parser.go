// Package parser implements symbol resolution (S), the expression parser
// (E), the expression validator (V), the constant evaluator (C), and the
// declaration & statement parser (P) described in the component design.
package parser

import (
	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/config"
	"github.com/xplshn/consolite-compiler/internal/diag"
	"github.com/xplshn/consolite-compiler/internal/lexer"
	"github.com/xplshn/consolite-compiler/internal/token"
)

// Parser holds the token cursor, symbol tables, and the small amount of
// threaded state (current function, inLoop) the statement parser needs.
type Parser struct {
	lex    *lexer.Lexer
	tables *SymbolTables
	cfg    *config.Config
	sink   diag.Sink

	cur     token.Token
	curFunc *ast.Function
	inLoop  bool
}

// New builds a Parser over src. cfg may be nil (all warnings enabled);
// sink may be nil (warnings discarded).
func New(src string, cfg *config.Config, sink diag.Sink) *Parser {
	p := &Parser{lex: lexer.New(src), tables: NewSymbolTables(), cfg: cfg, sink: sink}
	p.advance()
	return p
}

func (p *Parser) advance()                 { p.cur = p.lex.Next() }
func (p *Parser) check(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}
func (p *Parser) expect(k token.Kind) (token.Token, *diag.Error) {
	if !p.check(k) {
		return token.Token{}, diag.Errorf(p.cur.Line, "expected %s but found %s", k, p.cur.Kind)
	}
	t := p.cur
	p.advance()
	return t, nil
}

func (p *Parser) isTypeStart() bool { return p.check(token.Void) || p.check(token.Uint16) }

// Parse runs the top-level loop: Type Name, dispatching to a function or
// a global declaration, until end-of-input, then checks the entry-point
// requirement.
func (p *Parser) Parse() (*ast.Program, *diag.Error) {
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if p.check(token.LParen) {
			fn, err := p.parseFunction(t, nameTok.Text, nameTok.Line)
			if err != nil {
				return nil, err
			}
			prog.Functions = append(prog.Functions, fn)
		} else {
			g, err := p.parseGlobal(t, nameTok.Text, nameTok.Line)
			if err != nil {
				return nil, err
			}
			prog.Globals = append(prog.Globals, g)
		}
	}

	mainFn, ok := p.tables.Functions["main"]
	if !ok || mainFn.IsBuiltin {
		return nil, diag.Errorf(0, "no entry point: a function 'void main()' is required")
	}
	if !mainFn.ReturnType.Void || len(mainFn.Params) != 0 {
		return nil, diag.Errorf(mainFn.Line, "'main' must be declared as 'void main()'")
	}
	return prog, nil
}

// parseType parses a base type (`void`/`uint16`) and an optional array
// suffix `[ConstExpr]`, evaluating the size immediately since array size
// must be a compile-time constant.
func (p *Parser) parseType() (ast.Type, *diag.Error) {
	var t ast.Type
	line := p.cur.Line
	switch p.cur.Kind {
	case token.Void:
		t.Void = true
		p.advance()
	case token.Uint16:
		p.advance()
	default:
		return t, diag.Errorf(p.cur.Line, "expected a type but found %s", p.cur.Kind)
	}

	if p.match(token.LBracket) {
		if t.Void {
			return t, diag.Errorf(line, "'void' cannot be an array type")
		}
		sizeLine := p.cur.Line
		sizeExpr, err := p.ParseExpr()
		if err != nil {
			return t, err
		}
		if verr := ValidateExpr(sizeExpr); verr != nil {
			return t, verr
		}
		EvaluateConst(sizeExpr, p.tables, p.cfg, p.sink)
		if !sizeExpr.IsConst {
			return t, diag.Errorf(sizeLine, "Array size must be known at compile time.")
		}
		if sizeExpr.ConstValue == 0 {
			return t, diag.Errorf(sizeLine, "Array size must be greater than zero.")
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return t, err
		}
		t.IsArray = true
		t.ArraySize = int(sizeExpr.ConstValue)
	}
	return t, nil
}

func (p *Parser) parseGlobal(t ast.Type, name string, line int) (*ast.Global, *diag.Error) {
	if t.Void {
		return nil, diag.Errorf(line, "global '%s' cannot have type 'void'", name)
	}
	g := &ast.Global{Type: t, Name: name, Line: line}
	if t.IsArray {
		g.Array = make([]uint16, t.ArraySize)
	}

	if p.match(token.Assign) {
		g.HasInit = true
		if t.IsArray {
			if _, err := p.expect(token.LBrace); err != nil {
				return nil, err
			}
			var vals []uint16
			if !p.check(token.RBrace) {
				for {
					e, err := p.ParseExpr()
					if err != nil {
						return nil, err
					}
					if verr := ValidateExpr(e); verr != nil {
						return nil, verr
					}
					EvaluateConst(e, p.tables, p.cfg, p.sink)
					if !e.IsConst {
						return nil, diag.Errorf(line, "global initializer must be a constant expression")
					}
					vals = append(vals, e.ConstValue)
					if !p.match(token.Comma) {
						break
					}
				}
			}
			if _, err := p.expect(token.RBrace); err != nil {
				return nil, err
			}
			if len(vals) != t.ArraySize {
				return nil, diag.Errorf(line, "expected %d initializer(s) for '%s', got %d", t.ArraySize, name, len(vals))
			}
			g.Array = vals
		} else {
			e, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			if verr := ValidateExpr(e); verr != nil {
				return nil, verr
			}
			EvaluateConst(e, p.tables, p.cfg, p.sink)
			if !e.IsConst {
				return nil, diag.Errorf(line, "global initializer must be a constant expression")
			}
			g.Scalar = e.ConstValue
		}
	}

	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	if derr := p.tables.DeclareGlobal(g); derr != nil {
		return nil, derr
	}
	return g, nil
}

func (p *Parser) parseFunction(t ast.Type, name string, line int) (*ast.Function, *diag.Error) {
	fn := &ast.Function{ReturnType: t, Name: name, Line: line, Labels: make(map[string]*ast.Label)}
	if derr := p.tables.DeclareFunction(fn); derr != nil {
		return nil, derr
	}
	p.tables.EnterFunction()

	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if !p.check(token.RParen) {
		for {
			pt, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if pt.IsArray {
				return nil, diag.Errorf(p.cur.Line, "array parameters are not allowed")
			}
			if pt.Void {
				return nil, diag.Errorf(p.cur.Line, "parameter cannot have type 'void'")
			}
			pnameTok, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			param := &ast.Param{Type: pt, Name: pnameTok.Text, Line: pnameTok.Line}
			if derr := p.tables.DeclareParam(param); derr != nil {
				return nil, derr
			}
			fn.Params = append(fn.Params, param)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	prevFunc, prevInLoop := p.curFunc, p.inLoop
	p.curFunc, p.inLoop = fn, false

	seenNonDecl := false
	for !p.check(token.RBrace) {
		if p.check(token.EOF) {
			return nil, diag.Errorf(p.cur.Line, "unexpected end of input, expected '}'")
		}
		if p.isTypeStart() {
			if seenNonDecl {
				return nil, diag.Errorf(p.cur.Line, "local declarations must precede all statements")
			}
			stmt, err := p.parseLocalDecl()
			if err != nil {
				return nil, err
			}
			fn.Body = append(fn.Body, stmt)
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		fn.Body = append(fn.Body, stmt)
		seenNonDecl = true
	}
	p.advance() // consume '}'

	for _, g := range fn.Gotos {
		if _, ok := fn.Labels[g.Name]; !ok {
			p.curFunc, p.inLoop = prevFunc, prevInLoop
			return nil, diag.Errorf(g.Line, "goto to undefined label '%s'", g.Name)
		}
	}

	p.curFunc, p.inLoop = prevFunc, prevInLoop
	return fn, nil
}

func (p *Parser) parseLocalDecl() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if t.Void {
		return nil, diag.Errorf(line, "local variable cannot have type 'void'")
	}
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	local := &ast.Local{Type: t, Name: nameTok.Text, Line: nameTok.Line}

	if p.match(token.Assign) {
		if t.IsArray {
			if _, err := p.expect(token.LBrace); err != nil {
				return nil, err
			}
			var inits []*ast.Expr
			if !p.check(token.RBrace) {
				for {
					e, err := p.ParseExpr()
					if err != nil {
						return nil, err
					}
					if verr := ValidateExpr(e); verr != nil {
						return nil, verr
					}
					inits = append(inits, e)
					if !p.match(token.Comma) {
						break
					}
				}
			}
			if _, err := p.expect(token.RBrace); err != nil {
				return nil, err
			}
			if len(inits) != t.ArraySize {
				return nil, diag.Errorf(line, "expected %d initializer(s) for '%s', got %d", t.ArraySize, local.Name, len(inits))
			}
			local.Init = inits
		} else {
			e, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			if verr := ValidateExpr(e); verr != nil {
				return nil, verr
			}
			local.Init = []*ast.Expr{e}
		}
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	if derr := p.tables.DeclareLocal(local); derr != nil {
		return nil, derr
	}
	p.curFunc.Locals = append(p.curFunc.Locals, local)
	return &ast.Stmt{Kind: ast.StmtLocalDecl, Line: line, Data: &ast.LocalDeclStmt{Local: local}}, nil
}

func (p *Parser) parseStmt() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	switch p.cur.Kind {
	case token.LBrace:
		return p.parseCompound()
	case token.If:
		return p.parseIf()
	case token.For:
		return p.parseFor()
	case token.While:
		return p.parseWhile()
	case token.Do:
		return p.parseDoWhile()
	case token.Break:
		if !p.inLoop {
			return nil, diag.Errorf(line, "Must be within a loop statement to use 'break;'.")
		}
		p.advance()
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtBreak, Line: line}, nil
	case token.Continue:
		if !p.inLoop {
			return nil, diag.Errorf(line, "Must be within a loop statement to use 'continue;'.")
		}
		p.advance()
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtContinue, Line: line}, nil
	case token.Return:
		return p.parseReturn()
	case token.Goto:
		return p.parseGoto()
	case token.Semi:
		p.advance()
		return &ast.Stmt{Kind: ast.StmtNull, Line: line}, nil
	case token.Ident:
		if p.lex.Peek().Kind == token.Colon {
			return p.parseLabel()
		}
		if res := p.tables.Lookup(p.cur.Text); res.Kind == LookupFunction && res.Function.ReturnType.Void {
			return p.parseVoidCallStmt()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseCompound() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var stmts []*ast.Stmt
	for !p.check(token.RBrace) {
		if p.check(token.EOF) {
			return nil, diag.Errorf(p.cur.Line, "unexpected end of input, expected '}'")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance()
	return &ast.Stmt{Kind: ast.StmtCompound, Line: line, Data: &ast.CompoundStmt{Stmts: stmts}}, nil
}

func (p *Parser) parseLabel() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	name := p.cur.Text
	p.advance() // identifier
	p.advance() // ':'
	if _, ok := p.curFunc.Labels[name]; ok {
		return nil, diag.Errorf(line, "redefinition of label '%s'", name)
	}
	p.curFunc.Labels[name] = &ast.Label{Name: name, Line: line}
	return &ast.Stmt{Kind: ast.StmtLabel, Line: line, Data: &ast.LabelStmt{Name: name}}, nil
}

func (p *Parser) parseVoidCallStmt() (*ast.Stmt, *diag.Error) {
	nameTok := p.cur
	res := p.tables.Lookup(nameTok.Text)
	p.advance()
	call, err := p.parseCallArgs(nameTok.Text, res.Function, nameTok.Line)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	expr := &ast.Expr{Postfix: []ast.Atom{{Kind: ast.AtomCall, Call: call, Line: nameTok.Line}}}
	return &ast.Stmt{Kind: ast.StmtVoidCall, Line: nameTok.Line, Data: &ast.ExprStmt{Expr: expr}}, nil
}

func (p *Parser) parseExprStmt() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if verr := ValidateExpr(e); verr != nil {
		return nil, verr
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return &ast.Stmt{Kind: ast.StmtExpr, Line: line, Data: &ast.ExprStmt{Expr: e}}, nil
}

func (p *Parser) parseIf() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	p.advance()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if verr := ValidateExpr(cond); verr != nil {
		return nil, verr
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	thenStmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var elseStmt *ast.Stmt
	if p.match(token.Else) {
		elseStmt, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Stmt{Kind: ast.StmtIf, Line: line, Data: &ast.IfStmt{Cond: cond, Then: thenStmt, Else: elseStmt}}, nil
}

func (p *Parser) parseWhile() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	p.advance()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if verr := ValidateExpr(cond); verr != nil {
		return nil, verr
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	prevInLoop := p.inLoop
	p.inLoop = true
	body, err := p.parseStmt()
	p.inLoop = prevInLoop
	if err != nil {
		return nil, err
	}
	return &ast.Stmt{Kind: ast.StmtWhile, Line: line, Data: &ast.WhileStmt{Cond: cond, Body: body}}, nil
}

func (p *Parser) parseDoWhile() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	p.advance()
	prevInLoop := p.inLoop
	p.inLoop = true
	body, err := p.parseStmt()
	p.inLoop = prevInLoop
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.While); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if verr := ValidateExpr(cond); verr != nil {
		return nil, verr
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return &ast.Stmt{Kind: ast.StmtDoWhile, Line: line, Data: &ast.DoWhileStmt{Cond: cond, Body: body}}, nil
}

func (p *Parser) parseExprList(stop token.Kind) ([]*ast.Expr, *diag.Error) {
	var exprs []*ast.Expr
	if p.check(stop) {
		return nil, nil
	}
	for {
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if verr := ValidateExpr(e); verr != nil {
			return nil, verr
		}
		exprs = append(exprs, e)
		if !p.match(token.Comma) {
			break
		}
	}
	return exprs, nil
}

func (p *Parser) parseFor() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	p.advance()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	init, err := p.parseExprList(token.Semi)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	var cond *ast.Expr
	if !p.check(token.Semi) {
		cond, err = p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if verr := ValidateExpr(cond); verr != nil {
			return nil, verr
		}
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	post, err := p.parseExprList(token.RParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	prevInLoop := p.inLoop
	p.inLoop = true
	body, err := p.parseStmt()
	p.inLoop = prevInLoop
	if err != nil {
		return nil, err
	}
	return &ast.Stmt{Kind: ast.StmtFor, Line: line, Data: &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body}}, nil
}

func (p *Parser) parseReturn() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	p.advance()
	if p.check(token.Semi) {
		if !p.curFunc.ReturnType.Void {
			return nil, diag.Errorf(line, "non-void function '%s' must return a value", p.curFunc.Name)
		}
		p.advance()
		return &ast.Stmt{Kind: ast.StmtReturn, Line: line, Data: &ast.ReturnStmt{HasExpr: false}}, nil
	}
	if p.curFunc.ReturnType.Void {
		return nil, diag.Errorf(line, "void function '%s' cannot return a value", p.curFunc.Name)
	}
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if verr := ValidateExpr(e); verr != nil {
		return nil, verr
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return &ast.Stmt{Kind: ast.StmtReturn, Line: line, Data: &ast.ReturnStmt{Expr: e, HasExpr: true}}, nil
}

func (p *Parser) parseGoto() (*ast.Stmt, *diag.Error) {
	line := p.cur.Line
	p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	p.curFunc.Gotos = append(p.curFunc.Gotos, &ast.GotoRef{Name: nameTok.Text, Line: line})
	return &ast.Stmt{Kind: ast.StmtGoto, Line: line, Data: &ast.GotoStmt{Name: nameTok.Text}}, nil
}

// Tables exposes the symbol tables built while parsing, read-only, for
// the code generator's single borrowing pass.
func (p *Parser) Tables() *SymbolTables { return p.tables }
