package parser

import (
	"testing"

	"github.com/xplshn/consolite-compiler/internal/ast"
	"github.com/xplshn/consolite-compiler/internal/diag"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(src, nil, nil)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func parseProgramErr(t *testing.T, src string) *diag.Error {
	t.Helper()
	p := New(src, nil, nil)
	_, err := p.Parse()
	if err == nil {
		t.Fatalf("expected a parse error, got none")
	}
	return err
}

func TestParseMinimalProgram(t *testing.T) {
	prog := parseProgram(t, "void main() {}")
	if len(prog.Functions) != 1 || prog.Functions[0].Name != "main" {
		t.Fatalf("expected a single 'main' function, got %+v", prog.Functions)
	}
}

func TestParseRequiresEntryPoint(t *testing.T) {
	err := parseProgramErr(t, "uint16 x;")
	if err.Msg != "no entry point: a function 'void main()' is required" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseMainMustBeVoidNoArgs(t *testing.T) {
	err := parseProgramErr(t, "uint16 main() { return 0; }")
	if err.Msg != "'main' must be declared as 'void main()'" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseGlobalsScalarAndArray(t *testing.T) {
	prog := parseProgram(t, `
		uint16 counter = 5;
		uint16[3] buf = {1, 2, 3};
		void main() {}
	`)
	if len(prog.Globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(prog.Globals))
	}
	if prog.Globals[0].Scalar != 5 {
		t.Errorf("counter: got %d, want 5", prog.Globals[0].Scalar)
	}
	if len(prog.Globals[1].Array) != 3 || prog.Globals[1].Array[2] != 3 {
		t.Errorf("buf: got %v, want [1 2 3]", prog.Globals[1].Array)
	}
}

func TestParseArraySizeMustBeConstant(t *testing.T) {
	err := parseProgramErr(t, `
		uint16 n;
		void main() { uint16[n] a; }
	`)
	if err.Msg != "Array size must be known at compile time." {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseArraySizeMustBeNonzero(t *testing.T) {
	err := parseProgramErr(t, `void main() { uint16[0] a; }`)
	if err.Msg != "Array size must be greater than zero." {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseGlobalInitializerMustBeConst(t *testing.T) {
	err := parseProgramErr(t, `
		uint16 a;
		uint16 b = a;
		void main() {}
	`)
	if err.Msg != "global initializer must be a constant expression" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseBreakOutsideLoop(t *testing.T) {
	err := parseProgramErr(t, `void main() { break; }`)
	if err.Msg != "Must be within a loop statement to use 'break;'." {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseContinueOutsideLoop(t *testing.T) {
	err := parseProgramErr(t, `void main() { continue; }`)
	if err.Msg != "Must be within a loop statement to use 'continue;'." {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseBreakInsideNestedLoopOK(t *testing.T) {
	parseProgram(t, `
		void main() {
			uint16 i;
			for (i = 0; i < 10; i = i + 1) {
				if (i == 5) { break; }
			}
		}
	`)
}

func TestParseLocalDeclsMustPrecedeStatements(t *testing.T) {
	err := parseProgramErr(t, `
		void main() {
			uint16 x = 1;
			x = x + 1;
			uint16 y = 2;
		}
	`)
	if err.Msg != "local declarations must precede all statements" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseGotoToUndefinedLabel(t *testing.T) {
	err := parseProgramErr(t, `void main() { goto nowhere; }`)
	if err.Msg != "goto to undefined label 'nowhere'" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseGotoToDefinedLabel(t *testing.T) {
	parseProgram(t, `
		void main() {
			goto done;
			done: return;
		}
	`)
}

func TestParseVoidReturnWithValueRejected(t *testing.T) {
	err := parseProgramErr(t, `void main() { return 1; }`)
	if err.Msg != "void function 'main' cannot return a value" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseNonVoidReturnWithoutValueRejected(t *testing.T) {
	err := parseProgramErr(t, `
		uint16 f() { return; }
		void main() {}
	`)
	if err.Msg != "non-void function 'f' must return a value" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseCallArityMismatch(t *testing.T) {
	err := parseProgramErr(t, `
		uint16 f(uint16 a, uint16 b) { return a + b; }
		void main() { uint16 r = f(1); }
	`)
	if err.Msg == "" {
		t.Fatalf("expected an arity error")
	}
}

func TestParseVoidCallAsStatement(t *testing.T) {
	parseProgram(t, `
		void greet() {}
		void main() { greet(); }
	`)
}

func TestParseVoidFunctionRejectedInExpression(t *testing.T) {
	err := parseProgramErr(t, `
		void greet() {}
		void main() { uint16 x = greet() + 1; }
	`)
	if err.Msg != "cannot use void function 'greet' in an expression" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestParseArrayIndexAndAddressOf(t *testing.T) {
	prog := parseProgram(t, `
		uint16[4] data = {1, 2, 3, 4};
		void main() {
			uint16 x = data[1];
			uint16 p = &x;
		}
	`)
	if len(prog.Functions) != 1 {
		t.Fatalf("expected one function")
	}
}

func TestParseDuplicateNameCollision(t *testing.T) {
	err := parseProgramErr(t, `
		uint16 x;
		uint16 x;
		void main() {}
	`)
	if err.Msg != "redefinition of 'x'" {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}
