package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xplshn/consolite-compiler/internal/diag"
)

func TestRunCompilesSourceToDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.c")
	dest := filepath.Join(dir, "prog.asm")
	if err := os.WriteFile(src, []byte("void main() {}"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var progress, summary bytes.Buffer
	err := Run(Options{SrcPath: src, DestPath: dest, Progress: &progress, Summary: &summary})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, rerr := os.ReadFile(dest)
	if rerr != nil {
		t.Fatalf("read dest: %v", rerr)
	}
	if !strings.Contains(string(out), "CALL main") {
		t.Errorf("expected assembly output to call main:\n%s", out)
	}
	if !strings.Contains(progress.String(), "Tokenizing") {
		t.Errorf("expected progress narration, got %q", progress.String())
	}
	if summary.Len() == 0 {
		t.Errorf("expected a non-empty summary line")
	}
}

func TestRunMissingSourceFile(t *testing.T) {
	dir := t.TempDir()
	err := Run(Options{SrcPath: filepath.Join(dir, "nope.c"), DestPath: filepath.Join(dir, "out.asm")})
	if err == nil || !strings.Contains(err.Msg, "cannot open source file") {
		t.Fatalf("got %v, want a 'cannot open source file' error", err)
	}
}

func TestRunPropagatesParseError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.c")
	if err := os.WriteFile(src, []byte("uint16 x;"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	err := Run(Options{SrcPath: src, DestPath: filepath.Join(dir, "bad.asm")})
	if err == nil || err.Msg != "no entry point: a function 'void main()' is required" {
		t.Fatalf("got %v, want the missing-entry-point error", err)
	}
}

func TestRunDumpSymbolsWritesSymbolTable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.c")
	if err := os.WriteFile(src, []byte("uint16 g;\nvoid main() {}"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	var dump bytes.Buffer
	err := Run(Options{
		SrcPath: src, DestPath: filepath.Join(dir, "prog.asm"),
		DumpSymbols: true, DumpWriter: &dump,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := dump.String()
	if !strings.Contains(out, "g: uint16") {
		t.Errorf("expected symbol dump to list global 'g', got %q", out)
	}
	if !strings.Contains(out, "main: () -> void") {
		t.Errorf("expected symbol dump to list function 'main', got %q", out)
	}
}

func TestMissingSourceErrorPrintsAsRunMainWould(t *testing.T) {
	// RunMain calls os.Exit, so only the non-exiting Run path backing it
	// is exercised directly here; the exit-code wiring itself is a thin,
	// visually-verifiable wrapper (see internal/diag.PrintError for the
	// message format RunMain prints before exiting).
	dir := t.TempDir()
	err := Run(Options{SrcPath: filepath.Join(dir, "missing.c"), DestPath: filepath.Join(dir, "out.asm")})
	if err == nil {
		t.Fatalf("expected an error for a missing source file")
	}
	var buf bytes.Buffer
	diag.PrintError(&buf, err, false)
	if !strings.HasPrefix(buf.String(), "Error: cannot open source file") {
		t.Errorf("got %q", buf.String())
	}
}
