// Package driver orchestrates the compilation pipeline: lex (inside the
// parser) → parse/validate/fold → generate → emit, and prints the fatal
// compile diagnostic and sets the exit code for a failed compilation
// (command-line usage errors are handled in cmd/compiler).
package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/xplshn/consolite-compiler/internal/codegen"
	"github.com/xplshn/consolite-compiler/internal/config"
	"github.com/xplshn/consolite-compiler/internal/diag"
	"github.com/xplshn/consolite-compiler/internal/parser"
)

// Options configures one compilation run.
type Options struct {
	SrcPath  string
	DestPath string
	Cfg      *config.Config
	Sink     diag.Sink

	Progress io.Writer // progress narration; nil disables it
	Summary  io.Writer // end-of-run byte-size summary; nil disables it

	DumpSymbols bool
	DumpWriter  io.Writer
}

// Run executes one full compilation and writes the assembly to
// opts.DestPath. It returns a *diag.Error on failure; callers that want
// the teacher's `os.Exit(1)` behavior should use RunMain instead.
func Run(opts Options) *diag.Error {
	progress := func(format string, args ...any) {
		if opts.Progress != nil {
			fmt.Fprintf(opts.Progress, format+"\n", args...)
		}
	}

	srcBytes, ioErr := os.ReadFile(opts.SrcPath)
	if ioErr != nil {
		return diag.Errorf(0, "cannot open source file '%s': %v", opts.SrcPath, ioErr)
	}

	cfg := opts.Cfg
	if cfg == nil {
		cfg = config.New()
	}
	sink := opts.Sink
	if sink == nil {
		sink = diag.NewStdSink(os.Stderr)
	}

	progress("Tokenizing %s...", opts.SrcPath)
	p := parser.New(string(srcBytes), cfg, sink)

	progress("Parsing...")
	prog, err := p.Parse()
	if err != nil {
		return err
	}

	progress("Folding constants...")
	// Constant folding runs inline as globals and array sizes are parsed
	// (internal/parser/consteval.go); nothing further to do here.

	if opts.DumpSymbols && opts.DumpWriter != nil {
		dumpSymbols(opts.DumpWriter, p.Tables())
	}

	progress("Generating code...")
	asm, err := codegen.Generate(prog, p.Tables(), cfg, sink)
	if err != nil {
		return err
	}

	progress("Writing %s...", opts.DestPath)
	if ioErr := os.WriteFile(opts.DestPath, []byte(asm), 0o644); ioErr != nil {
		return diag.Errorf(0, "cannot write output file '%s': %v", opts.DestPath, ioErr)
	}

	if opts.Summary != nil {
		fmt.Fprintf(opts.Summary, "wrote %s of assembly to %s\n", humanize.Bytes(uint64(len(asm))), opts.DestPath)
	}
	return nil
}

func dumpSymbols(w io.Writer, tables *parser.SymbolTables) {
	buildID := uuid.New()
	fmt.Fprintf(w, "# symbol dump (build %s)\n", buildID)
	fmt.Fprintf(w, "## globals\n")
	for name, g := range tables.Globals {
		fmt.Fprintf(w, "%s: %s\n", name, g.Type)
	}
	fmt.Fprintf(w, "## functions\n")
	for name, fn := range tables.Functions {
		params := ""
		for i, p := range fn.Params {
			if i > 0 {
				params += ", "
			}
			params += p.Type.String()
		}
		fmt.Fprintf(w, "%s: (%s) -> %s\n", name, params, fn.ReturnType)
	}
}

// RunMain runs opts and, on error, prints the diagnostic in the
// teacher's `Error:<line>: <msg>` form and terminates the process with
// exit code 1. Besides cmd/compiler's usage-error exits, it is the only
// place in this module that calls os.Exit.
func RunMain(opts Options) {
	if err := Run(opts); err != nil {
		diag.PrintError(os.Stderr, err, false)
		os.Exit(1)
	}
}
