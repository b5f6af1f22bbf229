// Command compiler translates a single Consolite source file into the
// target machine's assembly text: `compiler [flags] SRC DEST`.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/xplshn/consolite-compiler/internal/cli"
	"github.com/xplshn/consolite-compiler/internal/config"
	"github.com/xplshn/consolite-compiler/internal/diag"
	"github.com/xplshn/consolite-compiler/internal/driver"
)

func main() {
	cfg := config.New()
	var dumpSymbols bool

	fs := cli.NewFlagSet("compiler", "[flags] SRC DEST")
	fs.BoolVar(&dumpSymbols, "dump-symbols", "write a symbol-table dump to SRC.symbols")

	var rest []string
	for _, arg := range os.Args[1:] {
		if !strings.HasPrefix(arg, "-") {
			rest = append(rest, arg)
			continue
		}
		trimmed := strings.TrimPrefix(arg, "-")
		enable := true
		name := trimmed
		if strings.HasPrefix(trimmed, "no-") {
			enable = false
			name = strings.TrimPrefix(trimmed, "no-")
		}
		if cfg.ApplyFlagName(name, enable) {
			continue
		}
		rest = append(rest, arg)
	}

	if err := fs.Parse(rest); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	args := fs.Args()
	if len(args) != 2 {
		fs.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	opts := driver.Options{
		SrcPath:     args[0],
		DestPath:    args[1],
		Cfg:         cfg,
		Sink:        diag.NewStdSink(os.Stderr),
		Progress:    os.Stdout,
		Summary:     os.Stdout,
		DumpSymbols: dumpSymbols,
	}
	if dumpSymbols {
		f, err := os.Create(args[0] + ".symbols")
		if err == nil {
			defer f.Close()
			opts.DumpWriter = f
		}
	}

	driver.RunMain(opts)
}
