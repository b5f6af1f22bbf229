// Package cli implements a small hand-rolled flag parser in the
// teacher's own style (a bespoke FlagSet rather than the stdlib "flag"
// package), trimmed down from the teacher's much larger flag-group/help
// framework to the few boolean toggles this compiler's invocation
// actually needs (cmd/compiler registers -dump-symbols here; warning
// toggles are pre-scanned into internal/config before Parse), while
// keeping its terminal-width-aware help text.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

type boolFlag struct {
	name  string
	usage string
	ptr   *bool
}

// FlagSet parses `-name` / `-no-name` boolean flags plus positional
// arguments, in that order of appearance, for the "compiler [flags]
// SRC DEST" invocation shape.
type FlagSet struct {
	progName string
	synopsis string
	bools    map[string]*boolFlag
	args     []string
}

func NewFlagSet(progName, synopsis string) *FlagSet {
	return &FlagSet{progName: progName, synopsis: synopsis, bools: make(map[string]*boolFlag)}
}

// BoolVar registers a toggle reachable as "-name" (enable) or
// "-no-name" (disable).
func (f *FlagSet) BoolVar(p *bool, name, usage string) {
	f.bools[name] = &boolFlag{name: name, usage: usage, ptr: p}
}

// Args returns the positional arguments collected by Parse.
func (f *FlagSet) Args() []string { return f.args }

// Parse walks arguments left to right; anything beginning with "-" is
// matched against the registered bool flags, everything else is
// collected as a positional argument.
func (f *FlagSet) Parse(arguments []string) error {
	for _, arg := range arguments {
		if !strings.HasPrefix(arg, "-") {
			f.args = append(f.args, arg)
			continue
		}
		trimmed := strings.TrimPrefix(arg, "-")
		enable := true
		name := trimmed
		if strings.HasPrefix(trimmed, "no-") {
			enable = false
			name = strings.TrimPrefix(trimmed, "no-")
		}
		bf, ok := f.bools[name]
		if !ok {
			return fmt.Errorf("unrecognized flag '%s'", arg)
		}
		*bf.ptr = enable
	}
	return nil
}

// PrintUsage writes a synopsis line and the registered flags, each line
// truncated to the terminal width when w is a terminal (80 otherwise).
func (f *FlagSet) PrintUsage(w io.Writer) {
	width := 80
	if file, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(file.Fd())); err == nil && tw > 0 {
			width = tw
		}
	}
	fmt.Fprintf(w, "usage: %s %s\n", f.progName, f.synopsis)
	names := make([]string, 0, len(f.bools))
	for n := range f.bools {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		bf := f.bools[n]
		line := fmt.Sprintf("  -%-20s %s", n, bf.usage)
		if len(line) > width {
			line = line[:width]
		}
		fmt.Fprintln(w, line)
	}
}
