package cli

import "testing"

func TestParseBoolFlagsAndPositionalArgs(t *testing.T) {
	var dumpSymbols bool
	fs := NewFlagSet("compiler", "[flags] SRC DEST")
	fs.BoolVar(&dumpSymbols, "dump-symbols", "write a symbol dump")

	if err := fs.Parse([]string{"-dump-symbols", "in.c", "out.asm"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dumpSymbols {
		t.Errorf("expected -dump-symbols to set the flag true")
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "in.c" || got[1] != "out.asm" {
		t.Errorf("got args %v, want [in.c out.asm]", got)
	}
}

func TestParseNoPrefixDisablesFlag(t *testing.T) {
	dumpSymbols := true
	fs := NewFlagSet("compiler", "[flags] SRC DEST")
	fs.BoolVar(&dumpSymbols, "dump-symbols", "write a symbol dump")

	if err := fs.Parse([]string{"-no-dump-symbols"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dumpSymbols {
		t.Errorf("expected -no-dump-symbols to set the flag false")
	}
}

func TestParseUnrecognizedFlagErrors(t *testing.T) {
	fs := NewFlagSet("compiler", "[flags] SRC DEST")
	if err := fs.Parse([]string{"-bogus"}); err == nil {
		t.Fatalf("expected an error for an unrecognized flag")
	}
}
