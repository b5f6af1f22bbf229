// Package diag implements the compiler's diagnostic model: a structured
// error/warning sink that replaces the free-function _error/_warn and
// os.Exit-on-error style with explicit propagation, per the design note
// on modeling diagnostics as a sink passed through the pipeline.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Error is the structured error value returned by every fallible stage of
// the pipeline (parser, codegen, driver I/O). Line is 0 when the error has no
// source anchor (e.g. a missing entry point).
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line <= 0 {
		return e.Msg
	}
	return fmt.Sprintf("%d: %s", e.Line, e.Msg)
}

// Errorf builds a line-anchored *Error.
func Errorf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal diagnostic; it never changes the exit code.
type Warning struct {
	Line int
	Msg  string
}

// Sink receives diagnostics as the pipeline runs. Production code uses
// StdSink; tests substitute CollectSink.
type Sink interface {
	Warn(line int, format string, args ...any)
}

// StdSink writes warnings to an io.Writer, colorizing them when the writer
// is backed by a terminal, and printing the offending source line beneath
// each one once SetSource has been called. No caret is drawn.
type StdSink struct {
	Out    io.Writer
	color  bool
	source []string // source split into lines, for source-line printing; optional
}

// NewStdSink builds a StdSink writing to w. If w is an *os.File connected
// to a terminal, warnings are colorized.
func NewStdSink(w io.Writer) *StdSink {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd())) || isatty.IsTerminal(f.Fd())
	}
	return &StdSink{Out: w, color: color}
}

// SetSource supplies the original source text so Warn can print the
// offending line beneath the message, mirroring the teacher's
// caret-anchored diagnostic presentation.
func (s *StdSink) SetSource(src string) {
	s.source = strings.Split(src, "\n")
}

func (s *StdSink) Warn(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.color {
		fmt.Fprintf(s.Out, "\033[33mWarning:%d:\033[0m %s\n", line, msg)
	} else {
		fmt.Fprintf(s.Out, "Warning:%d: %s\n", line, msg)
	}
	if s.source != nil && line >= 1 && line <= len(s.source) {
		fmt.Fprintf(s.Out, "  %s\n", s.source[line-1])
	}
}

// PrintError formats a top-level *Error the way StdSink formats warnings,
// used by the driver for the single fatal error that aborts a pass. An
// error with no source anchor (Line 0) is printed without a line number.
func PrintError(w io.Writer, err *Error, color bool) {
	if err.Line <= 0 {
		if color {
			fmt.Fprintf(w, "\033[31mError:\033[0m %s\n", err.Msg)
		} else {
			fmt.Fprintf(w, "Error: %s\n", err.Msg)
		}
		return
	}
	if color {
		fmt.Fprintf(w, "\033[31mError:%d:\033[0m %s\n", err.Line, err.Msg)
	} else {
		fmt.Fprintf(w, "Error:%d: %s\n", err.Line, err.Msg)
	}
}

// CollectSink accumulates warnings in memory instead of printing them,
// for use in tests that assert on diagnostic content.
type CollectSink struct {
	Warnings []Warning
}

func (s *CollectSink) Warn(line int, format string, args ...any) {
	s.Warnings = append(s.Warnings, Warning{Line: line, Msg: fmt.Sprintf(format, args...)})
}
