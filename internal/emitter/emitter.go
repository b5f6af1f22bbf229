// Package emitter implements the assembly writer (O): byte-position
// tracking, label minting, and the mandatory PUSH/POP peephole collapse.
package emitter

import (
	"fmt"
	"strings"
)

const (
	InstSize    = 4 // bytes per machine instruction
	DataSize    = 2 // bytes per data word / register
	AddressSize = 2 // bytes per address
)

// Emitter accumulates assembly text, tracking the byte position of the
// instruction stream so labels and stack layout stay consistent, and
// folding PUSH/POP pairs through the single pending-push peephole.
type Emitter struct {
	lines []string
	pos   int

	pendingPush     bool
	pendingPushReg  string

	usedLabels map[string]bool
}

func New() *Emitter {
	return &Emitter{usedLabels: make(map[string]bool)}
}

// Writeln emits a line verbatim (labels, comments, directives); it does
// not advance the byte position and flushes any pending PUSH first.
func (e *Emitter) Writeln(line string) {
	e.flushPending()
	e.lines = append(e.lines, line)
}

// Pos reports the current byte offset into the instruction/data stream.
func (e *Emitter) Pos() int { return e.pos }

// WriteInst emits one instruction line, applying the PUSH/POP peephole.
func (e *Emitter) WriteInst(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	fields := strings.Fields(text)

	if e.pendingPush {
		if len(fields) == 2 && fields[0] == "POP" {
			pushed := e.pendingPushReg
			popped := fields[1]
			e.pendingPush = false
			e.pendingPushReg = ""
			if pushed == popped {
				return
			}
			e.emitInstLine(fmt.Sprintf("MOV %s %s", popped, pushed))
			return
		}
		e.flushPending()
	}

	if len(fields) == 2 && fields[0] == "PUSH" {
		e.pendingPush = true
		e.pendingPushReg = fields[1]
		return
	}

	e.emitInstLine(text)
}

func (e *Emitter) flushPending() {
	if !e.pendingPush {
		return
	}
	e.emitInstLine(fmt.Sprintf("PUSH %s", e.pendingPushReg))
	e.pendingPush = false
	e.pendingPushReg = ""
}

func (e *Emitter) emitInstLine(text string) {
	e.lines = append(e.lines, "        "+text)
	e.pos += InstSize
}

// WriteData emits a data directive of the given words, advancing the
// position by len(words)*DataSize and padding to the next InstSize
// boundary so following code stays instruction-aligned.
func (e *Emitter) WriteData(label string, words []uint16) {
	e.flushPending()
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("0x%04x", w)
	}
	if label != "" {
		e.lines = append(e.lines, label+":")
	}
	e.lines = append(e.lines, "        DATA "+strings.Join(parts, " "))
	e.pos += len(words) * DataSize
	if rem := e.pos % InstSize; rem != 0 {
		e.pos += InstSize - rem
	}
}

// WriteDataRef emits a single data word holding a reference (label) to
// another location, such as a global's address-of-data-block slot.
func (e *Emitter) WriteDataRef(label, ref string) {
	e.flushPending()
	if label != "" {
		e.lines = append(e.lines, label+":")
	}
	e.lines = append(e.lines, "        DATA "+ref)
	e.pos += DataSize
	if rem := e.pos % InstSize; rem != 0 {
		e.pos += InstSize - rem
	}
}

// GetUnusedLabel returns base if it is unused, else the first base<n>
// (n starting at 1) not yet returned, and marks the result used.
func (e *Emitter) GetUnusedLabel(base string) string {
	if !e.usedLabels[base] {
		e.usedLabels[base] = true
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s%d", base, n)
		if !e.usedLabels[candidate] {
			e.usedLabels[candidate] = true
			return candidate
		}
	}
}

func (e *Emitter) HasLabel(name string) bool { return e.usedLabels[name] }

func (e *Emitter) AddLabel(name string) { e.usedLabels[name] = true }

// Label emits a bare `name:` line.
func (e *Emitter) Label(name string) { e.Writeln(name + ":") }

// String renders the accumulated program, flushing any pending PUSH.
func (e *Emitter) String() string {
	e.flushPending()
	return strings.Join(e.lines, "\n") + "\n"
}
