package emitter

import (
	"strings"
	"testing"
)

func TestWriteInstAdvancesPosition(t *testing.T) {
	e := New()
	e.WriteInst("ADD A B")
	e.WriteInst("SUB A B")
	if e.Pos() != 2*InstSize {
		t.Fatalf("got pos %d, want %d", e.Pos(), 2*InstSize)
	}
}

func TestPushPopSameRegisterCollapsesToNothing(t *testing.T) {
	e := New()
	e.WriteInst("PUSH A")
	e.WriteInst("POP A")
	out := e.String()
	if strings.Contains(out, "PUSH") || strings.Contains(out, "POP") {
		t.Fatalf("expected PUSH A; POP A to vanish entirely, got:\n%s", out)
	}
	if e.Pos() != 0 {
		t.Fatalf("collapsed pair should not advance pos, got %d", e.Pos())
	}
}

func TestPushPopDifferentRegistersCollapseToMov(t *testing.T) {
	e := New()
	e.WriteInst("PUSH A")
	e.WriteInst("POP B")
	out := e.String()
	if !strings.Contains(out, "MOV B A") {
		t.Fatalf("expected collapse to 'MOV B A', got:\n%s", out)
	}
	if strings.Contains(out, "PUSH") || strings.Contains(out, "POP") {
		t.Fatalf("expected no literal PUSH/POP in output, got:\n%s", out)
	}
	if e.Pos() != InstSize {
		t.Fatalf("MOV is one instruction, got pos %d", e.Pos())
	}
}

func TestPushFlushedByNonPopFollower(t *testing.T) {
	e := New()
	e.WriteInst("PUSH A")
	e.WriteInst("ADD B C")
	out := e.String()
	if !strings.Contains(out, "PUSH A") || !strings.Contains(out, "ADD B C") {
		t.Fatalf("expected both PUSH A and ADD B C to survive, got:\n%s", out)
	}
	if e.Pos() != 2*InstSize {
		t.Fatalf("got pos %d, want %d", e.Pos(), 2*InstSize)
	}
}

func TestPendingPushFlushedAtEndOfStream(t *testing.T) {
	e := New()
	e.WriteInst("PUSH A")
	out := e.String()
	if !strings.Contains(out, "PUSH A") {
		t.Fatalf("expected trailing PUSH A to be flushed, got:\n%s", out)
	}
}

func TestWriteDataAdvancesAndPadsToInstSize(t *testing.T) {
	e := New()
	e.WriteData("one_word", []uint16{0x2A})
	if e.Pos() != InstSize {
		t.Fatalf("1 word (2 bytes) should pad up to InstSize=%d, got %d", InstSize, e.Pos())
	}
	e2 := New()
	e2.WriteData("two_words", []uint16{1, 2})
	if e2.Pos() != InstSize {
		t.Fatalf("2 words (4 bytes) should land exactly on InstSize=%d, got %d", InstSize, e2.Pos())
	}
}

func TestWriteDataRefEmitsLabelReference(t *testing.T) {
	e := New()
	e.WriteDataRef("ptr", "ptr_data")
	out := e.String()
	if !strings.Contains(out, "ptr:") || !strings.Contains(out, "DATA ptr_data") {
		t.Fatalf("expected a 'ptr:' label and 'DATA ptr_data' line, got:\n%s", out)
	}
}

func TestGetUnusedLabelDeduplicates(t *testing.T) {
	e := New()
	a := e.GetUnusedLabel("loop")
	b := e.GetUnusedLabel("loop")
	c := e.GetUnusedLabel("loop")
	if a != "loop" || b != "loop1" || c != "loop2" {
		t.Fatalf("got (%q, %q, %q), want (loop, loop1, loop2)", a, b, c)
	}
}

func TestLabelWritesBareLine(t *testing.T) {
	e := New()
	e.Label("start")
	out := e.String()
	if strings.TrimSpace(out) != "start:" {
		t.Fatalf("got %q, want %q", out, "start:")
	}
}
