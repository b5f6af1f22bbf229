package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestErrorfFormatsWithLine(t *testing.T) {
	err := Errorf(12, "bad thing: %s", "oops")
	if err.Error() != "12: bad thing: oops" {
		t.Errorf("got %q", err.Error())
	}
}

func TestErrorfZeroLineOmitsPrefix(t *testing.T) {
	err := Errorf(0, "no entry point")
	if err.Error() != "no entry point" {
		t.Errorf("got %q", err.Error())
	}
}

func TestCollectSinkAccumulatesWarnings(t *testing.T) {
	sink := &CollectSink{}
	sink.Warn(3, "index %d out of bounds", 7)
	sink.Warn(4, "division by zero")
	if len(sink.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(sink.Warnings))
	}
	if sink.Warnings[0].Line != 3 || sink.Warnings[0].Msg != "index 7 out of bounds" {
		t.Errorf("unexpected first warning: %+v", sink.Warnings[0])
	}
}

func TestStdSinkWarnWritesUncoloredWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStdSink(&buf)
	sink.Warn(5, "division by zero")
	out := buf.String()
	if !strings.Contains(out, "Warning:5:") || !strings.Contains(out, "division by zero") {
		t.Errorf("got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no ANSI color codes for a non-terminal writer, got %q", out)
	}
}

func TestStdSinkWarnAnchorsSourceLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStdSink(&buf)
	sink.SetSource("line one\nline two\nline three")
	sink.Warn(2, "something")
	out := buf.String()
	if !strings.Contains(out, "line two") {
		t.Errorf("expected the offending source line beneath the warning, got %q", out)
	}
}

func TestPrintErrorFormat(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, Errorf(9, "syntax error"), false)
	if buf.String() != "Error:9: syntax error\n" {
		t.Errorf("got %q", buf.String())
	}
}
