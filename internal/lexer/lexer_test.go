package lexer

import (
	"testing"

	"github.com/xplshn/consolite-compiler/internal/token"
)

func collect(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.IsEOF() {
			return toks
		}
	}
}

func TestKeywordsAndPunctuation(t *testing.T) {
	toks := collect("void uint16 if else for while do break continue return goto ( ) { } [ ] ; , :")
	expected := []token.Kind{
		token.Void, token.Uint16, token.If, token.Else, token.For, token.While,
		token.Do, token.Break, token.Continue, token.Return, token.Goto,
		token.LParen, token.RParen, token.LBrace, token.RBrace,
		token.LBracket, token.RBracket, token.Semi, token.Comma, token.Colon,
		token.EOF,
	}
	if len(toks) != len(expected) {
		t.Fatalf("token count: got %d, want %d", len(toks), len(expected))
	}
	for i, want := range expected {
		if toks[i].Kind != want {
			t.Errorf("token[%d]: got %s, want %s", i, toks[i].Kind, want)
		}
	}
}

func TestTwoCharOperatorsPreferLongestMatch(t *testing.T) {
	toks := collect("|| && == != <= >= << >> | & = < >")
	expected := []token.Kind{
		token.OrOr, token.AndAnd, token.EqEq, token.Neq, token.Lte, token.Gte,
		token.Shl, token.Shr, token.Pipe, token.Amp, token.Assign, token.Lt, token.Gt,
		token.EOF,
	}
	for i, want := range expected {
		if toks[i].Kind != want {
			t.Errorf("token[%d]: got %s (%q), want %s", i, toks[i].Kind, toks[i].Text, want)
		}
	}
}

func TestIdentifiersAndBuiltinNamesAreOrdinaryIdents(t *testing.T) {
	toks := collect("foo COLOR PIXEL bar42")
	for i, name := range []string{"foo", "COLOR", "PIXEL", "bar42"} {
		if toks[i].Kind != token.Ident || toks[i].Text != name {
			t.Errorf("token[%d]: got (%s, %q), want (identifier, %q)", i, toks[i].Kind, toks[i].Text, name)
		}
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := collect("a // line comment\nb /* block\ncomment */ c")
	var names []string
	for _, tk := range toks {
		if tk.Kind == token.Ident {
			names = append(names, tk.Text)
		}
	}
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("got idents %v, want [a b c]", names)
	}
}

func TestBlockCommentTracksLines(t *testing.T) {
	toks := collect("a /* spans\ntwo\nlines */ b")
	if toks[1].Line != 3 {
		t.Errorf("line after multi-line block comment: got %d, want 3", toks[1].Line)
	}
}

func TestLineTracking(t *testing.T) {
	toks := collect("a\nb\n\nc")
	want := []int{1, 2, 4}
	for i, line := range want {
		if toks[i].Line != line {
			t.Errorf("token[%d] %q: got line %d, want %d", i, toks[i].Text, toks[i].Line, line)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("foo bar")
	p1 := l.Peek()
	p2 := l.Peek()
	if p1 != p2 {
		t.Fatalf("Peek is not idempotent: %v != %v", p1, p2)
	}
	n := l.Next()
	if n != p1 {
		t.Fatalf("Next after Peek: got %v, want %v", n, p1)
	}
	if l.Next().Text != "bar" {
		t.Fatalf("Next did not advance past the peeked token")
	}
}

func TestParseNumberDecimalHexBinary(t *testing.T) {
	cases := []struct {
		text string
		want uint16
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"0x1A", 0x1A, true},
		{"0X1a", 0x1A, true},
		{"0b101", 5, true},
		{"65536", 0, true}, // truncates, still "ok"
		{"0xg", 0, false},
		{"0x", 0, false},
		{"0b2", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.text)
		if ok != c.ok {
			t.Errorf("ParseNumber(%q) ok: got %v, want %v", c.text, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseNumber(%q): got %d, want %d", c.text, got, c.want)
		}
	}
}

func TestParseNumberTruncatesTo16Bits(t *testing.T) {
	got, ok := ParseNumber("65537")
	if !ok {
		t.Fatalf("ParseNumber(65537) should succeed with truncation")
	}
	if got != 1 {
		t.Errorf("65537 mod 65536: got %d, want 1", got)
	}
}
