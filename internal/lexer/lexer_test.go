package lexer

import (
	"testing"

	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/token"
)

func tokenize(t *testing.T, source string) ([]token.Token, *diag.Collector) {
	t.Helper()
	buf := FromString(source)
	c := &diag.Collector{}
	lx := New(buf, c)
	return lx.Tokenize(), c
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	toks, c := tokenize(t, "program Foo; var x, Count;")
	if len(c.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", c.Diagnostics)
	}
	want := []token.Type{
		token.PROGRAM, token.IDENT, token.SEMICOLON,
		token.VAR, token.IDENT, token.COMMA, token.IDENT, token.SEMICOLON,
		token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v want %v", i, toks[i].Type, w)
		}
	}
	if toks[1].Value != "Foo" {
		t.Errorf("identifier case not preserved: got %q", toks[1].Value)
	}
}

func TestTokenizeOperators(t *testing.T) {
	toks, _ := tokenize(t, ":= <= >= <> < > = + - * / ( ) , ;")
	want := []token.Type{
		token.ASSIGN, token.LEQ, token.GEQ, token.NEQ, token.LT, token.GT, token.EQ,
		token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.LPAREN, token.RPAREN, token.COMMA, token.SEMICOLON, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v want %v", i, toks[i].Type, w)
		}
	}
}

func TestBareColonReportsAssignTypo(t *testing.T) {
	toks, c := tokenize(t, "x : 5")
	if len(c.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %d", len(c.Diagnostics))
	}
	if c.Diagnostics[0].Fix != ":=" {
		t.Errorf("expected fix-it ':=', got %q", c.Diagnostics[0].Fix)
	}
	if toks[1].Type != token.ERROR {
		t.Errorf("expected ERROR token for bare ':', got %v", toks[1].Type)
	}
}

func TestIdentifierCannotStartWithDigitIsCoalesced(t *testing.T) {
	toks, c := tokenize(t, "123abc")
	if len(c.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %d: %v", len(c.Diagnostics), c.Diagnostics)
	}
	if toks[0].Type != token.ERROR || toks[0].Value != "123abc" {
		t.Errorf("expected coalesced ERROR token '123abc', got %v %q", toks[0].Type, toks[0].Value)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	toks, _ := tokenize(t, "var\n  x;")
	// VAR at line 1 col 1, IDENT at line 2 col 3, SEMICOLON at line 2 col 4.
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("VAR position: got %d:%d", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 || toks[1].Column != 3 {
		t.Errorf("IDENT position: got %d:%d", toks[1].Line, toks[1].Column)
	}
}

func TestUnsupportedCharactersReportSuggestion(t *testing.T) {
	toks, c := tokenize(t, "{ comment }")
	if len(c.Diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
	if c.Diagnostics[0].Suggestion == "" {
		t.Error("expected a suggestion for '{'")
	}
	if toks[0].Type != token.ERROR {
		t.Errorf("expected ERROR token, got %v", toks[0].Type)
	}
}

func TestLargeSourceCrossesBufferBoundary(t *testing.T) {
	// Force at least one internal double-buffer refill.
	var b []byte
	for i := 0; i < 2000; i++ {
		b = append(b, []byte("abc 123 ")...)
	}
	toks, c := tokenize(t, string(b))
	if len(c.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", c.Diagnostics)
	}
	// Each "abc 123" produces one IDENT and one INT.
	if len(toks) != 2000*2+1 {
		t.Fatalf("got %d tokens, want %d", len(toks), 2000*2+1)
	}
	if toks[0].Value != "abc" || toks[1].Value != "123" {
		t.Fatalf("unexpected first tokens: %q %q", toks[0].Value, toks[1].Value)
	}
}
