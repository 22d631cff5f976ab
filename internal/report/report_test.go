package report

import (
	"bytes"
	"testing"

	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/symtab"
	"github.com/sweeter-byte/pl0/internal/token"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	toks := []token.Token{token.New(token.PROGRAM, "program", 1, 1)}
	syms := []symtab.Symbol{{Name: "x", Category: symtab.Variable, Level: 0, Payload: 3}}
	diags := []diag.Diagnostic{{Level: diag.Warning, Message: "unused variable 'x'"}}

	r := New("test.pl0", toks, syms, diags, true)
	data, err := r.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SourceFile != "test.pl0" || !got.Success {
		t.Fatalf("got %+v", got)
	}
	if len(got.Tokens) != 1 || got.Tokens[0].Type != "program" {
		t.Fatalf("tokens round-trip failed: %+v", got.Tokens)
	}
	if len(got.Symbols) != 1 || got.Symbols[0].Name != "x" {
		t.Fatalf("symbols round-trip failed: %+v", got.Symbols)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Message != "unused variable 'x'" {
		t.Fatalf("diagnostics round-trip failed: %+v", got.Diagnostics)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	toks := []token.Token{token.New(token.PROGRAM, "program", 1, 1)}
	syms := []symtab.Symbol{{Name: "x", Category: symtab.Variable, Level: 0, Payload: 3}}
	diags := []diag.Diagnostic{{Level: diag.Warning, Message: "unused variable 'x'"}}

	r := New("test.pl0", toks, syms, diags, true)

	first, err := r.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := r.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected two encodings of the same report to be byte-identical, got %x vs %x", first, second)
	}
}
