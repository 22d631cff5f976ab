package parser

import (
	"testing"

	"github.com/sweeter-byte/pl0/internal/code"
	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/lexer"
)

func parseSource(t *testing.T, source string) (*Parser, *diag.Collector) {
	t.Helper()
	buf := lexer.FromString(source)
	c := &diag.Collector{}
	lx := lexer.New(buf, c)
	tokens := lx.Tokenize()
	p := New(tokens, c)
	p.Parse()
	return p, c
}

func TestSimpleProgramCompilesCleanly(t *testing.T) {
	src := `
program test;
const max := 10;
var x, y;
begin
  x := 1;
  y := max + x;
  write(y)
end
`
	_, c := parseSource(t, src)
	if len(c.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", c.Diagnostics)
	}
}

func TestUndeclaredIdentifierReported(t *testing.T) {
	src := `
program test;
begin
  x := 1
end
`
	_, c := parseSource(t, src)
	found := false
	for _, d := range c.Diagnostics {
		if d.Message == "use of undeclared identifier 'x'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected undeclared identifier diagnostic, got %v", c.Diagnostics)
	}
}

func TestRedeclarationReported(t *testing.T) {
	src := `
program test;
var x, x;
begin
  x := 1
end
`
	_, c := parseSource(t, src)
	found := false
	for _, d := range c.Diagnostics {
		if d.Message == "redeclaration of 'x'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected redeclaration diagnostic, got %v", c.Diagnostics)
	}
}

func TestAssignToConstantReported(t *testing.T) {
	src := `
program test;
const c := 1;
begin
  c := 2
end
`
	_, c := parseSource(t, src)
	found := false
	for _, d := range c.Diagnostics {
		if d.Message == "cannot assign to constant 'c'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected constant-assignment diagnostic, got %v", c.Diagnostics)
	}
}

func TestEqualsInsteadOfAssignSuggestsFix(t *testing.T) {
	src := `
program test;
var x;
begin
  x = 5
end
`
	_, c := parseSource(t, src)
	if len(c.Diagnostics) == 0 {
		t.Fatal("expected a diagnostic for '=' used as assignment")
	}
	if c.Diagnostics[0].Message == "" {
		t.Fatal("expected a nonempty message")
	}
	if c.Diagnostics[0].Fix != ":=" {
		t.Fatalf("expected fix-it ':=', got %q", c.Diagnostics[0].Fix)
	}
}

func TestProcedureCallGeneratesLevelDiff(t *testing.T) {
	src := `
program test;
var x;
procedure inc();
begin
  x := x + 1
end;
begin
  call inc()
end
`
	p, c := parseSource(t, src)
	if len(c.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", c.Diagnostics)
	}
	if p.HasErrors() {
		t.Fatal("expected clean parse")
	}
	// The main body calls a procedure of its own level (difference 0); the
	// procedure stores into x one level out (difference 1).
	sawCall, sawOuterStore := false, false
	for _, instr := range p.Program().Instructions {
		if instr.Op == code.CAL && instr.Level == 0 {
			sawCall = true
		}
		if instr.Op == code.STO && instr.Level == 1 {
			sawOuterStore = true
		}
	}
	if !sawCall || !sawOuterStore {
		t.Fatalf("expected CAL with level 0 and STO with level 1, got %v", p.Program().Instructions)
	}
}

func TestMissingSemicolonBetweenStatementsReported(t *testing.T) {
	src := `
program test;
var x;
begin
  x := 1
  x := 2
end
`
	_, c := parseSource(t, src)
	if len(c.Diagnostics) == 0 {
		t.Fatal("expected a missing ';' diagnostic")
	}
}
