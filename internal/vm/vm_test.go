package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sweeter-byte/pl0/internal/code"
	"github.com/sweeter-byte/pl0/internal/lexer"
	"github.com/sweeter-byte/pl0/internal/parser"
)

func compile(t *testing.T, source string) *code.Program {
	t.Helper()
	buf := lexer.FromString(source)
	lx := lexer.New(buf, nil)
	tokens := lx.Tokenize()
	p := parser.New(tokens, nil)
	if !p.Parse() {
		t.Fatalf("expected clean compile of:\n%s", source)
	}
	return p.Program()
}

func TestArithmeticAndWrite(t *testing.T) {
	prog := compile(t, `
program test;
var x;
begin
  x := 2 + 3 * 4;
  write(x)
end
`)
	var out bytes.Buffer
	m := New(prog, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "14" {
		t.Fatalf("got %q, want 14", got)
	}
}

func TestWhileLoopCounts(t *testing.T) {
	prog := compile(t, `
program test;
var i;
begin
  i := 0;
  while i < 5 do
  begin
    i := i + 1
  end;
  write(i)
end
`)
	var out bytes.Buffer
	m := New(prog, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "5" {
		t.Fatalf("got %q, want 5", got)
	}
}

func TestProcedureCallMutatesEnclosingVariable(t *testing.T) {
	prog := compile(t, `
program test;
var x;
procedure inc();
begin
  x := x + 1
end;
begin
  x := 0;
  call inc();
  call inc();
  write(x)
end
`)
	var out bytes.Buffer
	m := New(prog, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "2" {
		t.Fatalf("got %q, want 2", got)
	}
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	prog := compile(t, `
program test;
var x;
begin
  x := 1 / 0;
  write(x)
end
`)
	var out bytes.Buffer
	m := New(prog, strings.NewReader(""), &out)
	if err := m.Run(); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestReadFeedsVariable(t *testing.T) {
	prog := compile(t, `
program test;
var x;
begin
  read(x);
  write(x + 1)
end
`)
	var out bytes.Buffer
	m := New(prog, strings.NewReader("41\n"), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "? ") {
		t.Fatalf("expected read to prompt with '? ', got %q", out.String())
	}
	if got := strings.TrimSpace(strings.TrimPrefix(out.String(), "? ")); got != "42" {
		t.Fatalf("got %q, want 42", got)
	}
}

func TestDeepSelfRecursionDoesNotOverflowStack(t *testing.T) {
	prog := compile(t, `
program test;
var n, count;
procedure loop();
begin
  if n > 0 then
  begin
    n := n - 1;
    count := count + 1;
    call loop()
  end
end;
begin
  n := 3000;
  count := 0;
  call loop();
  write(count)
end
`)
	var out bytes.Buffer
	m := New(prog, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v (a correctly-accounted call frame should reach this depth well within the stack)", err)
	}
	if got := strings.TrimSpace(out.String()); got != "3000" {
		t.Fatalf("got %q, want 3000", got)
	}
}

func TestOddPredicate(t *testing.T) {
	prog := compile(t, `
program test;
var x;
begin
  if odd 7 then
    x := 1
  else
    x := 0;
  write(x)
end
`)
	var out bytes.Buffer
	m := New(prog, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "1" {
		t.Fatalf("got %q, want 1", got)
	}
}
