package code

import "testing"

func TestEmitAndBackpatch(t *testing.T) {
	var p Program
	jmp := p.Emit(JMP, 0, 0)
	p.Emit(INT, 0, 3)
	target := p.NextAddress()
	p.Backpatch(jmp, target)

	if p.Instructions[jmp].Address != target {
		t.Fatalf("backpatch: got %d, want %d", p.Instructions[jmp].Address, target)
	}
}

func TestBackpatchOutOfRangeIsNoop(t *testing.T) {
	var p Program
	p.Emit(LIT, 0, 1)
	p.Backpatch(99, 5) // must not panic
	if p.Instructions[0].Address != 1 {
		t.Fatal("out-of-range backpatch mutated an existing instruction")
	}
}

func TestOprStringNamesSubOperation(t *testing.T) {
	i := Instruction{Op: OPR, Level: 0, Address: ADD}
	if got := i.String(); got != "OPR 0 2  ; ADD" {
		t.Fatalf("got %q", got)
	}
}
