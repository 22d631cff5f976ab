// Package vm implements the stack machine that executes code produced by
// the parser: a flat data stack of activation records linked by static and
// dynamic pointers, and a fetch-execute loop over the ten PL/0 opcodes.
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sweeter-byte/pl0/internal/code"
)

// stackSize bounds the data stack; exceeding it is a runtime error rather
// than a panic.
const stackSize = 10000

// Machine executes a code.Program against a data stack, an instruction
// pointer P, a stack pointer T, and a base pointer B.
type Machine struct {
	Program *code.Program

	stack [stackSize]int64
	p, t, b int

	in  *bufio.Reader
	out io.Writer

	running bool
	err     error

	Debug bool
	trace io.Writer
}

// New creates a Machine ready to Run prog, reading RED input from in and
// writing WRT output to out.
func New(prog *code.Program, in io.Reader, out io.Writer) *Machine {
	return &Machine{
		Program: prog,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// SetTrace enables per-instruction execution tracing to w, used by the
// driver's --debug flag.
func (m *Machine) SetTrace(w io.Writer) {
	m.trace = w
	m.Debug = w != nil
}

// Err returns the runtime error that stopped execution, if any. A program
// that runs to completion via OPR 0 RET at the outermost level has no error.
func (m *Machine) Err() error { return m.err }

// base walks the static-link chain l levels up from b: the address of the
// activation record whose declaring scope is l levels enclosing the current
// one.
func (m *Machine) base(l int) int {
	b := m.b
	for ; l > 0; l-- {
		b = int(m.stack[b+2])
	}
	return b
}

// Run executes the program from address 0 until a RET at level 0 unwinds
// past the outermost frame, or a runtime error occurs.
func (m *Machine) Run() error {
	m.t = -1
	m.b = 0
	m.p = 0
	m.running = true

	for m.running && m.p < len(m.Program.Instructions) {
		if err := m.step(); err != nil {
			m.err = err
			m.running = false
			return err
		}
		if m.Debug && m.trace != nil {
			fmt.Fprintf(m.trace, "      stack: %v\n", m.stack[:m.t+1])
		}
	}
	return nil
}

func (m *Machine) step() error {
	instr := m.Program.Instructions[m.p]
	if m.Debug && m.trace != nil {
		fmt.Fprintf(m.trace, "%4d  %-24s  t=%-4d b=%-4d\n", m.p, instr, m.t, m.b)
	}
	m.p++

	switch instr.Op {
	case code.LIT:
		return m.executeLIT(instr)
	case code.OPR:
		return m.executeOPR(instr)
	case code.LOD:
		return m.executeLOD(instr)
	case code.STO:
		return m.executeSTO(instr)
	case code.CAL:
		return m.executeCAL(instr)
	case code.INT:
		return m.executeINT(instr)
	case code.JMP:
		return m.executeJMP(instr)
	case code.JPC:
		return m.executeJPC(instr)
	case code.RED:
		return m.executeRED(instr)
	case code.WRT:
		return m.executeWRT(instr)
	default:
		return fmt.Errorf("unknown opcode %v at address %d", instr.Op, m.p-1)
	}
}

func (m *Machine) push(v int64) error {
	if m.t+1 >= stackSize {
		return errors.New("stack overflow")
	}
	m.t++
	m.stack[m.t] = v
	return nil
}

func (m *Machine) pop() int64 {
	v := m.stack[m.t]
	m.t--
	return v
}

func (m *Machine) executeLIT(instr code.Instruction) error {
	return m.push(int64(instr.Address))
}

func (m *Machine) executeOPR(instr code.Instruction) error {
	switch instr.Address {
	case code.RET:
		m.t = m.b - 1
		ra := m.stack[m.b]
		m.b = int(m.stack[m.b+1])
		m.p = int(ra)
		if m.p == 0 && m.t < 0 {
			m.running = false
		}
	case code.NEG:
		m.stack[m.t] = -m.stack[m.t]
	case code.ADD:
		v := m.pop()
		m.stack[m.t] += v
	case code.SUB:
		v := m.pop()
		m.stack[m.t] -= v
	case code.MUL:
		v := m.pop()
		m.stack[m.t] *= v
	case code.DIV:
		v := m.pop()
		if v == 0 {
			return errors.New("division by zero")
		}
		m.stack[m.t] /= v
	case code.ODD:
		if m.stack[m.t]%2 != 0 {
			m.stack[m.t] = 1
		} else {
			m.stack[m.t] = 0
		}
	case code.EQ:
		v := m.pop()
		m.stack[m.t] = boolToInt(m.stack[m.t] == v)
	case code.NEQ:
		v := m.pop()
		m.stack[m.t] = boolToInt(m.stack[m.t] != v)
	case code.LT:
		v := m.pop()
		m.stack[m.t] = boolToInt(m.stack[m.t] < v)
	case code.GEQ:
		v := m.pop()
		m.stack[m.t] = boolToInt(m.stack[m.t] >= v)
	case code.GT:
		v := m.pop()
		m.stack[m.t] = boolToInt(m.stack[m.t] > v)
	case code.LEQ:
		v := m.pop()
		m.stack[m.t] = boolToInt(m.stack[m.t] <= v)
	default:
		return fmt.Errorf("unknown OPR sub-operation %d at address %d", instr.Address, m.p-1)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) executeLOD(instr code.Instruction) error {
	return m.push(m.stack[m.base(instr.Level)+instr.Address])
}

func (m *Machine) executeSTO(instr code.Instruction) error {
	v := m.pop()
	m.stack[m.base(instr.Level)+instr.Address] = v
	return nil
}

// executeCAL writes a new activation record's header into stack[T+1..T+3]
// (return address, dynamic link, static link) without advancing T — the
// callee's own INT 0 S reserves the header along with its locals as part of
// S, since a scope's address counter starts at 3. Only B and P move here.
func (m *Machine) executeCAL(instr code.Instruction) error {
	staticLink := m.base(instr.Level)
	if m.t+3 >= stackSize {
		return errors.New("stack overflow")
	}
	m.stack[m.t+1] = int64(m.p)
	m.stack[m.t+2] = int64(m.b)
	m.stack[m.t+3] = int64(staticLink)
	m.b = m.t + 1
	m.p = instr.Address
	return nil
}

func (m *Machine) executeINT(instr code.Instruction) error {
	if m.t+instr.Address >= stackSize {
		return errors.New("stack overflow")
	}
	m.t += instr.Address
	return nil
}

func (m *Machine) executeJMP(instr code.Instruction) error {
	m.p = instr.Address
	return nil
}

func (m *Machine) executeJPC(instr code.Instruction) error {
	v := m.pop()
	if v == 0 {
		m.p = instr.Address
	}
	return nil
}

func (m *Machine) executeRED(instr code.Instruction) error {
	fmt.Fprint(m.out, "? ")
	var v int64
	_, err := fmt.Fscan(m.in, &v)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	m.stack[m.base(instr.Level)+instr.Address] = v
	return nil
}

func (m *Machine) executeWRT(instr code.Instruction) error {
	v := m.pop()
	fmt.Fprintln(m.out, v)
	return nil
}
