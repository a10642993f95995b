// Package stepmock implements the ordered step-observer chain spec.md §4.6
// describes: breakpoints, fake-call interception, per-address and
// every-step hooks, and a register-dump logger, composed with
// short-circuit-on-first-non-RUN semantics.
//
// Grounded on the teacher's pkg/search pruning chain (a prioritized list of
// checks, first match wins) for the short-circuit composition idiom, and
// on the CPU's own LastInstr tag (pkg/cpu/state.go) for distinguishing a
// genuine subroutine call from a plain jump.
package stepmock

import (
	"fmt"
	"io"

	"github.com/oisee/z80-harness/pkg/cpu"
)

// Verdict is what a step observer decides for the instruction about to
// execute.
type Verdict int

const (
	// Run lets the harness proceed with the normal step.
	Run Verdict = iota
	// Break stops the run loop before executing this instruction.
	Break
	// Skip suppresses execution of this instruction for this iteration
	// (the observer itself already did whatever side effect belongs here).
	Skip
)

func (v Verdict) String() string {
	switch v {
	case Break:
		return "BREAK"
	case Skip:
		return "SKIP"
	default:
		return "RUN"
	}
}

// Observer inspects the CPU before an instruction executes and decides the
// step's fate. It may mutate c (registers, memory via c.Bus) when it
// returns Skip.
type Observer func(c *cpu.CPU) Verdict

// Chain runs its observers in order; the first non-Run verdict wins. An
// empty chain always returns Run.
type Chain struct {
	observers []Observer
}

// Add appends an observer to the end of the chain. Callers that want the
// documented priority order (breakpoint → fake-call → on-step →
// on-every-step → logger) should add observers in that order.
func (c *Chain) Add(o Observer) {
	c.observers = append(c.observers, o)
}

// Run evaluates the chain against the current CPU state.
func (c *Chain) Run(cp *cpu.CPU) Verdict {
	for _, o := range c.observers {
		if v := o(cp); v != Run {
			return v
		}
	}
	return Run
}

// Breakpoint returns an observer that fires BREAK when PC == addr.
func Breakpoint(addr uint16) Observer {
	return func(c *cpu.CPU) Verdict {
		if c.State.PC == addr {
			return Break
		}
		return Run
	}
}

// FakeCall returns an observer that, when PC == addr and the instruction
// that just landed here was a CALL, RST, or accepted interrupt, invokes fn
// as the subroutine's entire effect, then simulates the matching RET: pops
// a 16-bit return address off the stack, loads it into PC, tags
// LastInstr as a RET, and reports Skip so the harness does not also
// execute whatever opcode lives at addr.
func FakeCall(addr uint16, fn func(c *cpu.CPU)) Observer {
	return func(c *cpu.CPU) Verdict {
		if c.State.PC != addr {
			return Run
		}
		switch c.State.LastInstr {
		case cpu.LastCall, cpu.LastRst, cpu.LastInt:
		default:
			return Run
		}
		if fn != nil {
			fn(c)
		}
		lo := uint16(c.Bus.MemRead(c.State.SP))
		hi := uint16(c.Bus.MemRead(c.State.SP + 1))
		c.State.SP += 2
		c.State.PC = hi<<8 | lo
		c.State.LastInstr = cpu.LastRet
		return Skip
	}
}

// OnStep returns an observer that defers to fn only when PC == addr.
func OnStep(addr uint16, fn func(c *cpu.CPU) Verdict) Observer {
	return func(c *cpu.CPU) Verdict {
		if c.State.PC != addr {
			return Run
		}
		return fn(c)
	}
}

// OnEveryStep returns an observer that defers to fn unconditionally.
func OnEveryStep(fn func(c *cpu.CPU) Verdict) Observer {
	return func(c *cpu.CPU) Verdict {
		return fn(c)
	}
}

// Logger returns an observer that writes one brief register-dump line to w
// on every step and always returns Run.
func Logger(w io.Writer) Observer {
	return func(c *cpu.CPU) Verdict {
		fmt.Fprintln(w, cpu.FormatBrief(c.State))
		return Run
	}
}
