// Package harness implements the Execution Harness spec.md §4.4 describes:
// the controller that owns a CPU, a 64 KiB backing memory, a symbol
// table, and a step-mock chain, and drives run loops with composable stop
// conditions.
//
// Grounded on the teacher's top-level Optimizer/worker wiring for the
// "owns a CPU and runs it to completion" shape, generalized from a
// search-mutation loop to the run-loop-with-stop-conditions spec.md §4.4
// specifies, and on retrogolib's emulator-plus-symbol-table pattern for
// the symbol resolution and memory-loading surface.
package harness

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oisee/z80-harness/pkg/asm"
	"github.com/oisee/z80-harness/pkg/bus"
	"github.com/oisee/z80-harness/pkg/cpu"
	"github.com/oisee/z80-harness/pkg/stepmock"
)

// DefaultSteps is the run loop's instruction cap when RunOptions.Steps is
// left at zero (spec.md §5: "Timeouts are expressed as steps... default
// 10,000,000").
const DefaultSteps = 10_000_000

// Harness owns one CPU, one 64 KiB backing memory, and the bookkeeping
// spec.md §4.4 describes. Construct a fresh Harness per test scenario
// (spec.md §5: "no locking is required because no concurrency exists").
type Harness struct {
	CPU    *cpu.CPU
	Bus    *bus.Bus
	Chain  stepmock.Chain
	Breaks map[uint16]bool
	Syms   map[string]uint16

	// DefaultCallSP is the stack pointer Call() installs before invoking
	// Run with Call=true, unless RunOptions.SP overrides it.
	DefaultCallSP uint16
}

// New returns a Harness with a fresh CPU wired to a fresh 64 KiB bus.
func New() *Harness {
	b := bus.New()
	return &Harness{
		CPU:           cpu.New(b),
		Bus:           b,
		Breaks:        map[uint16]bool{},
		Syms:          map[string]uint16{},
		DefaultCallSP: 0xFF00,
	}
}

// AddrOrSymbol accepts either a literal 16-bit address or a case-insensitive
// symbol name already present in the harness's symbol table.
type AddrOrSymbol interface{}

// GetAddress resolves v (a uint16/int or a symbol name) to an address.
func (h *Harness) GetAddress(v AddrOrSymbol) (uint16, error) {
	switch a := v.(type) {
	case uint16:
		return a, nil
	case int:
		return uint16(a), nil
	case string:
		if addr, ok := h.Syms[strings.ToUpper(a)]; ok {
			return addr, nil
		}
		return 0, fmt.Errorf("symbol %s not found", a)
	default:
		return 0, fmt.Errorf("harness: unsupported address value %#v", v)
	}
}

// Load writes bytes into backing memory starting at the resolved address.
func (h *Harness) Load(data []byte, start AddrOrSymbol) error {
	addr, err := h.GetAddress(start)
	if err != nil {
		return err
	}
	for i, b := range data {
		h.Bus.Memory[(int(addr)+i)&0xFFFF] = b
	}
	return nil
}

// LoadProgram merges a compiled program's symbol table into the harness's
// and loads its bytes at address 0 (the assembler collaborator honors org
// directives internally by padding data).
func (h *Harness) LoadProgram(p *asm.Program) error {
	for name, addr := range p.Symbols {
		h.Syms[strings.ToUpper(name)] = addr
	}
	return h.Load(p.Data, uint16(0))
}

// Compile assembles source via the asm collaborator and loads the result.
func (h *Harness) Compile(source string, start ...uint16) error {
	base := uint16(0)
	if len(start) > 0 {
		base = start[0]
	}
	p, err := asm.Assemble(source, base)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	return h.LoadProgram(p)
}

// CompileFile reads path and compiles its contents.
func (h *Harness) CompileFile(path string, start ...uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return h.Compile(string(data), start...)
}

// GetMemory returns a copy of length bytes of backing memory starting at
// the resolved address.
func (h *Harness) GetMemory(start AddrOrSymbol, length int) ([]byte, error) {
	addr, err := h.GetAddress(start)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = h.Bus.Memory[(int(addr)+i)&0xFFFF]
	}
	return out, nil
}

// SetBreakpoint adds addr to the breakpoint set.
func (h *Harness) SetBreakpoint(addr AddrOrSymbol) error {
	a, err := h.GetAddress(addr)
	if err != nil {
		return err
	}
	h.Breaks[a] = true
	return nil
}

// ClearBreakpoint removes addr from the breakpoint set.
func (h *Harness) ClearBreakpoint(addr AddrOrSymbol) error {
	a, err := h.GetAddress(addr)
	if err != nil {
		return err
	}
	delete(h.Breaks, a)
	return nil
}

// MockCall installs a fake-call observer at addr (spec.md §4.6).
func (h *Harness) MockCall(addr AddrOrSymbol, fn func(c *cpu.CPU)) error {
	a, err := h.GetAddress(addr)
	if err != nil {
		return err
	}
	h.Chain.Add(stepmock.FakeCall(a, fn))
	return nil
}

// MockStep installs an observer firing only when PC == addr.
func (h *Harness) MockStep(addr AddrOrSymbol, fn func(c *cpu.CPU) stepmock.Verdict) error {
	a, err := h.GetAddress(addr)
	if err != nil {
		return err
	}
	h.Chain.Add(stepmock.OnStep(a, fn))
	return nil
}

// MockAllSteps installs an observer firing on every step.
func (h *Harness) MockAllSteps(fn func(c *cpu.CPU) stepmock.Verdict) {
	h.Chain.Add(stepmock.OnEveryStep(fn))
}

// RunOptions configures Run/Call. The zero value means "no entry point
// override, default step cap, not a call, no coverage tracking".
type RunOptions struct {
	Steps    int
	Call     bool
	SP       AddrOrSymbol
	Coverage map[uint16]int
	Logger   func(line string)
}

// RunResult is the triple spec.md §4.4/§6 specifies Run/Call return.
type RunResult struct {
	Instructions int
	TStates      int
	Coverage     map[uint16]int
}

// Run executes the run loop from start (or the current PC if start is
// nil) following the exact seven-step ordering spec.md §4.4 lays out.
func (h *Harness) Run(start AddrOrSymbol, opts RunOptions) (RunResult, error) {
	if start != nil {
		addr, err := h.GetAddress(start)
		if err != nil {
			return RunResult{}, err
		}
		h.CPU.State.PC = addr
	}

	steps := opts.Steps
	if steps == 0 {
		steps = DefaultSteps
	}
	entrySP := h.CPU.State.SP

	res := RunResult{Coverage: opts.Coverage}

	for {
		s := h.CPU.State

		// 1. Halted.
		if s.Halted {
			break
		}
		// 2. Step budget.
		if res.Instructions >= steps {
			break
		}
		// 3. Breakpoint.
		if h.Breaks[s.PC] {
			break
		}
		// 4. Step-mock chain.
		verdict := h.Chain.Run(h.CPU)
		if verdict == stepmock.Break {
			break
		}
		skip := verdict == stepmock.Skip
		// 5. Call-return stop.
		if opts.Call && s.LastInstr == cpu.LastRet && s.SP == (entrySP+2)&0xFFFF {
			break
		}
		// 6. Optional logging/coverage.
		if opts.Logger != nil {
			opts.Logger(cpu.FormatBrief(s))
		}
		if res.Coverage != nil {
			res.Coverage[s.PC]++
		}

		if skip {
			res.Instructions++
			continue
		}

		// 7. Execute.
		res.TStates += h.CPU.Step()
		res.Instructions++
	}

	return res, nil
}

// Call sets SP to opts.SP (or DefaultCallSP) then runs with Call=true, the
// conventional way to exercise a subroutine in isolation.
func (h *Harness) Call(start AddrOrSymbol, opts RunOptions) (RunResult, error) {
	sp := h.DefaultCallSP
	if opts.SP != nil {
		a, err := h.GetAddress(opts.SP)
		if err != nil {
			return RunResult{}, err
		}
		sp = a
	}
	h.CPU.State.SP = sp
	opts.Call = true
	return h.Run(start, opts)
}

// ShowRegisters renders the full register file.
func (h *Harness) ShowRegisters() string {
	return cpu.Dump(h.CPU.State)
}

// FormatBriefRegisters renders the compact one-line register dump.
func (h *Harness) FormatBriefRegisters() string {
	return cpu.FormatBrief(h.CPU.State)
}

// DumpMemory renders length bytes starting at the resolved address as a
// hex listing, sixteen bytes per line.
func (h *Harness) DumpMemory(start AddrOrSymbol, length int) (string, error) {
	data, err := h.GetMemory(start, length)
	if err != nil {
		return "", err
	}
	addr, _ := h.GetAddress(start)
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "%04X:", int(addr)+i)
		for _, v := range data[i:end] {
			fmt.Fprintf(&b, " %02X", v)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Snapshot is the in-memory capture SaveMemory/LoadMemory round-trips.
type Snapshot struct {
	Memory  [bus.MemSize]byte
	Symbols map[string]uint16
}

// SaveMemory captures backing memory and the symbol table.
func (h *Harness) SaveMemory() Snapshot {
	snap := Snapshot{Symbols: make(map[string]uint16, len(h.Syms))}
	snap.Memory = h.Bus.Memory
	for k, v := range h.Syms {
		snap.Symbols[k] = v
	}
	return snap
}

// LoadMemory restores a previously captured snapshot.
func (h *Harness) LoadMemory(snap Snapshot) {
	h.Bus.Memory = snap.Memory
	h.Syms = make(map[string]uint16, len(snap.Symbols))
	for k, v := range snap.Symbols {
		h.Syms[k] = v
	}
}

// ParseNumber parses the literal forms the assembler and harness callers
// both accept: decimal, $hex, 0xhex.
func ParseNumber(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 16)
		return uint16(v), err
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 16)
		return uint16(v), err
	default:
		v, err := strconv.ParseUint(s, 10, 16)
		return uint16(v), err
	}
}
