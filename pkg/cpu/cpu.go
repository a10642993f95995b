package cpu

import "github.com/oisee/z80-harness/pkg/bus"

// Bus is the narrow interface the interpreter needs from a system bus:
// the four operations spec.md §4.1 defines plus the little-endian
// ReadWord/WriteWord helpers. pkg/bus.Bus satisfies it; the
// harness passes its own *bus.Bus in, so tests can install hooks on it
// directly and the CPU observes them through this interface.
type Bus interface {
	MemRead(addr uint16) uint8
	MemWrite(addr uint16, value uint8)
	IORead(port uint16) uint8
	IOWrite(port uint16, value uint8)
	ReadWord(addr uint16) uint16
	WriteWord(addr uint16, value uint16)
}

var _ Bus = (*bus.Bus)(nil)

// CPU pairs a Register File (State) with a Bus and decodes/executes one
// instruction at a time. It is the "Decoder/Interpreter" component of
// spec.md §2 — about 70% of the spec's functional surface lives here and
// in decode.go/prefix_*.go/block.go/interrupt.go.
type CPU struct {
	State *State
	Bus   Bus
}

// New returns a CPU with power-on register defaults wired to the given bus.
func New(b Bus) *CPU {
	return &CPU{State: NewState(), Bus: b}
}

// Step fetches the byte at PC, executes one instruction (consuming any
// prefix bytes recursively), advances PC past its operands, applies any
// pending DI/EI, and returns the T-states consumed. When halted, it
// returns a fixed cost and leaves all other state untouched (spec.md §4.3).
func (c *CPU) Step() int {
	s := c.State
	if s.Halted {
		return 1
	}

	hadPendingEI := s.PendingEI
	hadPendingDI := s.PendingDI

	tstates := c.decodeExecute()

	// DI/EI take effect exactly after the one instruction following the
	// instruction that issued them (spec.md §3 invariants, §9).
	if hadPendingDI {
		s.IFF1 = false
		s.IFF2 = false
		s.PendingDI = false
	}
	if hadPendingEI {
		s.IFF1 = true
		s.IFF2 = true
		s.PendingEI = false
	}

	s.CycleCounter += tstates
	return tstates
}

// fetch8 reads the byte at PC and advances PC by one (mod 65536).
func (c *CPU) fetch8() uint8 {
	v := c.Bus.MemRead(c.State.PC)
	c.State.PC++
	return v
}

// fetch16 reads a little-endian word starting at PC and advances PC by two.
func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.State.SP--
	c.Bus.MemWrite(c.State.SP, uint8(v>>8))
	c.State.SP--
	c.Bus.MemWrite(c.State.SP, uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.Bus.MemRead(c.State.SP)
	c.State.SP++
	hi := c.Bus.MemRead(c.State.SP)
	c.State.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// readMem16/writeMem16 are the little-endian word helpers for addressing
// modes that read/write memory directly (as opposed to the stack), e.g.
// LD (nn),HL and EX (SP),HL. They delegate to the Bus's own ReadWord/
// WriteWord rather than re-deriving the little-endian arithmetic here.
func (c *CPU) readMem16(addr uint16) uint16 {
	return c.Bus.ReadWord(addr)
}

func (c *CPU) writeMem16(addr uint16, v uint16) {
	c.Bus.WriteWord(addr, v)
}
