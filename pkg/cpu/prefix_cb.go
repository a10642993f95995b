package cpu

// prefix_cb.go decodes the CB-prefixed table: rotate/shift, BIT, RES, SET
// over the 8 one-byte operand selectors (B,C,D,E,H,L,(HL),A). The DDCB/FDCB
// 4-byte forms in prefix_dd.go reuse cbApply on the displaced byte and then
// mirror the result into a register per spec.md §4.3's "copy-back" rule,
// so the bit-twiddling itself lives here once.

// cbApply executes one CB-style sub-operation (rotate/shift kind 0-7, or
// BIT/RES/SET group 1-3 with bit index n) against v and returns the new
// value to store back (for BIT, the value is unchanged; callers ignore it
// and look at flags instead).
func cbApply(s *State, group, n uint8, v uint8) uint8 {
	switch group {
	case 0:
		switch n {
		case 0:
			return rlc(s, v)
		case 1:
			return rrc(s, v)
		case 2:
			return rl(s, v)
		case 3:
			return rr(s, v)
		case 4:
			return sla(s, v)
		case 5:
			return sra(s, v)
		case 6:
			return sll(s, v)
		default:
			return srl(s, v)
		}
	case 1:
		bit(s, v, n)
		return v
	case 2:
		return v &^ (1 << n)
	default: // 3: SET
		return v | (1 << n)
	}
}

// execCB decodes and executes one CB-prefixed opcode and returns its
// T-state cost.
func (c *CPU) execCB() int {
	op := c.fetch8()
	regCode := op & 0x07
	group := (op >> 6) & 0x03
	n := (op >> 3) & 0x07

	v := c.readReg8(regCode)
	result := cbApply(c.State, group, n, v)

	if group == 1 { // BIT never writes back
		if regCode == 6 {
			return 12
		}
		return 8
	}

	c.writeReg8(regCode, result)
	if regCode == 6 {
		return 15
	}
	return 8
}
