// Package asm is the assembler collaborator spec.md §1 calls out as an
// external interface to the harness ("the assembler that converts source
// text to machine code + symbol table") rather than part of the CORE, but
// spec.md §6 still needs a concrete Program shape to compile/load against,
// and the six end-to-end scenarios in §8 need something that can actually
// assemble them. This is a minimal, two-pass Z80 assembler covering most
// of the mnemonic set the interpreter implements; ADD IX,rr, ADD IY,rr,
// OUT (C),0 and the flags-only IN (C) are not accepted.
//
// Grounded on minzc's pkg/z80asm register/condition naming (types.go) for
// vocabulary, generalized into a label/org/equ two-pass assembler in the
// shape described by the pack's other assembler-adjacent code.
package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Program is the compiled-program shape spec.md §6 describes: a byte
// buffer implicitly origined at 0, plus a symbol table.
type Program struct {
	Data    []byte
	Symbols map[string]uint16
}

var reg8Code = map[string]uint8{
	"B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5, "(HL)": 6, "A": 7,
}

var reg16Code = map[string]uint8{
	"BC": 0, "DE": 1, "HL": 2, "SP": 3,
}

var reg16QQCode = map[string]uint8{
	"BC": 0, "DE": 1, "HL": 2, "AF": 3,
}

var condCode = map[string]uint8{
	"NZ": 0, "Z": 1, "NC": 2, "C": 3, "PO": 4, "PE": 5, "P": 6, "M": 7,
}

var aluCode = map[string]uint8{
	"ADD": 0, "ADC": 1, "SUB": 2, "SBC": 3, "AND": 4, "XOR": 5, "OR": 6, "CP": 7,
}

var rotCode = map[string]uint8{
	"RLC": 0, "RRC": 1, "RL": 2, "RR": 3, "SLA": 4, "SRA": 5, "SLL": 6, "SRL": 7,
}

type line struct {
	label    string
	mnemonic string
	operands []string
}

// Assemble compiles source into a Program, with bytes laid out starting at
// base (ORG directives move the cursor further within the buffer).
func Assemble(source string, base uint16) (*Program, error) {
	lines, err := parseLines(source)
	if err != nil {
		return nil, err
	}

	symbols := map[string]uint16{}
	type placed struct {
		line line
		addr uint16
	}
	var placements []placed

	addr := base
	maxAddr := base
	resolve0 := func(string) (uint16, bool) { return 0, true }

	for _, ln := range lines {
		if ln.mnemonic == "ORG" {
			v, err := evalNumber(ln.operands[0], symbols)
			if err != nil {
				return nil, err
			}
			addr = v
			continue
		}
		if ln.label != "" {
			symbols[strings.ToUpper(ln.label)] = addr
		}
		if ln.mnemonic == "EQU" {
			v, err := evalNumber(ln.operands[0], symbols)
			if err != nil {
				return nil, err
			}
			symbols[strings.ToUpper(ln.label)] = v
			continue
		}
		if ln.mnemonic == "" {
			continue
		}
		bytes, err := encode(ln.mnemonic, ln.operands, addr, resolve0)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", ln.mnemonic, err)
		}
		placements = append(placements, placed{ln, addr})
		addr += uint16(len(bytes))
		if addr > maxAddr {
			maxAddr = addr
		}
	}

	data := make([]byte, maxAddr)
	resolve := func(name string) (uint16, bool) {
		v, ok := symbols[strings.ToUpper(name)]
		return v, ok
	}

	for _, p := range placements {
		bytes, err := encode(p.line.mnemonic, p.line.operands, p.addr, resolve)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", p.line.mnemonic, err)
		}
		copy(data[p.addr:], bytes)
	}

	return &Program{Data: data, Symbols: symbols}, nil
}

func parseLines(source string) ([]line, error) {
	var out []line
	for _, raw := range strings.Split(source, "\n") {
		if idx := strings.IndexByte(raw, ';'); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		var ln line
		if idx := strings.IndexByte(raw, ':'); idx >= 0 {
			ln.label = strings.TrimSpace(raw[:idx])
			raw = strings.TrimSpace(raw[idx+1:])
		}
		if raw == "" {
			out = append(out, ln)
			continue
		}

		if ln.label == "" {
			if parts := strings.Fields(raw); len(parts) >= 3 && strings.EqualFold(parts[1], "EQU") {
				ln.label = parts[0]
				ln.mnemonic = "EQU"
				ln.operands = []string{strings.Join(parts[2:], " ")}
				out = append(out, ln)
				continue
			}
		}

		fields := strings.SplitN(raw, " ", 2)
		ln.mnemonic = strings.ToUpper(strings.TrimSpace(fields[0]))
		if len(fields) > 1 {
			ln.operands = splitOperands(fields[1])
		}
		out = append(out, ln)
	}
	return out, nil
}

func splitOperands(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

func evalNumber(tok string, symbols map[string]uint16) (uint16, error) {
	if v, ok := symbols[strings.ToUpper(tok)]; ok {
		return v, nil
	}
	return parseLiteral(tok)
}

func parseLiteral(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 16)
		return uint16(v), err
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 16)
		return uint16(v), err
	case strings.HasSuffix(strings.ToUpper(s), "H") && len(s) > 1:
		v, err := strconv.ParseUint(s[:len(s)-1], 16, 16)
		return uint16(v), err
	default:
		v, err := strconv.ParseInt(s, 10, 32)
		return uint16(v), err
	}
}

// resolver looks up a label, returning ok=false if undefined. The
// length-only pre-pass supplies a resolver that always succeeds with a
// placeholder value, so undefined labels are reported by the final pass.
type resolver func(name string) (uint16, bool)

func resolveExpr(tok string, pc uint16, resolve resolver) (uint16, error) {
	tok = strings.TrimSpace(tok)
	if tok == "$" {
		return pc, nil
	}
	if v, err := parseLiteral(tok); err == nil {
		return v, nil
	}
	if v, ok := resolve(tok); ok {
		return v, nil
	}
	return 0, fmt.Errorf("unresolved symbol %q", tok)
}

func isReg8(s string) bool {
	_, ok := reg8Code[strings.ToUpper(s)]
	return ok
}

func indexedOperand(s string) (idxHigh bool, disp string, ok bool) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(u, "(IX") && !strings.HasPrefix(u, "(IY") {
		return false, "", false
	}
	if !strings.HasSuffix(u, ")") {
		return false, "", false
	}
	idxHigh = strings.HasPrefix(u, "(IX")
	inner := u[3 : len(u)-1] // strip "(IX" / "(IY" and trailing ")"
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return idxHigh, "0", true
	}
	return idxHigh, inner, true
}
