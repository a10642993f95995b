package cpu

import "fmt"

// FormatBrief renders a compact one-line register dump, the shape the
// harness's format_brief_registers and the step mock chain's logger
// observer both need.
func FormatBrief(s *State) string {
	return fmt.Sprintf("PC=%04X AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X IX=%04X IY=%04X",
		s.PC, s.AF(), s.BC(), s.DE(), s.HL(), s.SP, s.IX, s.IY)
}

// Dump renders the full register file, including shadow registers and
// interrupt state, for show_registers-style diagnostics.
func Dump(s *State) string {
	return fmt.Sprintf(
		"PC=%04X SP=%04X\nAF=%04X BC=%04X DE=%04X HL=%04X\nAF'=%04X BC'=%04X DE'=%04X HL'=%04X\nIX=%04X IY=%04X I=%02X R=%02X\nIM=%d IFF1=%v IFF2=%v Halted=%v",
		s.PC, s.SP,
		s.AF(), s.BC(), s.DE(), s.HL(),
		s.AFShadow(), s.BCShadow(), s.DEShadow(), s.HLShadow(),
		s.IX, s.IY, s.I, s.R,
		s.IM, s.IFF1, s.IFF2, s.Halted)
}
