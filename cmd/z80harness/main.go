// Command z80harness is a thin CLI wrapper around pkg/harness: assemble a
// source file, run it to completion (or to a breakpoint), and report the
// run result (instruction count, T-states and, with --coverage,
// per-address counts) as JSON, or a register dump with --registers. The
// library is consumed directly by
// test code; this binary exists for ad-hoc exploration of a program
// outside a test, mirroring the shape of the teacher's cmd/z80opt.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/oisee/z80-harness/pkg/harness"
	"github.com/spf13/cobra"
)

func main() {
	var (
		entry     string
		breakAt   string
		maxSteps  int
		coverage  bool
		asCall    bool
		outputRaw bool
	)

	rootCmd := &cobra.Command{
		Use:   "z80harness [file]",
		Short: "Assemble and run a Z80 test program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := harness.New()
			if err := h.CompileFile(args[0]); err != nil {
				return fmt.Errorf("compile %s: %w", args[0], err)
			}

			if breakAt != "" {
				var bp harness.AddrOrSymbol = breakAt
				if n, err := harness.ParseNumber(breakAt); err == nil {
					bp = n
				}
				if err := h.SetBreakpoint(bp); err != nil {
					return err
				}
			}

			opts := harness.RunOptions{Steps: maxSteps}
			if coverage {
				opts.Coverage = map[uint16]int{}
			}

			var start harness.AddrOrSymbol
			if entry != "" {
				start = entry
				if n, err := harness.ParseNumber(entry); err == nil {
					start = n
				}
			}

			var (
				res RunResultView
				err error
			)
			if asCall {
				r, e := h.Call(start, opts)
				res, err = toView(r), e
			} else {
				r, e := h.Run(start, opts)
				res, err = toView(r), e
			}
			if err != nil {
				return err
			}

			if outputRaw {
				fmt.Println(h.ShowRegisters())
				return nil
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	rootCmd.Flags().StringVar(&entry, "entry", "", "entry point (symbol or numeric address); defaults to PC=0")
	rootCmd.Flags().StringVar(&breakAt, "break-at", "", "breakpoint (symbol or numeric address)")
	rootCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "instruction cap (0 = harness default)")
	rootCmd.Flags().BoolVar(&coverage, "coverage", false, "track per-address execution counts")
	rootCmd.Flags().BoolVar(&asCall, "call", false, "stop when the entry point's matching RET executes")
	rootCmd.Flags().BoolVar(&outputRaw, "registers", false, "print a register dump instead of JSON")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// RunResultView is the JSON-friendly projection of harness.RunResult.
type RunResultView struct {
	Instructions int            `json:"instructions_executed"`
	TStates      int            `json:"t_states"`
	Coverage     map[string]int `json:"coverage,omitempty"`
}

func toView(r harness.RunResult) RunResultView {
	v := RunResultView{Instructions: r.Instructions, TStates: r.TStates}
	if len(r.Coverage) > 0 {
		v.Coverage = make(map[string]int, len(r.Coverage))
		for addr, count := range r.Coverage {
			v.Coverage[fmt.Sprintf("%04X", addr)] = count
		}
	}
	return v
}
