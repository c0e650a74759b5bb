// Command mclvm loads an MCL assembly listing and runs it on the virtual
// machine, in the style of cmd/mze's cobra-driven emulator front end.
// Keyboard input for KEYIN is read from stdin in raw mode, the way
// cmd/repl puts the terminal in raw mode for its own interactive loop
// (golang.org/x/term).
package main

import (
	"fmt"
	"os"

	"github.com/mcl-lang/mcl/pkg/vm"
	"github.com/mcl-lang/mcl/pkg/vm/cpu"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	maxCycles int
	verbose   bool
)

// termKeyboard reads single raw bytes from stdin as KEYIN's 6-bit
// character source (pkg/vm/cpu.KeyboardSource).
type termKeyboard struct {
	raw bool
}

func (k *termKeyboard) ReadChar() (uint8, bool) {
	var buf [1]byte
	n, err := os.Stdin.Read(buf[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return buf[0] & 0x3F, true
}

var rootCmd = &cobra.Command{
	Use:   "mclvm [assembly file]",
	Short: "MCL virtual machine",
	Long: `mclvm - MCL virtual machine
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
Loads an MCL assembly listing and runs it on the 32-register,
bit-packed-framebuffer virtual machine.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		kb := &termKeyboard{}
		var oldState *term.State
		if term.IsTerminal(int(os.Stdin.Fd())) {
			oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
			if err == nil {
				defer term.Restore(int(os.Stdin.Fd()), oldState)
			}
		}

		machine := vm.New(kb)
		if err := machine.LoadProgram(string(src)); err != nil {
			return fmt.Errorf("load: %w", err)
		}

		machine.Run(maxCycles)

		state, reason := machine.GetState()
		if verbose {
			fmt.Fprintf(os.Stderr, "state=%s reason=%q\n", state, reason)
		}
		r0, err := machine.GetRegister(cpu.RegReturnValue)
		if err != nil {
			return err
		}
		fmt.Printf("R0 = %d\n", r0)
		return nil
	},
}

func init() {
	rootCmd.Flags().IntVarP(&maxCycles, "max-cycles", "c", 1_000_000, "maximum instructions to execute (0 = unbounded)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print final CPU state")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
