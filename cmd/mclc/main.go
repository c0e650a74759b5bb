// Command mclc drives MCL compilation: fixture selection (standing in
// for a lexer/parser this repository doesn't implement) → pkg/compiler →
// assembly text, in the style of cmd/minzc's cobra-driven pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/mcl-lang/mcl/pkg/ast"
	"github.com/mcl-lang/mcl/pkg/astbuild"
	"github.com/mcl-lang/mcl/pkg/compiler"
	"github.com/spf13/cobra"
)

var (
	outputFile string
	fixture    string
)

// fixtures maps a name to the *ast.Program builder it selects. With no
// source-level lexer/parser in this repository, this registry is the
// stand-in front end: each entry is one of the hand-built programs
// exercised by the pkg/compiler end-to-end tests (spec.md §8's end-to-end
// scenarios).
var fixtures = map[string]func() *ast.Program{
	"scenario1": astbuild.Scenario1,
	"scenario2": astbuild.Scenario2,
	"scenario3": astbuild.Scenario3,
	"scenario4": astbuild.Scenario4,
}

var rootCmd = &cobra.Command{
	Use:   "mclc",
	Short: "MCL compiler",
	Long: `mclc - MCL compiler
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
Compiles a fixture program to MCL virtual machine assembly.

There is no lexer/parser in this build; --fixture selects one of the
hand-built sample programs instead of a source file.

FIXTURES:
  scenario1 - var x=7; return x*6;
  scenario2 - recursive fact(5)
  scenario3 - 26 live locals, forces a register spill
  scenario4 - setGPUBuffer(0,1); fillGrid(0,0,32,1)
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		build, ok := fixtures[fixture]
		if !ok {
			return fmt.Errorf("unknown fixture %q (try --fixture scenario1)", fixture)
		}
		prog := build()

		asm, err := compiler.Compile(prog)
		if err != nil {
			return fmt.Errorf("compile: %w", err)
		}

		if outputFile == "" {
			fmt.Print(asm)
			return nil
		}
		return os.WriteFile(outputFile, []byte(asm), 0644)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.Flags().StringVarP(&fixture, "fixture", "f", "scenario1", "fixture program to compile")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
