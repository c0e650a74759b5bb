// Package compiler wires pkg/codegen's Generator into a single entry
// point that takes a parsed program and returns the assembly listing
// pkg/asmloader consumes, the way cmd/minzc's pipeline chains parser,
// semantic analysis, and a backend's Generate behind one call.
package compiler

import (
	"bytes"

	"github.com/mcl-lang/mcl/pkg/ast"
	"github.com/mcl-lang/mcl/pkg/codegen"
)

// Compile lowers prog to an assembly listing. The lexer, parser, and any
// source-level preprocessing that would normally produce prog are
// external collaborators this package does not implement (pkg/ast's
// package doc); this is the pipeline from a completed *ast.Program to
// text.
func Compile(prog *ast.Program) (string, error) {
	var buf bytes.Buffer
	g := codegen.New(&buf)
	defer g.Close()

	if err := g.CompileProgram(prog); err != nil {
		return "", err
	}
	return buf.String(), nil
}
