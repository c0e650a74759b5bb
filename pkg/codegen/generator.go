// Package codegen lowers an *ast.Program to the textual assembly listing
// pkg/asmloader parses (spec.md §4.D). Grounded on
// original_source/src/compiler/assembly_generator.py's ASTVisitor-shaped
// code generator, reshaped around pkg/symtab's owned Table (scope tree,
// static allocator, heap cursor, register allocator) the way
// pkg/codegen/z80.go emits assembly line-by-line through a single
// Fprintf-style helper against an io.Writer.
package codegen

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mcl-lang/mcl/pkg/ast"
	"github.com/mcl-lang/mcl/pkg/ctie"
	"github.com/mcl-lang/mcl/pkg/symtab"
)

// Static RAM and heap region bounds (spec.md §4.A memory map).
const (
	StaticStart = 0x1000
	StaticSize  = 0x0800
	HeapStart   = 0x1800
	HeapSize    = 0x5800
	StackTop    = 0x7FFF
)

// Fixed register numbers codegen emits directly rather than through the
// allocator (spec.md §4.C/§4.D.1).
const (
	regALU       = 0 // R0
	regALU2      = 1 // R1
	regReturnAddr = 2 // R2
	regSP        = 3 // R3
	regFP        = 4 // R4
	regEpilogue  = 5 // R5
)

// loopLabels tracks the break/continue targets of one enclosing loop, per
// the label-stack discipline in the Python source's visit_break_statement
// / visit_continue_statement.
type loopLabels struct {
	breakLabel    string
	continueLabel string
}

// Generator walks one *ast.Program and produces an assembly listing.
type Generator struct {
	table *symtab.Table
	eval  *ctie.Evaluator

	out io.Writer

	labelCounter int
	currentFunc  string
	isMain       bool

	loops []loopLabels
}

// New creates a Generator writing to out. The returned Generator owns a
// fresh symtab.Table and ctie.Evaluator; call Close when done with it.
func New(out io.Writer) *Generator {
	g := &Generator{out: out, eval: ctie.New()}
	g.table = symtab.New(StaticStart, StaticSize, HeapStart, HeapSize, g.emit)
	return g
}

// Close releases the embedded constant evaluator's Lua state.
func (g *Generator) Close() {
	g.eval.Close()
}

// emit writes one assembly line and also serves as the regalloc.Emit
// callback the register allocator calls directly for its own spill/reload
// instructions.
func (g *Generator) emit(opcode string, operands ...string) {
	if len(operands) == 0 {
		fmt.Fprintf(g.out, "\t%s\n", opcode)
		return
	}
	line := opcode
	for i, op := range operands {
		if i == 0 {
			line += " " + op
		} else {
			line += ", " + op
		}
	}
	fmt.Fprintf(g.out, "\t%s\n", line)
}

// emitLabel writes a bare label line.
func (g *Generator) emitLabel(name string) {
	fmt.Fprintf(g.out, "%s:\n", name)
}

// emitComment writes a comment line (assembler-ignored, diagnostic only).
func (g *Generator) emitComment(format string, args ...interface{}) {
	fmt.Fprintf(g.out, "\t// %s\n", fmt.Sprintf(format, args...))
}

// uniqueLabel manufactures a fresh label from prefix, matching the
// Python source's generate_label counter-suffix scheme.
func (g *Generator) uniqueLabel(prefix string) string {
	g.labelCounter++
	return fmt.Sprintf("%s_%d", prefix, g.labelCounter)
}

// reg renders a register number as a bare decimal operand.
func reg(n int) string { return strconv.Itoa(n) }

// imm renders an immediate operand with its "i:" prefix.
func imm(n int) string { return "i:" + strconv.FormatInt(int64(n), 10) }

// CompileProgram lowers the whole program: globals first, then a preamble
// that sets SP to StackTop and does `JMP main` so execution starts at main
// regardless of function emission order (spec.md §4.D.1), then every
// function body with main last. The loader builds its label table in a
// first pass, so JAL/JMP targets resolve whatever the emission order.
func (g *Generator) CompileProgram(prog *ast.Program) error {
	for _, gv := range prog.Globals {
		if err := g.compileGlobal(gv); err != nil {
			return err
		}
	}

	var mainFn *ast.Function
	for _, fn := range prog.Functions {
		if _, err := g.table.DefineFunction(fn.Name, functionType(fn)); err != nil {
			return err
		}
		if fn.Name == "main" {
			mainFn = fn
		}
	}
	if mainFn == nil {
		return ErrMainNotFound
	}

	g.emit("MVR", imm(StackTop), reg(regSP))
	g.emit("JMP", "main")

	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			continue
		}
		if err := g.compileFunction(fn); err != nil {
			return err
		}
	}
	return g.compileFunction(mainFn)
}

func functionType(fn *ast.Function) *ast.FunctionType {
	return &ast.FunctionType{Params: paramTypes(fn.Params), Returns: fn.Returns}
}

func paramTypes(params []*ast.Param) []ast.Type {
	out := make([]ast.Type, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

// compileGlobal allocates static storage for a global and stores each
// constant initializer (a scalar's one value, or an array's elements in
// slot order) directly into its slot (the Python source's
// visit_variable_declaration RAM-initializer path). An initializer that
// does not fold to a constant is not stored.
func (g *Generator) compileGlobal(v *ast.VarDecl) error {
	if arr, ok := v.Type.(*ast.ArrayType); ok {
		sym, err := g.table.DefineGlobalArray(v.Name, arr)
		if err != nil {
			return err
		}
		for i := 0; i < len(v.Init) && i < arr.Size; i++ {
			if n, ok := g.eval.EvalConstInt(v.Init[i]); ok {
				g.emit("LOAD", imm(int(n)), imm(sym.Address+i))
			}
		}
		return nil
	}
	sym, err := g.table.DefineGlobal(v.Name, v.Type)
	if err != nil {
		return err
	}
	if len(v.Init) == 1 {
		if n, ok := g.eval.EvalConstInt(v.Init[0]); ok {
			g.emit("LOAD", imm(int(n)), imm(sym.Address))
		}
	}
	return nil
}

// pushReg decrements SP then stores a register's value at the new top of
// the hardware stack (spec.md §4.D.2's push-right-to-left helper): CPU
// operand resolution means a decimal register operand in an address
// position resolves to that register's current value, so SP itself must
// hold the target address before LOAD writes through it.
func (g *Generator) pushReg(r int) {
	g.emit("SUB", reg(regSP), imm(1))
	g.emit("MVR", "0", reg(regSP))
	g.emit("LOAD", reg(r), reg(regSP))
}

// popTo loads the hardware stack's current top into dst, then increments
// SP past it.
func (g *Generator) popTo(dst int) {
	g.emit("READ", reg(regSP), reg(dst))
	g.emit("ADD", reg(regSP), imm(1))
	g.emit("MVR", "0", reg(regSP))
}

// decSP/incSP adjust SP by n words without transferring a value, used by
// the call-site argument cleanup (spec.md §4.D.2 step 5).
func (g *Generator) decSP(n int) {
	g.emit("SUB", reg(regSP), imm(n))
	g.emit("MVR", "0", reg(regSP))
}

func (g *Generator) incSP(n int) {
	g.emit("ADD", reg(regSP), imm(n))
	g.emit("MVR", "0", reg(regSP))
}
