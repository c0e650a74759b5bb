// Package ctie evaluates compile-time constant integer expressions — malloc
// sizes, switch-case values, GPU builtin arguments, global initializers —
// so codegen doesn't need a
// second hand-rolled constant folder alongside the register allocator and
// memory manager. Grounded on the teacher's approach to compile-time
// execution, which embeds a scripting language to run compile-time code;
// here an embedded Lua state (github.com/yuin/gopher-lua) evaluates the
// arithmetic subset spec.md's constant-size expressions actually need.
package ctie

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/mcl-lang/mcl/pkg/ast"
)

// Evaluator evaluates constant-only ast.Expr trees by transliterating them
// to a Lua expression and running it in an embedded Lua state. It never
// resolves identifiers — any Ident, Call, or Index makes the expression
// non-constant.
type Evaluator struct {
	L *lua.LState
}

// New creates an Evaluator with a fresh embedded Lua state.
func New() *Evaluator {
	return &Evaluator{L: lua.NewState()}
}

// Close releases the embedded Lua state.
func (e *Evaluator) Close() {
	e.L.Close()
}

// EvalConstInt attempts to evaluate expr as a constant integer. ok is false
// if expr references anything but literals and arithmetic operators, i.e.
// it is not a compile-time constant — the path spec.md §4.D.6 leaves open
// for a `malloc` call whose size is itself computed at runtime.
func (e *Evaluator) EvalConstInt(expr ast.Expr) (int64, bool) {
	src, ok := toLuaExpr(expr)
	if !ok {
		return 0, false
	}
	if err := e.L.DoString(fmt.Sprintf("return (%s)", src)); err != nil {
		return 0, false
	}
	result := e.L.Get(-1)
	e.L.Pop(1)
	num, ok := result.(lua.LNumber)
	if !ok {
		return 0, false
	}
	return int64(num), true
}

// toLuaExpr renders expr as Lua source, or reports ok=false if expr is
// not built entirely from constant-foldable nodes.
func toLuaExpr(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("%d", e.Value), true
	case *ast.BinOp:
		left, ok := toLuaExpr(e.Left)
		if !ok {
			return "", false
		}
		right, ok := toLuaExpr(e.Right)
		if !ok {
			return "", false
		}
		op, ok := luaOp(e.Op)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), true
	case *ast.UnaryOp:
		if e.Op != "-" {
			return "", false
		}
		x, ok := toLuaExpr(e.X)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("(-%s)", x), true
	default:
		return "", false
	}
}

// luaOp maps the subset of MCL operators meaningful in a constant array or
// malloc size expression to Lua. Lua 5.1's `/` is float division with no
// truncation surprises for the non-negative sizes this evaluator is used
// for, so no floor-division rewrite is needed.
func luaOp(op string) (string, bool) {
	switch op {
	case "+", "-", "*", "/":
		return op, true
	default:
		return "", false
	}
}
