// Package astbuild hand-constructs *ast.Program trees. With no lexer or
// parser in this repository (pkg/ast's own package doc: "the lexer, the
// parser... are external collaborators"), this is how both the end-to-end
// tests in pkg/compiler and cmd/mclc's stubbed front end produce an AST to
// compile —
// short builder functions standing in for what a parser would normally
// emit, the same role pkg/ir's test helpers play for the donor's backend
// test suite.
package astbuild

import "github.com/mcl-lang/mcl/pkg/ast"

var zeroPos ast.Position

// Int is MCL's only scalar type.
func Int() ast.Type { return &ast.IntType{} }

// Ptr builds a pointer-to-elem type.
func Ptr(elem ast.Type) ast.Type { return &ast.PointerType{Elem: elem} }

// Arr builds a fixed-size array type.
func Arr(elem ast.Type, size int) ast.Type { return &ast.ArrayType{Elem: elem, Size: size} }

// Num builds an integer literal.
func Num(v int64) ast.Expr { return &ast.IntLit{Value: v} }

// Id builds an identifier reference.
func Id(name string) ast.Expr { return &ast.Ident{Name: name} }

// Bin builds a binary expression.
func Bin(op string, l, r ast.Expr) ast.Expr { return &ast.BinOp{Op: op, Left: l, Right: r} }

// Un builds a unary expression.
func Un(op string, x ast.Expr) ast.Expr { return &ast.UnaryOp{Op: op, X: x} }

// Idx builds an array subscript expression.
func Idx(base, idx ast.Expr) ast.Expr { return &ast.Index{Base: base, Idx: idx} }

// CallE builds a call expression (user function or builtin).
func CallE(callee string, args ...ast.Expr) ast.Expr { return &ast.Call{Callee: callee, Args: args} }

// Asm builds an inline-assembly expression.
func Asm(template string, args ...ast.Expr) ast.Expr {
	return &ast.InlineAsm{Template: template, Args: args}
}

// VarS builds a local/global variable declaration. init may be omitted.
func VarS(name string, typ ast.Type, init ...ast.Expr) ast.Stmt {
	return &ast.VarDecl{Name: name, Type: typ, Init: init, StartPos: zeroPos}
}

// ExprS wraps an expression as a statement (e.g. a call for its side
// effect).
func ExprS(x ast.Expr) ast.Stmt { return &ast.ExprStmt{X: x} }

// AssignS builds an assignment statement.
func AssignS(target, value ast.Expr) ast.Stmt { return &ast.Assign{Target: target, Value: value} }

// RetS builds a return statement. Pass nil for a bare `return;`.
func RetS(value ast.Expr) ast.Stmt { return &ast.Return{Value: value} }

// IfS builds an if/else statement.
func IfS(cond ast.Expr, then, els []ast.Stmt) ast.Stmt {
	return &ast.If{Cond: cond, Then: then, Else: els}
}

// WhileS builds a while loop.
func WhileS(cond ast.Expr, body []ast.Stmt) ast.Stmt {
	return &ast.While{Cond: cond, Body: body}
}

// ForS builds a C-style for loop. init and step may be nil.
func ForS(init ast.Stmt, cond ast.Expr, step ast.Stmt, body []ast.Stmt) ast.Stmt {
	return &ast.For{Init: init, Cond: cond, Step: step, Body: body}
}

// CaseS builds one switch case; pass a nil value for the default case.
func CaseS(value ast.Expr, body ...ast.Stmt) *ast.SwitchCase {
	return &ast.SwitchCase{Value: value, Body: body}
}

// SwitchS builds a switch statement.
func SwitchS(tag ast.Expr, cases ...*ast.SwitchCase) ast.Stmt {
	return &ast.Switch{Tag: tag, Cases: cases}
}

// BreakS/ContinueS build loop-control statements.
func BreakS() ast.Stmt    { return &ast.Break{} }
func ContinueS() ast.Stmt { return &ast.Continue{} }

// BlockS builds a nested block statement.
func BlockS(body ...ast.Stmt) ast.Stmt { return &ast.Block{Body: body} }

// P builds a function parameter.
func P(name string, typ ast.Type) *ast.Param { return &ast.Param{Name: name, Type: typ} }

// Fn builds a function declaration.
func Fn(name string, params []*ast.Param, returns ast.Type, body ...ast.Stmt) *ast.Function {
	return &ast.Function{Name: name, Params: params, Returns: returns, Body: body}
}

// Prog assembles a program from its functions and globals.
func Prog(globals []*ast.VarDecl, funcs ...*ast.Function) *ast.Program {
	return &ast.Program{Functions: funcs, Globals: globals}
}

// Global builds a top-level variable declaration for Prog's globals list.
func Global(name string, typ ast.Type, init ...ast.Expr) *ast.VarDecl {
	return &ast.VarDecl{Name: name, Type: typ, Init: init}
}
