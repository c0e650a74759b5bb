package codegen

import "github.com/mcl-lang/mcl/pkg/ast"

// compileFunction emits one function's prologue, body, and (if the body
// doesn't already end in a return) a default epilogue, per spec.md
// §4.D.2. main is special-cased throughout: it is entered by the JMP
// preamble rather than a call, so it gets neither a pushed return address
// nor a frame-pointer save, and it HALTs instead of returning to a caller.
func (g *Generator) compileFunction(fn *ast.Function) error {
	g.currentFunc = fn.Name
	g.isMain = fn.Name == "main"
	defer func() { g.currentFunc = ""; g.isMain = false }()

	g.emitLabel(labelFor(fn.Name))
	g.table.EnterScope()
	defer g.table.ExitScope()

	if !g.isMain {
		// Prologue: push the return address (already in R2 from JAL),
		// then the caller's frame pointer, then FP <- SP.
		g.pushReg(regReturnAddr)
		g.pushReg(regFP)
		g.emit("MVR", reg(regSP), reg(regFP))
	}

	for i, p := range fn.Params {
		if _, err := g.table.DefineParameterOnStack(p.Name, p.Type, 2+i); err != nil {
			return err
		}
	}

	endsInReturn := false
	for i, stmt := range fn.Body {
		if err := g.compileStmt(stmt); err != nil {
			return err
		}
		endsInReturn = isReturn(stmt) && i == len(fn.Body)-1
	}

	if !endsInReturn {
		if err := g.emitReturn(nil); err != nil {
			return err
		}
	}
	return nil
}

func isReturn(s ast.Stmt) bool {
	_, ok := s.(*ast.Return)
	return ok
}

func labelFor(name string) string { return "func_" + name }

// emitReturn lowers a return statement (spec.md §4.D.2): evaluate the
// value (defaulting to 0) into R0, then either HALT (main) or run the
// epilogue and jump back to the caller.
func (g *Generator) emitReturn(value ast.Expr) error {
	if value != nil {
		r, err := g.genExpr(value)
		if err != nil {
			return err
		}
		g.emit("MVR", reg(r), reg(regALU))
		g.table.Regs.FreeTemporary(r)
	} else {
		g.emit("MVR", imm(0), reg(regALU))
	}

	if g.isMain {
		g.emit("HALT")
		return nil
	}

	// Epilogue: save R0, SP <- FP, pop FP, pop return address into R2,
	// restore R0, jump to the caller.
	g.emit("MVR", reg(regALU), reg(regEpilogue))
	g.emit("MVR", reg(regFP), reg(regSP))
	g.popTo(regFP)
	g.popTo(regReturnAddr)
	g.emit("MVR", reg(regEpilogue), reg(regALU))
	g.emit("JMP", reg(regReturnAddr))
	return nil
}

// genUserCall lowers a call to a user-defined function (spec.md §4.D.2):
// evaluate every argument into an owned temp first (genExpr never itself
// returns R0, so no argument value is at risk from the SP arithmetic
// below), push them right-to-left, JAL, capture R0 before the cleanup
// touches it, then restore SP.
func (g *Generator) genUserCall(call *ast.Call) (int, error) {
	if _, err := g.table.Resolve(call.Callee); err != nil {
		return 0, ErrUnknownBuiltin
	}

	argRegs := make([]int, len(call.Args))
	for i, a := range call.Args {
		r, err := g.genExpr(a)
		if err != nil {
			return 0, err
		}
		argRegs[i] = r
	}

	for i := len(argRegs) - 1; i >= 0; i-- {
		g.pushReg(argRegs[i])
		g.table.Regs.FreeTemporary(argRegs[i])
	}

	g.emit("JAL", labelFor(call.Callee))

	result, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	if len(argRegs) > 0 {
		g.incSP(len(argRegs))
	}
	return result, nil
}
