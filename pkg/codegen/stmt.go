package codegen

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/ast"
	"github.com/mcl-lang/mcl/pkg/symtab"
)

func (g *Generator) compileStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.VarDecl:
		return g.compileVarDecl(st)
	case *ast.ExprStmt:
		r, err := g.genExpr(st.X)
		if err != nil {
			return err
		}
		g.table.Regs.FreeTemporary(r)
		return nil
	case *ast.Assign:
		return g.compileAssign(st)
	case *ast.Return:
		return g.emitReturn(st.Value)
	case *ast.If:
		return g.compileIf(st)
	case *ast.While:
		return g.compileWhile(st)
	case *ast.For:
		return g.compileFor(st)
	case *ast.Switch:
		return g.compileSwitch(st)
	case *ast.Break:
		return g.compileBreak()
	case *ast.Continue:
		return g.compileContinue()
	case *ast.Block:
		g.table.EnterScope()
		defer g.table.ExitScope()
		for _, inner := range st.Body {
			if err := g.compileStmt(inner); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("codegen: unhandled statement type %T", s)
	}
}

// compileVarDecl defines a local per spec.md §4.D.3: arrays always live in
// static RAM (DefineLocalArray), with each initializer element stored into
// its slot in order; scalars are register-resident
// (DefineLocalInRegister), with the allocator's own LRU spiller taking
// over transparently once a scope's locals exceed the 26-register pool.
// A scalar with exactly one initializer gets that value stored into its
// bound register immediately.
func (g *Generator) compileVarDecl(v *ast.VarDecl) error {
	if arr, ok := v.Type.(*ast.ArrayType); ok {
		sym, err := g.table.DefineLocalArray(v.Name, arr)
		if err != nil {
			return err
		}
		for i := 0; i < len(v.Init) && i < arr.Size; i++ {
			r, err := g.genExpr(v.Init[i])
			if err != nil {
				return err
			}
			g.emit("LOAD", reg(r), imm(sym.Address+i))
			g.table.Regs.FreeTemporary(r)
		}
		return nil
	}

	sym, err := g.table.DefineLocalInRegister(v.Name, v.Type)
	if err != nil {
		return err
	}
	if len(v.Init) == 1 {
		r, err := g.genExpr(v.Init[0])
		if err != nil {
			return err
		}
		dst, err := g.table.Regs.Access(sym.ScopedName)
		if err != nil {
			return err
		}
		g.emit("MVR", reg(r), reg(dst))
		g.table.Regs.FreeTemporary(r)
	}
	return nil
}

// compileAssign lowers target = value for each kind of assignable
// expression the AST admits (spec.md §4.D.6): a named scalar, an array
// element, or a dereferenced pointer.
func (g *Generator) compileAssign(a *ast.Assign) error {
	v, err := g.genExpr(a.Value)
	if err != nil {
		return err
	}
	defer g.table.Regs.FreeTemporary(v)

	switch target := a.Target.(type) {
	case *ast.Ident:
		sym, err := g.table.Resolve(target.Name)
		if err != nil {
			return err
		}
		switch sym.Storage {
		case symtab.StorageRegister:
			dst, err := g.table.Regs.Access(sym.ScopedName)
			if err != nil {
				return err
			}
			g.emit("MVR", reg(v), reg(dst))
		case symtab.StorageRAM, symtab.StorageSpilled:
			g.emit("LOAD", reg(v), imm(sym.Address))
		case symtab.StorageStack:
			addr, err := g.frameAddress(sym)
			if err != nil {
				return err
			}
			g.emit("LOAD", reg(v), reg(addr))
			g.table.Regs.FreeTemporary(addr)
		}
		return nil

	case *ast.Index:
		addr, err := g.genIndexAddress(target)
		if err != nil {
			return err
		}
		g.emit("LOAD", reg(v), reg(addr))
		g.table.Regs.FreeTemporary(addr)
		return nil

	case *ast.UnaryOp:
		if target.Op != "*" {
			return ErrInvalidAssignTarget
		}
		p, err := g.genExpr(target.X)
		if err != nil {
			return err
		}
		g.emit("LOAD", reg(v), reg(p))
		g.table.Regs.FreeTemporary(p)
		return nil

	default:
		return ErrInvalidAssignTarget
	}
}

// frameAddress computes FP+offset into a fresh temp register, used for
// reading or writing a stack-resident symbol (a parameter; spec.md
// §4.D.3's frame-slot formula).
func (g *Generator) frameAddress(sym *symtab.Symbol) (int, error) {
	g.emit("ADD", reg(regFP), imm(sym.FrameOffset))
	t, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	return t, nil
}

// compileIf lowers if/else via JZ on the condition (spec.md §4.D.5).
func (g *Generator) compileIf(st *ast.If) error {
	cond, err := g.genExpr(st.Cond)
	if err != nil {
		return err
	}
	elseLabel := g.uniqueLabel("if_else")
	endLabel := g.uniqueLabel("if_end")

	g.emit("JZ", elseLabel, reg(cond))
	g.table.Regs.FreeTemporary(cond)

	for _, s := range st.Then {
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}
	g.emit("JMP", endLabel)
	g.emitLabel(elseLabel)
	for _, s := range st.Else {
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}
	g.emitLabel(endLabel)
	return nil
}

// compileWhile lowers while via a condition-test-then-branch loop, with
// break/continue labels pushed for the body (spec.md §4.D.5).
func (g *Generator) compileWhile(st *ast.While) error {
	startLabel := g.uniqueLabel("while_start")
	endLabel := g.uniqueLabel("while_end")

	g.emitLabel(startLabel)
	cond, err := g.genExpr(st.Cond)
	if err != nil {
		return err
	}
	g.emit("JZ", endLabel, reg(cond))
	g.table.Regs.FreeTemporary(cond)

	g.loops = append(g.loops, loopLabels{breakLabel: endLabel, continueLabel: startLabel})
	for _, s := range st.Body {
		if err := g.compileStmt(s); err != nil {
			g.loops = g.loops[:len(g.loops)-1]
			return err
		}
	}
	g.loops = g.loops[:len(g.loops)-1]

	g.emit("JMP", startLabel)
	g.emitLabel(endLabel)
	return nil
}

// compileFor lowers for (init; cond; step) body as init followed by an
// equivalent while loop whose continue label targets the step, not the
// condition test, so `continue` still runs the step (spec.md §4.D.5).
func (g *Generator) compileFor(st *ast.For) error {
	g.table.EnterScope()
	defer g.table.ExitScope()

	if st.Init != nil {
		if err := g.compileStmt(st.Init); err != nil {
			return err
		}
	}

	startLabel := g.uniqueLabel("for_start")
	stepLabel := g.uniqueLabel("for_step")
	endLabel := g.uniqueLabel("for_end")

	g.emitLabel(startLabel)
	if st.Cond != nil {
		cond, err := g.genExpr(st.Cond)
		if err != nil {
			return err
		}
		g.emit("JZ", endLabel, reg(cond))
		g.table.Regs.FreeTemporary(cond)
	}

	g.loops = append(g.loops, loopLabels{breakLabel: endLabel, continueLabel: stepLabel})
	for _, s := range st.Body {
		if err := g.compileStmt(s); err != nil {
			g.loops = g.loops[:len(g.loops)-1]
			return err
		}
	}
	g.loops = g.loops[:len(g.loops)-1]

	g.emitLabel(stepLabel)
	if st.Step != nil {
		if err := g.compileStmt(st.Step); err != nil {
			return err
		}
	}
	g.emit("JMP", startLabel)
	g.emitLabel(endLabel)
	return nil
}

// compileSwitch lowers a switch as a chain of equality tests against the
// tag value, falling through to a default case if present (spec.md
// §4.D.5); break exits the whole switch via the same label stack loops
// use, since MCL switch bodies don't fall through between cases.
func (g *Generator) compileSwitch(st *ast.Switch) error {
	tag, err := g.genExpr(st.Tag)
	if err != nil {
		return err
	}
	defer g.table.Regs.FreeTemporary(tag)

	endLabel := g.uniqueLabel("switch_end")
	g.loops = append(g.loops, loopLabels{breakLabel: endLabel})
	defer func() { g.loops = g.loops[:len(g.loops)-1] }()

	var defaultCase *ast.SwitchCase
	caseLabels := make([]string, len(st.Cases))
	for i, c := range st.Cases {
		if c.Value == nil {
			defaultCase = c
			continue
		}
		caseLabels[i] = g.uniqueLabel("case")
	}

	for i, c := range st.Cases {
		if c.Value == nil {
			continue
		}
		n, ok := g.eval.EvalConstInt(c.Value)
		if !ok {
			return fmt.Errorf("codegen: switch case value must be a compile-time constant")
		}
		diff, err := g.table.Regs.AllocateTemporary()
		if err != nil {
			return err
		}
		g.emit("SUB", reg(tag), imm(int(n)))
		g.emit("MVR", "0", reg(diff))
		g.emit("JZ", caseLabels[i], reg(diff))
		g.table.Regs.FreeTemporary(diff)
	}

	if defaultCase != nil {
		if err := g.compileCaseBody(defaultCase); err != nil {
			return err
		}
	}
	g.emit("JMP", endLabel)

	for i, c := range st.Cases {
		if c.Value == nil {
			continue
		}
		g.emitLabel(caseLabels[i])
		if err := g.compileCaseBody(c); err != nil {
			return err
		}
		g.emit("JMP", endLabel)
	}

	g.emitLabel(endLabel)
	return nil
}

func (g *Generator) compileCaseBody(c *ast.SwitchCase) error {
	g.table.EnterScope()
	defer g.table.ExitScope()
	for _, s := range c.Body {
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) compileBreak() error {
	if len(g.loops) == 0 {
		return ErrBreakOutsideLoop
	}
	g.emit("JMP", g.loops[len(g.loops)-1].breakLabel)
	return nil
}

func (g *Generator) compileContinue() error {
	for i := len(g.loops) - 1; i >= 0; i-- {
		if g.loops[i].continueLabel != "" {
			g.emit("JMP", g.loops[i].continueLabel)
			return nil
		}
	}
	return ErrContinueOutsideLoop
}
