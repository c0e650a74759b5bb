package codegen

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/ast"
	"github.com/mcl-lang/mcl/pkg/symtab"
)

// genExpr lowers expr and returns a register the caller owns: every path
// through genExpr returns a fresh AllocateTemporary register (never R0
// directly, never a named symbol's own register), so callers can always
// FreeTemporary the result once consumed without worrying about aliasing
// a variable's live binding (spec.md §4.D.4).
func (g *Generator) genExpr(expr ast.Expr) (int, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		t, err := g.table.Regs.AllocateTemporary()
		if err != nil {
			return 0, err
		}
		g.emit("MVR", imm(int(e.Value)), reg(t))
		return t, nil

	case *ast.Ident:
		return g.genIdent(e)

	case *ast.BinOp:
		return g.genBinOp(e)

	case *ast.UnaryOp:
		return g.genUnaryOp(e)

	case *ast.Index:
		addr, err := g.genIndexAddress(e)
		if err != nil {
			return 0, err
		}
		result, err := g.table.Regs.AllocateTemporary()
		if err != nil {
			return 0, err
		}
		g.emit("READ", reg(addr), reg(result))
		g.table.Regs.FreeTemporary(addr)
		return result, nil

	case *ast.Call:
		return g.genCall(e)

	case *ast.InlineAsm:
		return g.genInlineAsm(e)

	default:
		return 0, fmt.Errorf("codegen: unhandled expression type %T", expr)
	}
}

func (g *Generator) genIdent(id *ast.Ident) (int, error) {
	sym, err := g.table.Resolve(id.Name)
	if err != nil {
		return 0, err
	}

	t, err := g.table.Regs.AllocateTemporary()
	if err != nil {
		return 0, err
	}

	switch sym.Storage {
	case symtab.StorageRegister:
		src, err := g.table.Regs.Access(sym.ScopedName)
		if err != nil {
			return 0, err
		}
		g.emit("MVR", reg(src), reg(t))
	case symtab.StorageRAM, symtab.StorageSpilled:
		g.emit("READ", imm(sym.Address), reg(t))
	case symtab.StorageStack:
		addr, err := g.frameAddress(sym)
		if err != nil {
			return 0, err
		}
		g.emit("READ", reg(addr), reg(t))
		g.table.Regs.FreeTemporary(addr)
	}
	return t, nil
}

// genIndexAddress computes base+index for an array subscript into a fresh
// temp register holding the element's address (spec.md §4.D.6: arrays
// always live in static RAM, so the base is a compile-time-known
// immediate).
func (g *Generator) genIndexAddress(idx *ast.Index) (int, error) {
	ident, ok := idx.Base.(*ast.Ident)
	if !ok {
		return 0, fmt.Errorf("codegen: array subscript base must be a named array")
	}
	sym, err := g.table.Resolve(ident.Name)
	if err != nil {
		return 0, err
	}

	iReg, err := g.genExpr(idx.Idx)
	if err != nil {
		return 0, err
	}
	g.emit("ADD", imm(sym.Address), reg(iReg))
	g.table.Regs.FreeTemporary(iReg)

	addr, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	return addr, nil
}

var arithOpcode = map[string]string{
	"+": "ADD", "-": "SUB", "*": "MULT", "/": "DIV",
	"&": "AND", "|": "OR", "^": "XOR", "<<": "SHL", ">>": "SHR",
}

// genBinOp lowers a binary expression per spec.md §4.D.4: evaluate the
// left operand, push it to the hardware stack (so a deeply nested tree
// never runs out of registers), evaluate the right operand, pop the left
// operand back, then compute.
func (g *Generator) genBinOp(e *ast.BinOp) (int, error) {
	switch e.Op {
	case "&&":
		return g.genShortCircuit(e, true)
	case "||":
		return g.genShortCircuit(e, false)
	case "==", "!=", "<", ">", "<=", ">=":
		return g.genComparison(e)
	case "%":
		return g.genModulo(e)
	}

	opcode, ok := arithOpcode[e.Op]
	if !ok {
		return 0, fmt.Errorf("codegen: unsupported operator %q", e.Op)
	}

	left, err := g.genExpr(e.Left)
	if err != nil {
		return 0, err
	}
	g.pushReg(left)
	g.table.Regs.FreeTemporary(left)

	right, err := g.genExpr(e.Right)
	if err != nil {
		return 0, err
	}
	g.table.Regs.MarkLive(right)
	leftBack, err := g.table.Regs.AllocateTemporary()
	if err != nil {
		return 0, err
	}
	g.popTo(leftBack)
	g.table.Regs.MarkConsumed(right)

	g.emit(opcode, reg(leftBack), reg(right))
	g.table.Regs.FreeTemporary(leftBack)
	g.table.Regs.FreeTemporary(right)

	result, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	return result, nil
}

// genModulo computes a - (a/b)*b via DIV then MULT, each intermediate
// result saved out of R0 before the next ALU op overwrites it (spec.md
// §4.D.4).
func (g *Generator) genModulo(e *ast.BinOp) (int, error) {
	left, err := g.genExpr(e.Left)
	if err != nil {
		return 0, err
	}
	g.pushReg(left)
	g.table.Regs.FreeTemporary(left)

	right, err := g.genExpr(e.Right)
	if err != nil {
		return 0, err
	}
	g.table.Regs.MarkLive(right)
	leftBack, err := g.table.Regs.AllocateTemporary()
	if err != nil {
		return 0, err
	}
	g.popTo(leftBack)
	g.table.Regs.MarkConsumed(right)

	g.emit("DIV", reg(leftBack), reg(right))
	quotient, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	g.emit("MULT", reg(quotient), reg(right))
	product, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	g.emit("SUB", reg(leftBack), reg(product))

	g.table.Regs.FreeTemporary(leftBack)
	g.table.Regs.FreeTemporary(right)
	g.table.Regs.FreeTemporary(quotient)
	g.table.Regs.FreeTemporary(product)

	result, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	return result, nil
}

// genComparison lowers a comparison operator: it SUBs the operands and
// selects, per operator, whether the "true" branch is taken when the SUB
// result is zero/nonzero/sign-bit-set and which sign-bit polarity a strict
// inequality needs.
func (g *Generator) genComparison(e *ast.BinOp) (int, error) {
	left, err := g.genExpr(e.Left)
	if err != nil {
		return 0, err
	}
	g.pushReg(left)
	g.table.Regs.FreeTemporary(left)

	right, err := g.genExpr(e.Right)
	if err != nil {
		return 0, err
	}
	g.table.Regs.MarkLive(right)
	leftBack, err := g.table.Regs.AllocateTemporary()
	if err != nil {
		return 0, err
	}
	g.popTo(leftBack)
	g.table.Regs.MarkConsumed(right)

	g.emit("SUB", reg(leftBack), reg(right))
	diff, err := g.table.Regs.SaveALUResult()
	if err != nil {
		return 0, err
	}
	g.table.Regs.FreeTemporary(leftBack)
	g.table.Regs.FreeTemporary(right)

	result, err := g.table.Regs.AllocateTemporary()
	if err != nil {
		return 0, err
	}

	trueLabel := g.uniqueLabel("cmp_true")
	falseLabel := g.uniqueLabel("cmp_false")
	endLabel := g.uniqueLabel("cmp_end")

	// Sign bit of diff (0x8000) set means left-right is negative.
	needSign := e.Op != "==" && e.Op != "!="
	var sign int
	if needSign {
		sign, err = g.table.Regs.AllocateTemporary()
		if err != nil {
			return 0, err
		}
		g.emit("AND", reg(diff), imm(0x8000))
		g.emit("MVR", "0", reg(sign))
	}

	switch e.Op {
	case "==":
		g.emit("JZ", trueLabel, reg(diff))
	case "!=":
		g.emit("JNZ", trueLabel, reg(diff))
	case "<":
		g.emit("JNZ", trueLabel, reg(sign))
	case ">":
		g.emit("JZ", falseLabel, reg(diff))
		g.emit("JNZ", falseLabel, reg(sign))
		g.emit("JMP", trueLabel)
	case "<=":
		g.emit("JNZ", trueLabel, reg(sign))
		g.emit("JZ", trueLabel, reg(diff))
	case ">=":
		g.emit("JZ", trueLabel, reg(sign))
	}
	if needSign {
		g.table.Regs.FreeTemporary(sign)
	}

	g.table.Regs.FreeTemporary(diff)
	g.emitLabel(falseLabel)
	g.emit("MVR", imm(0), reg(result))
	g.emit("JMP", endLabel)
	g.emitLabel(trueLabel)
	g.emit("MVR", imm(1), reg(result))
	g.emitLabel(endLabel)
	return result, nil
}

func (g *Generator) genShortCircuit(e *ast.BinOp, isAnd bool) (int, error) {
	left, err := g.genExpr(e.Left)
	if err != nil {
		return 0, err
	}

	shortLabel := g.uniqueLabel("sc_short")
	endLabel := g.uniqueLabel("sc_end")
	result, err := g.table.Regs.AllocateTemporary()
	if err != nil {
		return 0, err
	}

	if isAnd {
		g.emit("JZ", shortLabel, reg(left))
	} else {
		g.emit("JNZ", shortLabel, reg(left))
	}
	g.table.Regs.FreeTemporary(left)

	right, err := g.genExpr(e.Right)
	if err != nil {
		return 0, err
	}
	if isAnd {
		g.emit("JZ", shortLabel, reg(right))
	} else {
		g.emit("JNZ", shortLabel, reg(right))
	}
	g.table.Regs.FreeTemporary(right)

	if isAnd {
		g.emit("MVR", imm(1), reg(result))
	} else {
		g.emit("MVR", imm(0), reg(result))
	}
	g.emit("JMP", endLabel)
	g.emitLabel(shortLabel)
	if isAnd {
		g.emit("MVR", imm(0), reg(result))
	} else {
		g.emit("MVR", imm(1), reg(result))
	}
	g.emitLabel(endLabel)
	return result, nil
}

func (g *Generator) genUnaryOp(e *ast.UnaryOp) (int, error) {
	switch e.Op {
	case "-":
		x, err := g.genExpr(e.X)
		if err != nil {
			return 0, err
		}
		g.emit("SUB", imm(0), reg(x))
		g.table.Regs.FreeTemporary(x)
		return g.table.Regs.SaveALUResult()

	case "!":
		x, err := g.genExpr(e.X)
		if err != nil {
			return 0, err
		}
		result, err := g.table.Regs.AllocateTemporary()
		if err != nil {
			return 0, err
		}
		trueLabel := g.uniqueLabel("not_true")
		endLabel := g.uniqueLabel("not_end")
		g.emit("JZ", trueLabel, reg(x))
		g.table.Regs.FreeTemporary(x)
		g.emit("MVR", imm(0), reg(result))
		g.emit("JMP", endLabel)
		g.emitLabel(trueLabel)
		g.emit("MVR", imm(1), reg(result))
		g.emitLabel(endLabel)
		return result, nil

	case "&":
		return g.genAddressOf(e.X)

	case "*":
		p, err := g.genExpr(e.X)
		if err != nil {
			return 0, err
		}
		result, err := g.table.Regs.AllocateTemporary()
		if err != nil {
			return 0, err
		}
		g.emit("READ", reg(p), reg(result))
		g.table.Regs.FreeTemporary(p)
		return result, nil

	default:
		return 0, fmt.Errorf("codegen: unsupported unary operator %q", e.Op)
	}
}

// genAddressOf lowers &x (spec.md §4.D.6): a stack-resident symbol yields
// FP+offset computed into a temp; a RAM-resident symbol yields its static
// address as an immediate; a register-resident symbol is first migrated
// to a fresh static slot (MigrateToRAM) since a register has no address
// of its own.
func (g *Generator) genAddressOf(x ast.Expr) (int, error) {
	ident, ok := x.(*ast.Ident)
	if !ok {
		return 0, ErrAddressOfNonIdent
	}
	sym, err := g.table.Resolve(ident.Name)
	if err != nil {
		return 0, err
	}

	switch sym.Storage {
	case symtab.StorageStack:
		return g.frameAddress(sym)
	case symtab.StorageRegister:
		if err := g.table.MigrateToRAM(sym, g.emit); err != nil {
			return 0, err
		}
		t, err := g.table.Regs.AllocateTemporary()
		if err != nil {
			return 0, err
		}
		g.emit("MVR", imm(sym.Address), reg(t))
		return t, nil
	default: // StorageRAM, StorageSpilled
		t, err := g.table.Regs.AllocateTemporary()
		if err != nil {
			return 0, err
		}
		g.emit("MVR", imm(sym.Address), reg(t))
		return t, nil
	}
}

// genInlineAsm substitutes %0, %1, ... (longest-first, so %10 isn't
// clobbered by a %1 match) with each argument's evaluated register number
// and emits the result as a single raw line (spec.md §4.D.8).
func (g *Generator) genInlineAsm(a *ast.InlineAsm) (int, error) {
	argRegs := make([]int, len(a.Args))
	for i, arg := range a.Args {
		r, err := g.genExpr(arg)
		if err != nil {
			return 0, err
		}
		argRegs[i] = r
	}

	text := a.Template
	for i := len(argRegs) - 1; i >= 0; i-- {
		placeholder := fmt.Sprintf("%%%d", i)
		text = replaceAll(text, placeholder, reg(argRegs[i]))
	}
	fmt.Fprintf(g.out, "\t%s\n", text)

	for _, r := range argRegs {
		g.table.Regs.FreeTemporary(r)
	}
	return g.table.Regs.AllocateTemporary()
}

// replaceAll is a tiny substring replace kept local to avoid importing
// strings solely for this one call site's longest-first placeholder scan.
func replaceAll(s, old, new string) string {
	if old == "" {
		return s
	}
	out := ""
	for {
		i := indexOf(s, old)
		if i < 0 {
			return out + s
		}
		out += s[:i] + new
		s = s[i+len(old):]
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
