package astbuild

import "github.com/mcl-lang/mcl/pkg/ast"

// Scenario1 builds `function main() { var x=7; return x*6; }` (spec.md §8
// scenario 1): a minimal straight-line program exercising a
// register-resident local and the MULT opcode.
func Scenario1() *ast.Program {
	main := Fn("main", nil, Int(),
		VarS("x", Int(), Num(7)),
		RetS(Bin("*", Id("x"), Num(6))),
	)
	return Prog(nil, main)
}

// Scenario2 builds the recursive factorial program of spec.md §8 scenario
// 2: `function fact(n){ if(n<=1) return 1; return n*fact(n-1); } function
// main(){ return fact(5); }`, exercising the stack-based calling
// convention's balance across a recursive call chain.
func Scenario2() *ast.Program {
	fact := Fn("fact", []*ast.Param{P("n", Int())}, Int(),
		IfS(Bin("<=", Id("n"), Num(1)),
			[]ast.Stmt{RetS(Num(1))},
			nil,
		),
		RetS(Bin("*", Id("n"), CallE("fact", Bin("-", Id("n"), Num(1))))),
	)
	main := Fn("main", nil, Int(),
		RetS(CallE("fact", Num(5))),
	)
	return Prog(nil, fact, main)
}

// Scenario3 builds the 26-live-local program of spec.md §8 scenario 3:
// a=1, b=2, ..., z=26, `return a+b+...+z` (= 351). The 26 declared
// scalars fill the entire 26-register pool (FirstPoolReg..LastPoolReg),
// so the temporary for z's own initializer already forces the register
// allocator's LRU spiller to evict a named local, and the summation that
// follows reloads spilled locals (spilling others) as it reaches them.
func Scenario3() *ast.Program {
	var body []ast.Stmt
	for i := 0; i < 26; i++ {
		name := string(rune('a' + i))
		body = append(body, VarS(name, Int(), Num(int64(i+1))))
	}
	sum := Id("a")
	for i := 1; i < 26; i++ {
		name := string(rune('a' + i))
		sum = Bin("+", sum, Id(name))
	}
	body = append(body, RetS(sum))
	main := Fn("main", nil, Int(), body...)
	return Prog(nil, main)
}

// Scenario4 builds spec.md §8 scenario 4: `setGPUBuffer(0,1);
// fillGrid(0,0,32,1); return 0;`, selecting buffer 1 as the edit buffer
// via the constant-bufferID path of setGPUBuffer and then filling its
// row 0 solid, exercising the edit/display buffer-id bit mapping end to
// end through codegen rather than directly at the GPU unit level.
func Scenario4() *ast.Program {
	main := Fn("main", nil, Int(),
		ExprS(CallE("setGPUBuffer", Num(0), Num(1))),
		ExprS(CallE("fillGrid", Num(0), Num(0), Num(32), Num(1))),
		RetS(Num(0)),
	)
	return Prog(nil, main)
}
