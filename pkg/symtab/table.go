package symtab

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/ast"
	"github.com/mcl-lang/mcl/pkg/regalloc"
)

// Table owns the lexical scope tree, the static-RAM allocator, the
// compile-time heap cursor, and the register allocator, wired together so
// codegen never has to reach past it into any one sub-component directly
// (spec.md §9's "single owned Compiler value" design note, scoped down to
// just the symbol-table/allocator cluster).
type Table struct {
	Static *MemoryManager
	Heap   *HeapAllocator
	Regs   *regalloc.Allocator

	global      *Scope
	current     *Scope
	nextScopeID int
}

// New creates a Table. emit is forwarded to the register allocator for its
// inline spill/reload instruction emission.
func New(staticStart, staticSize, heapStart, heapSize int, emit regalloc.Emit) *Table {
	global := newScope(nil, 0)
	static := NewMemoryManager(staticStart, staticSize)
	return &Table{
		Static:      static,
		Heap:        NewHeapAllocator(heapStart, heapSize),
		Regs:        regalloc.New(emit, static),
		global:      global,
		current:     global,
		nextScopeID: 1,
	}
}

// EnterScope pushes a new lexical scope and a matching register
// availability frame.
func (t *Table) EnterScope() {
	t.current = newScope(t.current, t.nextScopeID)
	t.nextScopeID++
	t.Regs.EnterScope()
}

// ExitScope pops the current lexical scope, freeing any registers still
// held by its local (non-global) symbols, and returns to the parent.
func (t *Table) ExitScope() error {
	if t.current.parent == nil {
		return fmt.Errorf("symtab: cannot exit the global scope")
	}
	for _, sym := range t.current.symbols {
		if !sym.IsGlobal && sym.Storage == StorageRegister {
			t.Regs.Free(sym.ScopedName)
		}
	}
	t.Regs.ExitScope()
	t.current = t.current.parent
	return nil
}

func (t *Table) scopedName(name string) string {
	return fmt.Sprintf("%s$scope%d$level%d", name, t.current.id, t.current.level)
}

// Resolve looks up name in the current scope or any ancestor.
func (t *Table) Resolve(name string) (*Symbol, error) {
	if sym, ok := t.current.resolve(name); ok {
		return sym, nil
	}
	return nil, fmt.Errorf("symtab: %w: %q", ErrUndefined, name)
}

// DefineGlobal allocates static RAM for a scalar global and defines it in
// the global scope.
func (t *Table) DefineGlobal(name string, typ ast.Type) (*Symbol, error) {
	scoped := name // globals use their plain name (scope 0, level 0)
	addr, err := t.Static.Allocate(scoped, 1)
	if err != nil {
		return nil, err
	}
	sym := &Symbol{
		Name: name, Type: typ, Kind: KindVariable, Storage: StorageRAM,
		Address: addr, Size: 1, IsGlobal: true, ScopedName: scoped,
	}
	return t.defineIn(t.global, sym)
}

// DefineGlobalArray allocates static RAM for a global array.
func (t *Table) DefineGlobalArray(name string, typ *ast.ArrayType) (*Symbol, error) {
	addr, err := t.Static.Allocate(name, typ.Size)
	if err != nil {
		return nil, err
	}
	sym := &Symbol{
		Name: name, Type: typ, Kind: KindArray, Storage: StorageRAM,
		Address: addr, Size: typ.Size, IsGlobal: true, ScopedName: name,
	}
	return t.defineIn(t.global, sym)
}

// DefineLocalArray allocates static RAM for a local array (arrays always
// live in RAM per spec.md §4.D.6, never in a register or on the stack,
// since subscripting computes base+index as an immediate address).
func (t *Table) DefineLocalArray(name string, typ *ast.ArrayType) (*Symbol, error) {
	scoped := t.scopedName(name)
	addr, err := t.Static.Allocate(scoped, typ.Size)
	if err != nil {
		return nil, err
	}
	sym := &Symbol{
		Name: name, Type: typ, Kind: KindArray, Storage: StorageRAM,
		Address: addr, Size: typ.Size, ScopeID: t.current.id, ScopeLevel: t.current.level,
		ScopedName: scoped,
	}
	return t.defineIn(t.current, sym)
}

// DefineLocalInRegister gives a scalar local a persistent register binding
// (spec.md §4.B: scope exit frees every register the allocator holds for
// the scope's local symbols). This is the primary storage strategy for
// scalar locals; the register allocator's LRU spiller takes over silently
// once a scope's live locals exceed the pool (spec.md §8 scenario 3).
func (t *Table) DefineLocalInRegister(name string, typ ast.Type) (*Symbol, error) {
	scoped := t.scopedName(name)
	reg, err := t.Regs.AllocateNamed(scoped)
	if err != nil {
		return nil, err
	}
	sym := &Symbol{
		Name: name, Type: typ, Kind: KindVariable, Storage: StorageRegister,
		Address: reg, Size: 1, ScopeID: t.current.id, ScopeLevel: t.current.level,
		ScopedName: scoped,
	}
	return t.defineIn(t.current, sym)
}

// DefineLocalOnStack defines a local variable occupying a stack-frame slot
// at FP+frameOffset (spec.md §4.D.3's literal frame-slot formula), for any
// local a caller chooses to pin to the stack frame rather than the register
// pool. Parameters are defined by DefineParameterOnStack, not through it.
func (t *Table) DefineLocalOnStack(name string, typ ast.Type, frameOffset int) (*Symbol, error) {
	scoped := t.scopedName(name)
	sym := &Symbol{
		Name: name, Type: typ, Kind: KindVariable, Storage: StorageStack,
		FrameOffset: frameOffset, Size: 1, ScopeID: t.current.id, ScopeLevel: t.current.level,
		ScopedName: scoped,
	}
	return t.defineIn(t.current, sym)
}

// DefineParameterOnStack defines a parameter at FP+2+k (spec.md §4.D.2).
func (t *Table) DefineParameterOnStack(name string, typ ast.Type, frameOffset int) (*Symbol, error) {
	scoped := t.scopedName(name)
	sym := &Symbol{
		Name: name, Type: typ, Kind: KindParameter, Storage: StorageStack,
		FrameOffset: frameOffset, Size: 1, ScopeID: t.current.id, ScopeLevel: t.current.level,
		ScopedName: scoped,
	}
	return t.defineIn(t.current, sym)
}

// DefineFunction records a function's signature in the global scope. Its
// address is resolved by the assembly loader via the function's label, not
// by the symbol table.
func (t *Table) DefineFunction(name string, typ *ast.FunctionType) (*Symbol, error) {
	sym := &Symbol{
		Name: name, Type: typ, Kind: KindFunction, Storage: StorageRAM,
		IsGlobal: true, ScopedName: name,
	}
	return t.defineIn(t.global, sym)
}

// MigrateToRAM moves a register-resident symbol to a fresh static RAM slot,
// used when `&x` is taken on a register symbol (spec.md §4.D.6): the
// symbol's storage class changes from StorageRegister to StorageRAM, and
// its register is freed back to the pool. emit is called with `LOAD reg,
// i:addr` to store the register's current value into the new slot before
// the register is freed, so later reads of x (and of the address just
// taken) see that value rather than uninitialized RAM.
func (t *Table) MigrateToRAM(sym *Symbol, emit regalloc.Emit) error {
	if sym.Storage != StorageRegister {
		return nil
	}
	addr, err := t.Static.Allocate(sym.ScopedName, 1)
	if err != nil {
		return err
	}
	emit("LOAD", fmt.Sprintf("%d", sym.Address), fmt.Sprintf("i:%d", addr))
	t.Regs.Free(sym.ScopedName)
	sym.Storage = StorageRAM
	sym.Address = addr
	return nil
}

func (t *Table) defineIn(scope *Scope, sym *Symbol) (*Symbol, error) {
	if !scope.define(sym) {
		return nil, fmt.Errorf("symtab: %w: %q in scope %d", ErrRedefined, sym.Name, scope.id)
	}
	return sym, nil
}

// CurrentScopeID reports the id of the scope currently open, for callers
// that need to tag emitted labels or diagnostics.
func (t *Table) CurrentScopeID() int { return t.current.id }
