package symtab

import "github.com/mcl-lang/mcl/pkg/ast"

// Kind classifies what a Symbol denotes.
type Kind uint8

const (
	KindVariable Kind = iota
	KindParameter
	KindFunction
	KindArray
	KindTemporary
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindParameter:
		return "parameter"
	case KindFunction:
		return "function"
	case KindArray:
		return "array"
	case KindTemporary:
		return "temporary"
	default:
		return "unknown"
	}
}

// Storage classifies where a Symbol's value lives.
type Storage uint8

const (
	StorageRegister Storage = iota
	StorageRAM
	StorageStack
	StorageSpilled
)

func (s Storage) String() string {
	switch s {
	case StorageRegister:
		return "register"
	case StorageRAM:
		return "ram"
	case StorageStack:
		return "stack"
	case StorageSpilled:
		return "spilled"
	default:
		return "unknown"
	}
}

// Symbol is one user-declared name in scope. Exactly one of Address or
// FrameOffset is meaningful for a given Storage: StorageStack uses
// FrameOffset, every other storage class uses Address (a register number
// for StorageRegister, a RAM address for StorageRAM/StorageSpilled).
type Symbol struct {
	Name       string
	Type       ast.Type
	Kind       Kind
	Storage    Storage
	Address    int // register id or RAM address, per Storage
	FrameOffset int // FP-relative offset, only meaningful for StorageStack
	Size       int // element count, for KindArray
	ScopeID    int
	ScopeLevel int
	IsGlobal   bool

	// ScopedName disambiguates shadowing: name$scope{id}$level{l}. It is
	// the key the register allocator and spill table use internally.
	ScopedName string
}

// IsInRegister reports whether the symbol's current value lives in a
// register (false once spilled).
func (s *Symbol) IsInRegister() bool { return s.Storage == StorageRegister }
