package symtab

import "errors"

// Sentinel errors for the compile-time fatal conditions spec.md §7
// attributes to the Symbol Table and Memory Manager.
var (
	ErrRedefined   = errors.New("symbol redefinition")
	ErrUndefined   = errors.New("undefined symbol")
	ErrOutOfMemory = errors.New("static memory overflow")
)
