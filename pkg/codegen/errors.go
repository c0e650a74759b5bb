package codegen

import "errors"

var (
	// ErrMainNotFound is returned by CompileProgram when no function named
	// main is present (spec.md §4.D.1 requires one entry point).
	ErrMainNotFound = errors.New("codegen: no function named main")

	// ErrMallocSizeNotConstant is returned when malloc's size argument
	// cannot be folded to a compile-time constant (spec.md §4.D.6).
	ErrMallocSizeNotConstant = errors.New("codegen: malloc size must be a compile-time constant")

	// ErrBreakOutsideLoop / ErrContinueOutsideLoop report break/continue
	// statements with no enclosing loop on the label stack.
	ErrBreakOutsideLoop    = errors.New("codegen: break outside a loop")
	ErrContinueOutsideLoop = errors.New("codegen: continue outside a loop")

	// ErrInvalidAssignTarget is returned for an assignment whose left-hand
	// side is not an Ident, Index, or dereferenced pointer.
	ErrInvalidAssignTarget = errors.New("codegen: invalid assignment target")

	// ErrAddressOfNonIdent is returned when & is applied to anything but a
	// plain variable name (spec.md §4.D.6 defines address-of only for
	// named symbols).
	ErrAddressOfNonIdent = errors.New("codegen: & requires a named variable")

	// ErrUnknownBuiltin is returned for a call whose callee resolves to
	// neither a user function nor a recognized builtin.
	ErrUnknownBuiltin = errors.New("codegen: unknown builtin function")

	// ErrBadArgCount is returned when a call to malloc, free, setGPUBuffer
	// or getGPUBuffer doesn't match that builtin's fixed arity. The GPU
	// drawing builtins do not check their argument count.
	ErrBadArgCount = errors.New("codegen: wrong number of arguments")

	// ErrBadGPUBufferID is returned when setGPUBuffer/getGPUBuffer's
	// constant-folded buffer id is outside {0, 1}.
	ErrBadGPUBufferID = errors.New("codegen: GPU buffer id must be 0 or 1")
)
