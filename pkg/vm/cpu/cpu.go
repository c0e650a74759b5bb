// Package cpu implements the MCL virtual machine's fetch/decode/execute
// loop over the normalized instruction set of spec.md §4.G, operating on
// pre-decoded asmloader.Instruction/Operand values rather than re-parsing
// operand strings on every fetch (spec.md §9's tagged-operand redesign).
// Grounded on original_source/src/vm/cpu.py's handler table and register
// semantics, reshaped into the teacher's struct-plus-Step()/Reset()
// emulator style (pkg/emulator/z80.go).
package cpu

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/asmloader"
	"github.com/mcl-lang/mcl/pkg/vm/gpu"
	"github.com/mcl-lang/mcl/pkg/vm/memory"
)

// NumRegisters is the size of the general register file.
const NumRegisters = 32

// Fixed register roles (spec.md §4.D.1, §4.G).
const (
	RegReturnValue     = 0 // R0 — ALU primary result
	RegSecondaryReturn = 1 // R1 — MULT high half / DIV remainder
	RegStackPointer    = 3
	RegFramePointer    = 4
)

// ringBufferSize is the input ring buffer's slot count (spec.md §6).
const ringBufferSize = 256

// State is the CPU's execution state.
type State uint8

const (
	Stopped State = iota
	Running
	Error
	Breakpoint
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Error:
		return "error"
	case Breakpoint:
		return "breakpoint"
	default:
		return "unknown"
	}
}

// KeyboardSource supplies 6-bit input character codes to KEYIN. ReadChar
// blocks until a character is available; it returns ok=false if no
// character could be produced (e.g. the source was closed).
type KeyboardSource interface {
	ReadChar() (code uint8, ok bool)
}

// ringBuffer is the 256-slot circular buffer of 6-bit character codes
// KEYIN drains (spec.md §6): producer increments writePtr, consumer
// increments readPtr, equality means empty.
type ringBuffer struct {
	slots    [ringBufferSize]uint8
	readPtr  int
	writePtr int
}

func (rb *ringBuffer) empty() bool { return rb.readPtr == rb.writePtr }

func (rb *ringBuffer) push(code uint8) {
	rb.slots[rb.writePtr] = code
	rb.writePtr = (rb.writePtr + 1) % ringBufferSize
}

func (rb *ringBuffer) pop() uint8 {
	code := rb.slots[rb.readPtr]
	rb.readPtr = (rb.readPtr + 1) % ringBufferSize
	return code
}

// CPU is the MCL virtual machine's instruction interpreter.
type CPU struct {
	Registers [NumRegisters]uint16
	PC        int
	State     State
	HaltReason string

	InstructionCount int
	CycleCount       int

	mem *memory.Memory
	gpu *gpu.GPU
	kb  KeyboardSource

	input ringBuffer
}

// New creates a CPU wired to mem and (optionally) a GPU unit; gpu may be
// nil, in which case GPU-delegated opcodes are silently ignored per
// original_source/src/vm/cpu.py's `if self.gpu:` guard.
func New(mem *memory.Memory, g *gpu.GPU, kb KeyboardSource) *CPU {
	return &CPU{mem: mem, gpu: g, kb: kb, State: Stopped}
}

// Reset returns the CPU to its initial state without touching memory or
// GPU contents.
func (c *CPU) Reset() {
	c.Registers = [NumRegisters]uint16{}
	c.PC = 0
	c.State = Stopped
	c.HaltReason = ""
	c.InstructionCount = 0
	c.CycleCount = 0
}

// PushInput queues a 6-bit character code for a future KEYIN (the
// producer side of the ring buffer protocol; spec.md §6).
func (c *CPU) PushInput(code uint8) {
	c.input.push(code)
}

// GetRegister returns a general register's current value.
func (c *CPU) GetRegister(reg int) (uint16, error) {
	if reg < 0 || reg >= NumRegisters {
		return 0, fmt.Errorf("cpu: invalid register %d", reg)
	}
	return c.Registers[reg], nil
}

func (c *CPU) setRegister(reg int, value int) error {
	if reg < 0 || reg >= NumRegisters {
		return fmt.Errorf("cpu: invalid register %d", reg)
	}
	c.Registers[reg] = uint16(value & 0xFFFF)
	return nil
}

var jumpOpcodes = map[string]bool{
	"JMP": true, "JAL": true, "JBT": true, "JZ": true, "JNZ": true,
}

// Run executes Step until the CPU stops running or maxCycles is reached
// (0 means unbounded), matching spec.md §6's `run(max_cycles)`.
func (c *CPU) Run(maxCycles int) {
	c.State = Running
	cycles := 0
	for c.State == Running {
		if maxCycles > 0 && cycles >= maxCycles {
			c.State = Stopped
			c.HaltReason = "Max cycles reached"
			return
		}
		if !c.Step() {
			return
		}
		cycles++
	}
}

// Step executes exactly one instruction and reports whether execution
// should continue (spec.md §8 invariant 1).
func (c *CPU) Step() bool {
	if c.State != Running {
		return false
	}

	inst, ok := c.mem.FetchInstruction(c.PC)
	if !ok {
		c.State = Stopped
		c.HaltReason = "End of program"
		return false
	}

	if err := c.execute(inst); err != nil {
		c.State = Error
		c.HaltReason = err.Error()
		return false
	}

	c.InstructionCount++
	c.CycleCount++
	if !jumpOpcodes[inst.Opcode] {
		c.PC++
	}
	return c.State == Running
}

func (c *CPU) execute(inst asmloader.Instruction) error {
	switch inst.Opcode {
	case "LOAD":
		return c.execLoad(inst)
	case "READ":
		return c.execRead(inst)
	case "MVR":
		return c.execMVR(inst)
	case "MVM":
		return c.execMVM(inst)
	case "ADD":
		return c.execBinALU(inst, func(a, b int) int { return a + b })
	case "SUB":
		return c.execBinALU(inst, func(a, b int) int { return a - b })
	case "MULT":
		return c.execMult(inst)
	case "DIV":
		return c.execDiv(inst)
	case "SHL":
		return c.execShift(inst, true)
	case "SHR":
		return c.execShift(inst, false)
	case "SHLR":
		return c.execRotate(inst)
	case "AND":
		return c.execBitwise(inst, func(a, b int) int { return a & b })
	case "OR":
		return c.execBitwise(inst, func(a, b int) int { return a | b })
	case "XOR":
		return c.execBitwise(inst, func(a, b int) int { return a ^ b })
	case "NOT":
		return c.execNot(inst)
	case "JMP":
		return c.execJMP(inst)
	case "JAL":
		return c.execJAL(inst)
	case "JBT":
		return c.execJBT(inst)
	case "JZ":
		return c.execJZ(inst, true)
	case "JNZ":
		return c.execJZ(inst, false)
	case "KEYIN":
		return c.execKeyin(inst)
	case "HALT":
		c.State = Stopped
		c.HaltReason = "HALT instruction executed"
		return nil
	case "DRLINE", "DRGRD", "CLRGRID", "LDSPR", "DRSPR", "LDTXT", "DRTXT", "SCRLBFR":
		return c.execGPU(inst)
	default:
		return fmt.Errorf("unknown instruction: %s", inst.Opcode)
	}
}
