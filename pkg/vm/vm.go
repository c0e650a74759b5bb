// Package vm assembles the Memory, GPU, and CPU units behind the single
// VirtualMachine surface spec.md §6 describes for host callers:
// load_program(text), step(), run(max_cycles), read_memory(addr),
// get_register(id), get_state().
package vm

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/asmloader"
	"github.com/mcl-lang/mcl/pkg/vm/cpu"
	"github.com/mcl-lang/mcl/pkg/vm/gpu"
	"github.com/mcl-lang/mcl/pkg/vm/memory"
)

// VirtualMachine wires memory, GPU, and CPU together as one owned value.
type VirtualMachine struct {
	Memory *memory.Memory
	GPU    *gpu.GPU
	CPU    *cpu.CPU
}

// New creates a VirtualMachine with default RAM/ROM sizes and an attached
// GPU. kb may be nil if the program never executes KEYIN.
func New(kb cpu.KeyboardSource) *VirtualMachine {
	mem := memory.New(memory.DefaultRAMSize, memory.DefaultROMSize)
	g := gpu.New()
	return &VirtualMachine{
		Memory: mem,
		GPU:    g,
		CPU:    cpu.New(mem, g, kb),
	}
}

// LoadProgram assembles text and installs the resulting program into ROM,
// resetting the CPU to run it from address 0.
func (vm *VirtualMachine) LoadProgram(text string) error {
	instructions, labels, err := asmloader.Load(text)
	if err != nil {
		return fmt.Errorf("vm: %w", err)
	}
	if err := vm.Memory.LoadProgram(instructions, labels); err != nil {
		return fmt.Errorf("vm: %w", err)
	}
	vm.CPU.Reset()
	vm.CPU.State = cpu.Running
	return nil
}

// Step executes exactly one instruction.
func (vm *VirtualMachine) Step() bool {
	return vm.CPU.Step()
}

// Run executes until halted or maxCycles instructions have retired (0
// means unbounded).
func (vm *VirtualMachine) Run(maxCycles int) {
	vm.CPU.Run(maxCycles)
}

// ReadMemory reads one word of RAM.
func (vm *VirtualMachine) ReadMemory(addr int) (uint16, error) {
	return vm.Memory.Read(addr)
}

// GetRegister reads one general register.
func (vm *VirtualMachine) GetRegister(id int) (uint16, error) {
	return vm.CPU.GetRegister(id)
}

// GetState reports the CPU's current execution state and halt reason.
func (vm *VirtualMachine) GetState() (cpu.State, string) {
	return vm.CPU.State, vm.CPU.HaltReason
}

// PushInput queues one 6-bit input character code for a future KEYIN.
func (vm *VirtualMachine) PushInput(code uint8) {
	vm.CPU.PushInput(code)
}

// DisplayBuffer returns the GPU's currently selected display buffer.
func (vm *VirtualMachine) DisplayBuffer() *[gpu.Height]uint32 {
	return vm.GPU.DisplayBuffer()
}
