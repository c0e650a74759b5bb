// Package memory implements the VM's 16-bit-word-addressed memory unit:
// RAM, the ROM program store, and label resolution (spec.md §4.F).
// Grounded on original_source/src/vm/memory.py's region model (RAM
// read-write at [0, RAM_SIZE), ROM read-only at [0x8000, 0x8000+ROM_SIZE))
// and its `func_` prefix label fallback, reshaped into the teacher's
// struct-plus-methods emulator style (pkg/emulator/z80.go).
package memory

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/asmloader"
)

const (
	// DefaultRAMSize is the default RAM region size in 16-bit words.
	DefaultRAMSize = 0x8000
	// DefaultROMSize is the default ROM region size in instruction slots.
	DefaultROMSize = 0x4000
	// ROMBase is the first address of the ROM region.
	ROMBase = 0x8000
)

// region describes one address-space region.
type region struct {
	start, size int
	readOnly    bool
	name        string
}

func (r region) contains(addr int) bool {
	return addr >= r.start && addr < r.start+r.size
}

// Memory is the VM's memory management unit.
type Memory struct {
	ram     []uint16
	rom     []asmloader.Instruction
	ramSize int

	ramRegion region
	romRegion region

	labels     map[string]int
	programLen int

	ReadCount  int
	WriteCount int
}

// New creates a Memory with the given RAM and ROM sizes.
func New(ramSize, romSize int) *Memory {
	return &Memory{
		ram:       make([]uint16, ramSize),
		rom:       make([]asmloader.Instruction, romSize),
		ramSize:   ramSize,
		ramRegion: region{start: 0, size: ramSize, readOnly: false, name: "RAM"},
		romRegion: region{start: ROMBase, size: romSize, readOnly: true, name: "ROM"},
		labels:    make(map[string]int),
	}
}

// LoadProgram installs instructions as the ROM program and merges labels
// into the label table.
func (m *Memory) LoadProgram(instructions []asmloader.Instruction, labels map[string]int) error {
	if len(instructions) > len(m.rom) {
		return fmt.Errorf("memory: program too large: %d instructions > %d ROM slots", len(instructions), len(m.rom))
	}
	m.rom = make([]asmloader.Instruction, len(m.rom))
	copy(m.rom, instructions)
	m.programLen = len(instructions)
	for name, addr := range labels {
		m.labels[name] = addr
	}
	return nil
}

// Read returns the 16-bit word at addr, masked to the RAM region.
func (m *Memory) Read(addr int) (uint16, error) {
	addr &= 0xFFFF
	m.ReadCount++
	if m.ramRegion.contains(addr) {
		return m.ram[addr-m.ramRegion.start], nil
	}
	return 0, fmt.Errorf("memory: invalid read address 0x%04X", addr)
}

// Write stores a 16-bit word at addr, masked to 16 bits, failing if addr
// falls in a read-only or unmapped region.
func (m *Memory) Write(addr int, value uint16) error {
	addr &= 0xFFFF
	m.WriteCount++
	if m.romRegion.contains(addr) {
		return fmt.Errorf("memory: cannot write to read-only memory at 0x%04X", addr)
	}
	if m.ramRegion.contains(addr) {
		m.ram[addr-m.ramRegion.start] = value
		return nil
	}
	return fmt.Errorf("memory: invalid write address 0x%04X", addr)
}

// FetchInstruction returns the instruction at ROM index pc. ok is false
// once pc runs past the loaded program's length, the CPU's "End of
// program" condition (spec.md §4.G).
func (m *Memory) FetchInstruction(pc int) (asmloader.Instruction, bool) {
	if pc < 0 || pc >= m.programLen {
		return asmloader.Instruction{}, false
	}
	return m.rom[pc], true
}

// ResolveLabel resolves a label to its ROM address, trying the bare name
// first and then a `func_` prefix so callers can refer to `main` or
// `func_main` interchangeably (spec.md §4.F).
func (m *Memory) ResolveLabel(label string) (int, error) {
	if addr, ok := m.labels[label]; ok {
		return addr, nil
	}
	if addr, ok := m.labels["func_"+label]; ok {
		return addr, nil
	}
	return 0, fmt.Errorf("memory: undefined label %q", label)
}

// RAMSize reports the configured RAM size in words.
func (m *Memory) RAMSize() int { return m.ramSize }

// ProgramLen reports how many instructions the currently loaded program
// has.
func (m *Memory) ProgramLen() int { return m.programLen }

// ClearRAM zeroes all RAM contents.
func (m *Memory) ClearRAM() {
	for i := range m.ram {
		m.ram[i] = 0
	}
}
