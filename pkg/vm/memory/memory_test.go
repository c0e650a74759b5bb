package memory

import (
	"testing"

	"github.com/mcl-lang/mcl/pkg/asmloader"
)

func TestReadWriteRAM(t *testing.T) {
	m := New(DefaultRAMSize, DefaultROMSize)
	if err := m.Write(10, 42); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	v, err := m.Read(10)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v != 42 {
		t.Errorf("Read(10) = %d, want 42", v)
	}
}

func TestWriteToROMFails(t *testing.T) {
	m := New(DefaultRAMSize, DefaultROMSize)
	if err := m.Write(ROMBase, 1); err == nil {
		t.Errorf("expected write to ROM to fail")
	}
}

func TestReadUnmappedAddressFails(t *testing.T) {
	m := New(0x10, 0x10)
	if _, err := m.Read(0x7FFF); err == nil {
		t.Errorf("expected read of unmapped address to fail")
	}
}

func TestResolveLabelFuncPrefixFallback(t *testing.T) {
	m := New(DefaultRAMSize, DefaultROMSize)
	instructions := []asmloader.Instruction{{Opcode: "HALT", Address: 0}}
	labels := map[string]int{"func_main": 0}
	if err := m.LoadProgram(instructions, labels); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	addr, err := m.ResolveLabel("main")
	if err != nil {
		t.Fatalf("ResolveLabel(main) failed: %v", err)
	}
	if addr != 0 {
		t.Errorf("ResolveLabel(main) = %d, want 0", addr)
	}
}

func TestFetchInstructionPastProgramEnd(t *testing.T) {
	m := New(DefaultRAMSize, DefaultROMSize)
	instructions := []asmloader.Instruction{{Opcode: "HALT", Address: 0}}
	if err := m.LoadProgram(instructions, nil); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	if _, ok := m.FetchInstruction(1); ok {
		t.Errorf("expected FetchInstruction past program end to report ok=false")
	}
}
