package vm

import (
	"testing"

	"github.com/mcl-lang/mcl/pkg/vm/cpu"
)

type fakeKeyboard struct {
	codes []uint8
	i     int
}

func (k *fakeKeyboard) ReadChar() (uint8, bool) {
	if k.i >= len(k.codes) {
		return 0, false
	}
	c := k.codes[k.i]
	k.i++
	return c, true
}

func TestLoadProgramAndRun(t *testing.T) {
	machine := New(nil)
	if err := machine.LoadProgram(`
		MVR i:7, 6
		MULT 6, i:6
		HALT
	`); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	machine.Run(100)

	state, reason := machine.GetState()
	if state != cpu.Stopped || reason != "HALT instruction executed" {
		t.Fatalf("state=%v reason=%q", state, reason)
	}
	r0, err := machine.GetRegister(cpu.RegReturnValue)
	if err != nil {
		t.Fatalf("GetRegister failed: %v", err)
	}
	if r0 != 42 {
		t.Errorf("R0 = %d, want 42", r0)
	}
}

func TestGPUBuiltinScenario(t *testing.T) {
	machine := New(nil)
	// setGPUBuffer(0,1) selects edit buffer 1 via gpu_register bit 1, then
	// fillGrid(0,0,32,1) fills row 0 of the (now-selected) edit buffer.
	if err := machine.LoadProgram(`
		MVR i:2, GPU
		DRGRD i:0, i:0, i:32, i:1
		HALT
	`); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	machine.Run(100)

	buf1 := machine.GPU.DisplayBuffer() // display still selects buffer 0
	_ = buf1
	edit := machine.GPU.EditBuffer()
	if edit[0] != 0xFFFFFFFF {
		t.Errorf("edit buffer row 0 = %032b, want all bits set", edit[0])
	}
}

func TestKeyboardSourceWiring(t *testing.T) {
	kb := &fakeKeyboard{codes: []uint8{65}}
	machine := New(kb)
	if err := machine.LoadProgram(`
		KEYIN i:50
		HALT
	`); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	machine.Run(100)
	v, err := machine.ReadMemory(50)
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}
	if v != 65 {
		t.Errorf("mem[50] = %d, want 65", v)
	}
}
