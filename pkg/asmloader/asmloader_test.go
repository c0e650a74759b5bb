package asmloader

import (
	"errors"
	"testing"
)

func TestLoadLabelsAndInstructions(t *testing.T) {
	source := `
main:
	LOAD i:42, 6
	JAL  add_one
	HALT
add_one:
	ADD  6, i:1
	JMP  2
`
	instructions, labels, err := Load(source)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(instructions) != 5 {
		t.Fatalf("expected 5 instructions, got %d", len(instructions))
	}
	if labels["main"] != 0 {
		t.Errorf("main should be at address 0, got %d", labels["main"])
	}
	if labels["add_one"] != 3 {
		t.Errorf("add_one should be at address 3, got %d", labels["add_one"])
	}
	if instructions[0].Opcode != "LOAD" {
		t.Errorf("instruction 0 opcode = %q, want LOAD", instructions[0].Opcode)
	}
	if instructions[0].Operands[0].Kind != KindImmediate || instructions[0].Operands[0].Imm != 42 {
		t.Errorf("instruction 0 operand 0 = %+v, want immediate 42", instructions[0].Operands[0])
	}
	if instructions[0].Operands[1].Kind != KindRegister || instructions[0].Operands[1].Reg != 6 {
		t.Errorf("instruction 0 operand 1 = %+v, want register 6", instructions[0].Operands[1])
	}
	if instructions[1].Operands[0].Kind != KindLabel || instructions[1].Operands[0].Label != "add_one" {
		t.Errorf("instruction 1 operand 0 = %+v, want label add_one", instructions[1].Operands[0])
	}
}

func TestLoadSpecialRegister(t *testing.T) {
	instructions, _, err := Load("OR 6, GPU")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if instructions[0].Operands[1].Kind != KindSpecialReg || instructions[0].Operands[1].Label != "GPU" {
		t.Errorf("operand 1 = %+v, want SpecialReg GPU", instructions[0].Operands[1])
	}
}

func TestLoadHexImmediate(t *testing.T) {
	instructions, _, err := Load("MVR 0x1F, 6")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if instructions[0].Operands[0].Kind != KindImmediate || instructions[0].Operands[0].Imm != 0x1F {
		t.Errorf("operand 0 = %+v, want immediate 31", instructions[0].Operands[0])
	}
}

func TestLoadComments(t *testing.T) {
	instructions, _, err := Load(`
// a full-line comment
HALT // trailing comment
`)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(instructions) != 1 || instructions[0].Opcode != "HALT" {
		t.Fatalf("expected a single HALT instruction, got %+v", instructions)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"bad operand", "LOAD $, 6"},
		{"duplicate label", "a:\nHALT\na:\nHALT"},
		{"unknown opcode", "FOOBAR 6, 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Load(tt.source); err == nil {
				t.Errorf("expected an error, got nil")
			}
		})
	}
}

// TestLoadUnknownOpcodeCarriesLineNumber checks spec.md §7's "unknown
// opcode" row is raised as a load-time *Error with the source line
// number, not deferred to a runtime CPU fault with no line information.
func TestLoadUnknownOpcodeCarriesLineNumber(t *testing.T) {
	_, _, err := Load("HALT\nFOOBAR 1, 2\n")
	var loadErr *Error
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load error = %v (%T), want *asmloader.Error", err, err)
	}
	if loadErr.Line != 2 {
		t.Errorf("Error.Line = %d, want 2", loadErr.Line)
	}
}

func TestRoundTrip(t *testing.T) {
	source := "main:\n\tLOAD i:42, 6\n\tHALT\n"
	instructions, labels, err := Load(source)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	printed := Print(instructions, labels)
	instructions2, labels2, err := Load(printed)
	if err != nil {
		t.Fatalf("re-Load of printed output failed: %v", err)
	}
	if len(instructions) != len(instructions2) {
		t.Fatalf("instruction count changed across round-trip: %d vs %d", len(instructions), len(instructions2))
	}
	for i := range instructions {
		if instructions[i].Opcode != instructions2[i].Opcode {
			t.Errorf("instruction %d opcode changed: %q vs %q", i, instructions[i].Opcode, instructions2[i].Opcode)
		}
	}
	for name, addr := range labels {
		if labels2[name] != addr {
			t.Errorf("label %q address changed: %d vs %d", name, addr, labels2[name])
		}
	}
}
