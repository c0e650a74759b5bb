package symtab

import (
	"fmt"
	"testing"

	"github.com/mcl-lang/mcl/pkg/ast"
)

// TestMigrateToRAMStoresCurrentValue checks that moving a register-resident
// symbol to RAM (for `&x`) emits a store of the register's current value
// into the new slot before the register is freed, so the slot isn't left
// holding uninitialized RAM.
func TestMigrateToRAMStoresCurrentValue(t *testing.T) {
	var log []string
	emit := func(opcode string, operands ...string) {
		log = append(log, fmt.Sprintf("%s %v", opcode, operands))
	}

	table := New(0x1000, 64, 0x1800, 64, emit)
	sym, err := table.DefineLocalInRegister("x", &ast.IntType{})
	if err != nil {
		t.Fatalf("DefineLocalInRegister failed: %v", err)
	}
	reg := sym.Address

	if err := table.MigrateToRAM(sym, emit); err != nil {
		t.Fatalf("MigrateToRAM failed: %v", err)
	}

	if sym.Storage != StorageRAM {
		t.Errorf("Storage = %v, want StorageRAM", sym.Storage)
	}

	want := fmt.Sprintf("LOAD [%d i:%d]", reg, sym.Address)
	found := false
	for _, line := range log {
		if line == want {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected emitted log to contain %q, got %v", want, log)
	}
}

// TestMigrateToRAMIsNoOpForNonRegisterStorage checks MigrateToRAM leaves a
// symbol untouched, and emits nothing, when it isn't register-resident.
func TestMigrateToRAMIsNoOpForNonRegisterStorage(t *testing.T) {
	var log []string
	emit := func(opcode string, operands ...string) {
		log = append(log, fmt.Sprintf("%s %v", opcode, operands))
	}

	table := New(0x1000, 64, 0x1800, 64, func(string, ...string) {})
	sym, err := table.DefineGlobal("g", &ast.IntType{})
	if err != nil {
		t.Fatalf("DefineGlobal failed: %v", err)
	}

	if err := table.MigrateToRAM(sym, emit); err != nil {
		t.Fatalf("MigrateToRAM failed: %v", err)
	}
	if len(log) != 0 {
		t.Errorf("expected no emitted instructions for a non-register symbol, got %v", log)
	}
}
