package cpu

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/asmloader"
)

// isGPUOperand reports whether op is the special GPU register, used to
// select the wider 32-bit mask on AND/OR/XOR/SHL/SHR (spec.md §4.G).
func isGPUOperand(op asmloader.Operand) bool {
	return op.Kind == asmloader.KindSpecialReg && op.Label == "GPU"
}

// resolveValue resolves an operand to its integer value: an immediate's
// literal, a register's contents, a label's address, or the GPU special
// register's current 32-bit value (spec.md §4.G "Operand resolution
// rules").
func (c *CPU) resolveValue(op asmloader.Operand) (int, error) {
	switch op.Kind {
	case asmloader.KindImmediate:
		return int(op.Imm), nil
	case asmloader.KindRegister:
		v, err := c.GetRegister(op.Reg)
		if err != nil {
			return 0, err
		}
		return int(v), nil
	case asmloader.KindLabel:
		addr, err := c.mem.ResolveLabel(op.Label)
		if err != nil {
			return 0, err
		}
		return addr, nil
	case asmloader.KindSpecialReg:
		return c.getSpecialRegister(op.Label)
	default:
		return 0, fmt.Errorf("cpu: unresolvable operand")
	}
}

// resolveAddress resolves an operand used as a memory address: an
// immediate literal, a register's value, or a label's address (labels
// never name special registers).
func (c *CPU) resolveAddress(op asmloader.Operand) (int, error) {
	return c.resolveValue(op)
}

func (c *CPU) getSpecialRegister(name string) (int, error) {
	switch name {
	case "GPU":
		if c.gpu == nil {
			return 0, nil
		}
		return int(c.gpu.GPURegister), nil
	default:
		return 0, fmt.Errorf("cpu: unknown special register %q", name)
	}
}

func (c *CPU) setSpecialRegister(name string, value int) error {
	switch name {
	case "GPU":
		if c.gpu != nil {
			c.gpu.GPURegister = uint32(value) & 0xFFFFFFFF
		}
		return nil
	default:
		return fmt.Errorf("cpu: unknown special register %q", name)
	}
}

// storeTo writes value to whatever dest resolves to: a register, or the
// GPU special register. Used by MVR, whose destination must not be an
// immediate.
func (c *CPU) storeTo(dest asmloader.Operand, value int) error {
	switch dest.Kind {
	case asmloader.KindRegister:
		return c.setRegister(dest.Reg, value)
	case asmloader.KindSpecialReg:
		return c.setSpecialRegister(dest.Label, value)
	default:
		return fmt.Errorf("cpu: destination cannot be an immediate or label")
	}
}
