package cpu

import (
	"fmt"

	"github.com/mcl-lang/mcl/pkg/asmloader"
)

func requireOperands(inst asmloader.Instruction, n int) error {
	if len(inst.Operands) != n {
		return fmt.Errorf("%s requires %d operands, got %d", inst.Opcode, n, len(inst.Operands))
	}
	return nil
}

// execLoad implements `LOAD A, B`: mem[resolve(B)] <- resolve(A).
func (c *CPU) execLoad(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	value, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	addr, err := c.resolveAddress(inst.Operands[1])
	if err != nil {
		return err
	}
	return c.mem.Write(addr, uint16(value&0xFFFF))
}

// execRead implements `READ A, B`: R[B] <- mem[resolve(A)]; B must be a
// register.
func (c *CPU) execRead(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	if inst.Operands[1].Kind != asmloader.KindRegister {
		return fmt.Errorf("READ destination must be a register")
	}
	addr, err := c.resolveAddress(inst.Operands[0])
	if err != nil {
		return err
	}
	value, err := c.mem.Read(addr)
	if err != nil {
		return err
	}
	return c.setRegister(inst.Operands[1].Reg, int(value))
}

// execMVR implements `MVR A, B`: B <- resolve(A); B is a register or the
// GPU special register, never an immediate.
func (c *CPU) execMVR(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	if inst.Operands[1].Kind == asmloader.KindImmediate {
		return fmt.Errorf("MVR destination cannot be an immediate value")
	}
	value, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	return c.storeTo(inst.Operands[1], value)
}

// execMVM implements `MVM A, B`: mem[B] <- mem[A].
func (c *CPU) execMVM(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	src, err := c.resolveAddress(inst.Operands[0])
	if err != nil {
		return err
	}
	dst, err := c.resolveAddress(inst.Operands[1])
	if err != nil {
		return err
	}
	value, err := c.mem.Read(src)
	if err != nil {
		return err
	}
	return c.mem.Write(dst, value)
}

// execBinALU implements ADD/SUB: R0 <- op(a, b), 16-bit wrap via
// setRegister's masking.
func (c *CPU) execBinALU(inst asmloader.Instruction, op func(a, b int) int) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	a, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	b, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	return c.setRegister(RegReturnValue, op(a, b))
}

// execMult implements `MULT A, B`: R0 <- (a*b)&0xFFFF, R1 <- (a*b)>>16.
func (c *CPU) execMult(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	a, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	b, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	result := a * b
	if err := c.setRegister(RegReturnValue, result&0xFFFF); err != nil {
		return err
	}
	return c.setRegister(RegSecondaryReturn, (result>>16)&0xFFFF)
}

// execDiv implements `DIV A, B`: R0 <- a/b, R1 <- a%b; b=0 is fatal.
func (c *CPU) execDiv(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	a, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	b, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	if b == 0 {
		return fmt.Errorf("division by zero")
	}
	if err := c.setRegister(RegReturnValue, a/b); err != nil {
		return err
	}
	return c.setRegister(RegSecondaryReturn, a%b)
}

// execShift implements SHL/SHR: logical shift, masked to 16 bits unless
// the shifted operand is the GPU special register, which uses a 32-bit
// mask (spec.md §4.G).
func (c *CPU) execShift(inst asmloader.Instruction, left bool) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	a, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	b, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	var result int
	if left {
		result = a << uint(b)
	} else {
		result = a >> uint(b)
	}
	if isGPUOperand(inst.Operands[0]) {
		result &= 0xFFFFFFFF
	} else {
		result &= 0xFFFF
	}
	return c.setRegister(RegReturnValue, result)
}

// execRotate implements `SHLR A, B`: 16-bit left rotate by B bits.
func (c *CPU) execRotate(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	a, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	b, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	b %= 16
	a &= 0xFFFF
	result := ((a << uint(b)) | (a >> uint(16-b))) & 0xFFFF
	return c.setRegister(RegReturnValue, result)
}

// execBitwise implements AND/OR/XOR: bitwise op, with a 32-bit mask when
// either operand is the GPU special register (spec.md §4.G).
func (c *CPU) execBitwise(inst asmloader.Instruction, op func(a, b int) int) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	a, err := c.resolveValue(inst.Operands[0])
	if err != nil {
		return err
	}
	b, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	result := op(a, b)
	if isGPUOperand(inst.Operands[0]) || isGPUOperand(inst.Operands[1]) {
		result &= 0xFFFFFFFF
	} else {
		result &= 0xFFFF
	}
	return c.setRegister(RegReturnValue, result)
}

// execNot implements `NOT A`: in-place bitwise complement of a register,
// masked to 16 bits. The operand must be a register, never an immediate.
func (c *CPU) execNot(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 1); err != nil {
		return err
	}
	if inst.Operands[0].Kind != asmloader.KindRegister {
		return fmt.Errorf("NOT operand must be a register")
	}
	reg := inst.Operands[0].Reg
	v, err := c.GetRegister(reg)
	if err != nil {
		return err
	}
	return c.setRegister(reg, int(^v)&0xFFFF)
}

// execJMP implements `JMP target`: PC <- resolve(target); a register
// operand uses that register's value as an address.
func (c *CPU) execJMP(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 1); err != nil {
		return err
	}
	target, err := c.resolveAddress(inst.Operands[0])
	if err != nil {
		return err
	}
	c.PC = target
	return nil
}

// execJAL implements `JAL target`: R2 <- PC+1; PC <- resolve(target).
func (c *CPU) execJAL(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 1); err != nil {
		return err
	}
	if err := c.setRegister(returnAddressReg, c.PC+1); err != nil {
		return err
	}
	target, err := c.resolveAddress(inst.Operands[0])
	if err != nil {
		return err
	}
	c.PC = target
	return nil
}

// returnAddressReg is R2, the register JAL writes the return address to
// (spec.md §4.G; see also pkg/regalloc.RegRA).
const returnAddressReg = 2

// execJBT implements `JBT target, x, y`: if x>y, PC<-target; else PC+=1.
func (c *CPU) execJBT(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 3); err != nil {
		return err
	}
	target, err := c.resolveAddress(inst.Operands[0])
	if err != nil {
		return err
	}
	x, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	y, err := c.resolveValue(inst.Operands[2])
	if err != nil {
		return err
	}
	if x > y {
		c.PC = target
	} else {
		c.PC++
	}
	return nil
}

// execJZ implements JZ/JNZ: conditional PC update on a register's value
// being zero (wantZero=true) or nonzero (wantZero=false).
func (c *CPU) execJZ(inst asmloader.Instruction, wantZero bool) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}
	target, err := c.resolveAddress(inst.Operands[0])
	if err != nil {
		return err
	}
	x, err := c.resolveValue(inst.Operands[1])
	if err != nil {
		return err
	}
	isZero := x == 0
	if isZero == wantZero {
		c.PC = target
	} else {
		c.PC++
	}
	return nil
}

// execKeyin implements `KEYIN addr`: take the next queued input character,
// or, with none queued, block on the KeyboardSource until it yields one,
// then write it to mem[addr] (spec.md §4.G, §5). With nothing queued and
// no KeyboardSource, it does not block and writes 0.
func (c *CPU) execKeyin(inst asmloader.Instruction) error {
	if err := requireOperands(inst, 1); err != nil {
		return err
	}
	addr, err := c.resolveAddress(inst.Operands[0])
	if err != nil {
		return err
	}

	var code uint8
	if !c.input.empty() {
		code = c.input.pop()
	} else if c.kb != nil {
		var ok bool
		code, ok = c.kb.ReadChar()
		if !ok {
			c.State = Stopped
			c.HaltReason = "input source closed"
			return nil
		}
	}
	return c.mem.Write(addr, uint16(code))
}

// execGPU resolves every operand and delegates to the GPU unit; GPU
// commands are ignored if no GPU is attached (spec.md §4.G).
func (c *CPU) execGPU(inst asmloader.Instruction) error {
	if c.gpu == nil {
		return nil
	}
	operands := make([]int, len(inst.Operands))
	for i, op := range inst.Operands {
		v, err := c.resolveValue(op)
		if err != nil {
			return err
		}
		operands[i] = v
	}
	return c.gpu.Execute(inst.Opcode, operands)
}
