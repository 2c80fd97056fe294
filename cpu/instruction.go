package cpu

import (
	"fmt"
	"log"
)

// instruction executes the opcode in IR, given the two bytes following it.
type instruction func(cpu *Cpu, a, b uint8) error

// dispatch maps every implemented opcode to its handler.
var dispatch = [256]instruction{
	OP_NOP:  (*Cpu).opNop,
	OP_HLT:  (*Cpu).opHlt,
	OP_RET:  (*Cpu).opRet,
	OP_IRET: (*Cpu).opIret,
	OP_PUSH: (*Cpu).opPush,
	OP_POP:  (*Cpu).opPop,
	OP_PRN:  (*Cpu).opPrn,
	OP_PRA:  (*Cpu).opPra,
	OP_CALL: (*Cpu).opCall,
	OP_INT:  (*Cpu).opInt,
	OP_JMP:  (*Cpu).opJump,
	OP_JEQ:  (*Cpu).opJump,
	OP_JNE:  (*Cpu).opJump,
	OP_JGT:  (*Cpu).opJump,
	OP_JLT:  (*Cpu).opJump,
	OP_JLE:  (*Cpu).opJump,
	OP_JGE:  (*Cpu).opJump,
	OP_INC:  (*Cpu).opAlu,
	OP_DEC:  (*Cpu).opAlu,
	OP_NOT:  (*Cpu).opAlu,
	OP_LDI:  (*Cpu).opLdi,
	OP_LD:   (*Cpu).opLd,
	OP_ST:   (*Cpu).opSt,
	OP_ADD:  (*Cpu).opAlu,
	OP_SUB:  (*Cpu).opAlu,
	OP_MUL:  (*Cpu).opAlu,
	OP_DIV:  (*Cpu).opAlu,
	OP_MOD:  (*Cpu).opAlu,
	OP_CMP:  (*Cpu).opAlu,
	OP_AND:  (*Cpu).opAlu,
	OP_OR:   (*Cpu).opAlu,
	OP_XOR:  (*Cpu).opAlu,
	OP_SHL:  (*Cpu).opAlu,
	OP_SHR:  (*Cpu).opAlu,
}

// taken returns true if the jump in op branches for the given flags.
func taken(op Opcode, fl uint8) bool {
	switch op {
	case OP_JMP:
		return true
	case OP_JEQ:
		return (fl & FL_EQUAL) != 0
	case OP_JNE:
		return (fl & FL_EQUAL) == 0
	case OP_JGT:
		return (fl & FL_GREATER) != 0
	case OP_JLT:
		return (fl & FL_LESS) != 0
	case OP_JLE:
		return (fl & (FL_LESS | FL_EQUAL)) != 0
	case OP_JGE:
		return (fl & (FL_GREATER | FL_EQUAL)) != 0
	}
	return false
}

func (cpu *Cpu) opNop(_, _ uint8) error {
	return nil
}

func (cpu *Cpu) opHlt(_, _ uint8) error {
	cpu.Halted = true
	return nil
}

func (cpu *Cpu) opAlu(a, b uint8) error {
	return cpu.doAlu(cpu.Ir, RegOf(a), RegOf(b))
}

func (cpu *Cpu) opLdi(a, imm uint8) error {
	cpu.SetReg(RegOf(a), imm)
	return nil
}

func (cpu *Cpu) opLd(a, b uint8) error {
	cpu.SetReg(RegOf(a), cpu.Memory[cpu.Reg(RegOf(b))])
	return nil
}

func (cpu *Cpu) opSt(a, b uint8) error {
	cpu.Memory[cpu.Reg(RegOf(a))] = cpu.Reg(RegOf(b))
	return nil
}

func (cpu *Cpu) opPush(a, _ uint8) error {
	cpu.Push(cpu.Reg(RegOf(a)))
	return nil
}

func (cpu *Cpu) opPop(a, _ uint8) error {
	cpu.SetReg(RegOf(a), cpu.Pop())
	return nil
}

func (cpu *Cpu) opPrn(a, _ uint8) error {
	cpu.print(fmt.Appendf(nil, "%d\n", cpu.Reg(RegOf(a))))
	return nil
}

func (cpu *Cpu) opPra(a, _ uint8) error {
	cpu.print([]byte{cpu.Reg(RegOf(a))})
	return nil
}

// print writes to the output device. Output failures are not CPU faults.
func (cpu *Cpu) print(data []byte) {
	if cpu.Output == nil {
		return
	}
	_, err := cpu.Output.Write(data)
	if err != nil && cpu.Verbose {
		log.Printf("cpu: output: %v", err)
	}
}

func (cpu *Cpu) opCall(a, _ uint8) error {
	target := cpu.Reg(RegOf(a))
	cpu.Push(cpu.Pc + uint8(cpu.Ir.Size()))
	cpu.Pc = target
	return nil
}

func (cpu *Cpu) opRet(_, _ uint8) error {
	cpu.Pc = cpu.Pop()
	return nil
}

// opInt raises an interrupt. Its encoding carries the sets-PC bit, so it
// steps over itself.
func (cpu *Cpu) opInt(a, _ uint8) error {
	cpu.lines.Raise(int(cpu.Reg(RegOf(a)) & REG_MASK))
	cpu.Pc += uint8(cpu.Ir.Size())
	return nil
}

// opIret unwinds the context pushed by service.
//
// The saved IS is popped but deliberately not restored: IS stays live so
// that bits raised by the interrupt source while the handler ran are not
// lost. TestInterrupt checks this.
func (cpu *Cpu) opIret(_, _ uint8) error {
	for reg := REG_IS; reg >= REG_R0; reg-- {
		value := cpu.Pop()
		if reg == REG_IS {
			continue
		}
		cpu.SetReg(reg, value)
	}
	cpu.Fl = cpu.Pop() & FL_MASK
	cpu.Pc = cpu.Pop()
	cpu.lines.enabled.Store(true)
	return nil
}

func (cpu *Cpu) opJump(a, _ uint8) error {
	if taken(cpu.Ir, cpu.Fl) {
		cpu.Pc = cpu.Reg(RegOf(a))
	} else {
		cpu.Pc += uint8(cpu.Ir.Size())
	}
	return nil
}
